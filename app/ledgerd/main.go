// This program hosts a Chain against a durable store and, when a miner key
// is configured, periodically assembles and solves verifying blocks against
// it. It is the engine's long-running entrypoint; it carries no peer or RPC
// surface of its own, those remaining external collaborators.
package main

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/ledger/foundation/blockchain/chain"
	"github.com/ardanlabs/ledger/foundation/blockchain/consensus"
	"github.com/ardanlabs/ledger/foundation/blockchain/consensus/poa"
	"github.com/ardanlabs/ledger/foundation/blockchain/consensus/pow"
	"github.com/ardanlabs/ledger/foundation/blockchain/contract/lua"
	"github.com/ardanlabs/ledger/foundation/blockchain/kv/leveldb"
	"github.com/ardanlabs/ledger/foundation/blockchain/reward"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ardanlabs/ledger/foundation/logger"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var build = "develop"

func main() {
	log, err := logger.New("LEDGERD")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := struct {
		conf.Version
		Node struct {
			DBPath         string        `conf:"default:zblock/ledger.db"`
			GenesisPath    string        `conf:"default:zblock/genesis.json"`
			SelectStrategy string        `conf:"default:insertion" validate:"oneof=insertion fee-density"`
			Consensus      string        `conf:"default:pow" validate:"oneof=pow poa none"`
			Difficulty     uint          `conf:"default:2"`
			Authorities    []string      `conf:"default:"`
			RewardInitial  uint64        `conf:"default:50"`
			RewardInterval uint64        `conf:"default:0"`
			MinerKeyPath   string        `conf:"default:zblock/miner.ecdsa"`
			MineInterval   time.Duration `conf:"default:10s"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "ledger node daemon",
		},
	}

	const prefix = "LEDGERD"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...), "traceid", uuid.NewString())
	}

	store, err := leveldb.Open(cfg.Node.DBPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	var consensusAdapter consensus.Adapter
	switch cfg.Node.Consensus {
	case "pow":
		consensusAdapter = pow.New(cfg.Node.Difficulty)
	case "poa":
		consensusAdapter = poa.New(cfg.Node.Authorities)
	case "none":
		consensusAdapter = nil
	}

	ldgr, err := chain.New(chain.Config{
		Store:          store,
		Consensus:      consensusAdapter,
		Contract:       lua.New(),
		Reward:         reward.Schedule{Initial: cfg.Node.RewardInitial, Interval: cfg.Node.RewardInterval},
		SelectStrategy: cfg.Node.SelectStrategy,
		GenesisPath:    cfg.Node.GenesisPath,
		EvHandler:      ev,
	})
	if err != nil {
		return fmt.Errorf("constructing chain: %w", err)
	}

	log.Infow("startup", "status", "chain loaded", "tipHeight", ldgr.TipHeight(), "tipId", ldgr.TipID().String())

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	if cfg.Node.MinerKeyPath != "" {
		minerKey, err := loadOrCreateMinerKey(cfg.Node.MinerKeyPath)
		if err != nil {
			return fmt.Errorf("loading miner key: %w", err)
		}

		go mine(ldgr, minerKey, cfg.Node.Consensus, cfg.Node.Difficulty, cfg.Node.MineInterval, ev, done)
	}

	<-shutdown
	close(done)
	log.Infow("shutdown", "status", "shutdown complete")

	return nil
}

// loadOrCreateMinerKey loads the ECDSA key at path, generating and
// persisting a fresh one on first run.
func loadOrCreateMinerKey(path string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.LoadECDSA(path)
	if err == nil {
		return key, nil
	}

	key, err = crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate miner key: %w", err)
	}
	if err := crypto.SaveECDSA(path, key); err != nil {
		return nil, fmt.Errorf("save miner key: %w", err)
	}

	return key, nil
}

// mine periodically assembles a verifying block against the current tip,
// solves it when proof-of-work consensus is configured, and submits it.
func mine(ldgr *chain.Chain, minerKey *ecdsa.PrivateKey, consensusName string, difficulty uint, interval time.Duration, ev chain.EventHandler, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	publicKey := signature.PublicKeyHex(minerKey)

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			block, err := ldgr.GenerateVerifyingBlock(publicKey)
			if err != nil {
				ev("ledgerd: mine: generate verifying block: %s", err)
				continue
			}

			if consensusName == "pow" {
				block, err = pow.Solve(block, difficulty)
				if err != nil {
					ev("ledgerd: mine: solve: %s", err)
					continue
				}
			}

			ok, permanent := ldgr.SubmitBlock(block, false)
			ev("ledgerd: mine: submitted block: ok[%t] permanent[%t]", ok, permanent)
		}
	}
}
