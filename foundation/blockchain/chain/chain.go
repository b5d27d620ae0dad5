// Package chain implements the Chain manager: the single-writer component
// that owns the store, the UTXO index, the mempool, and the pluggable
// consensus adapter, and that serializes every mutating operation behind one
// lock, grounded on the teacher's state package (Config/New, EventHandler,
// mutex-guarded mutation).
package chain

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/consensus"
	"github.com/ardanlabs/ledger/foundation/blockchain/contract"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/id"
	"github.com/ardanlabs/ledger/foundation/blockchain/kv"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool/selector"
	"github.com/ardanlabs/ledger/foundation/blockchain/reward"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ardanlabs/ledger/foundation/blockchain/utxo"
	"github.com/ardanlabs/ledger/foundation/blockchain/validator"
)

// tipKey is the literal key holding the dbBlock of the current main-chain
// tip in the blocks table.
const tipKey = "tip"

// EventHandler is called as the chain processes blocks and transactions, the
// bridge the caller uses to route engine activity into its own logging.
type EventHandler func(v string, args ...any)

// Config is the set of external collaborators and policy values a Chain is
// constructed from.
type Config struct {
	Store          kv.Store
	Consensus      consensus.Adapter
	Contract       contract.Runner
	Reward         reward.Schedule
	SelectStrategy string
	GenesisPath    string
	EvHandler      EventHandler
}

// Chain manages the best chain, the UTXO/STXO sets, and the mempool. All
// mutating public operations serialize on mu; within one operation the
// engine opens exactly one store transaction for its full extent.
type Chain struct {
	mu sync.Mutex

	store     kv.Store
	utxoIdx   *utxo.Index
	validator *validator.Validator
	consensus consensus.Adapter
	mempool   *mempool.Mempool
	reward    reward.Schedule
	evHandler EventHandler

	genesisBlockID id.ID
	tipID          id.ID
	tipHeight      uint64
}

// New constructs a Chain and runs loadChain against cfg.GenesisPath.
func New(cfg Config) (*Chain, error) {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	strategy := cfg.SelectStrategy
	if strategy == "" {
		strategy = selector.StrategyInsertion
	}

	mp, err := mempool.NewWithStrategy(strategy)
	if err != nil {
		return nil, fmt.Errorf("chain: construct mempool: %w", err)
	}

	c := &Chain{
		store:     cfg.Store,
		utxoIdx:   utxo.New(),
		validator: validator.New(cfg.Consensus, cfg.Contract),
		consensus: cfg.Consensus,
		mempool:   mp,
		reward:    cfg.Reward,
		evHandler: ev,
	}

	if err := c.loadChain(cfg.GenesisPath); err != nil {
		return nil, fmt.Errorf("chain: load: %w", err)
	}

	return c, nil
}

// loadChain sets the tip from the store if one already exists; otherwise it
// reads a genesis block from genesisPath, generating and persisting a fresh
// one from an ephemeral key pair if the file is absent, and applies it.
// Idempotent after first success.
func (c *Chain) loadChain(genesisPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mempool.Truncate()

	tx, err := c.store.Begin()
	if err != nil {
		return err
	}

	data, found, err := tx.Get(kv.Blocks, tipKey)
	if err != nil {
		tx.Abort()
		return err
	}
	if found {
		var tip ledger.DBBlock
		if err := json.Unmarshal(data, &tip); err != nil {
			tx.Abort()
			return fmt.Errorf("decode tip: %w", err)
		}

		tipID, err := tip.ID()
		if err != nil {
			tx.Abort()
			return err
		}

		c.tipID = tipID
		c.tipHeight = tip.Height

		genesisData, genesisFound, err := tx.Get(kv.Blocks, "1")
		if err != nil {
			tx.Abort()
			return err
		}
		if genesisFound {
			var genesisBlock ledger.DBBlock
			if err := json.Unmarshal(genesisData, &genesisBlock); err != nil {
				tx.Abort()
				return fmt.Errorf("decode genesis: %w", err)
			}
			if c.genesisBlockID, err = genesisBlock.ID(); err != nil {
				tx.Abort()
				return err
			}
		}

		return tx.Abort()
	}
	tx.Abort()

	block, err := genesis.Load(genesisPath)
	if err != nil {
		c.evHandler("chain: loadChain: no genesis at %s, generating: %s", genesisPath, err)

		generated, privateKey, genErr := genesis.Generate(c.reward)
		if genErr != nil {
			return genErr
		}
		if err := genesis.Save(genesisPath, generated); err != nil {
			return err
		}

		c.evHandler("chain: loadChain: generated genesis key: %s", signature.PublicKeyHex(privateKey))
		block = generated
	}

	ok, permanent := c.submitBlockLocked(block, true)
	if !ok {
		return fmt.Errorf("apply genesis block: permanent=%v", permanent)
	}

	return nil
}
