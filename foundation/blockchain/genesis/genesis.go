// Package genesis loads and generates the ledger's genesis block, grounded
// on the teacher's genesis package (os.ReadFile + json.Unmarshal of a fixed
// path), generalized from a balances document into the spec's "single
// document containing a complete block."
package genesis

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
	"github.com/ardanlabs/ledger/foundation/blockchain/reward"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// Load reads and decodes the genesis block from path. It returns an error
// if the file is absent; the caller (Chain.loadChain) is responsible for
// falling back to Generate.
func Load(path string) (ledger.Block, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return ledger.Block{}, err
	}

	var block ledger.Block
	if err := json.Unmarshal(content, &block); err != nil {
		return ledger.Block{}, fmt.Errorf("genesis: decode %s: %w", path, err)
	}

	return block, nil
}

// Generate produces a fresh genesis block paying the reward for height 1 to
// a newly created ephemeral key pair, since no deployment key is available
// on first launch.
func Generate(schedule reward.Schedule) (ledger.Block, *ecdsa.PrivateKey, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return ledger.Block{}, nil, fmt.Errorf("genesis: generate key: %w", err)
	}

	coinbase := ledger.Transaction{
		Outputs: []ledger.Output{
			{
				Value: schedule.BlockReward(1),
				Data: map[string]any{
					"publicKey": signature.PublicKeyHex(privateKey),
				},
			},
		},
		Timestamp: time.Now().UTC().UnixMilli(),
		Coinbase:  true,
	}

	block := ledger.Block{
		Coinbase:  coinbase,
		Timestamp: coinbase.Timestamp,
		Height:    1,
	}

	return block, privateKey, nil
}

// Save encodes block and writes it to path, creating parent directories as
// needed.
func Save(path string, block ledger.Block) error {
	data, err := json.MarshalIndent(block, "", "  ")
	if err != nil {
		return fmt.Errorf("genesis: encode: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("genesis: create directory for %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("genesis: write %s: %w", path, err)
	}

	return nil
}
