package cmd

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/chain"
	"github.com/ardanlabs/ledger/foundation/blockchain/kv/leveldb"
)

// openChain opens the store at --db and wraps it in a Chain for read/submit
// access. It carries no consensus adapter or contract runner of its own,
// since this tool only reads state and submits already-assembled
// transactions; the node process owns block production.
func openChain() (*chain.Chain, func() error, error) {
	store, err := leveldb.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store %s: %w", dbPath, err)
	}

	ldgr, err := chain.New(chain.Config{
		Store:       store,
		GenesisPath: "zblock/genesis.json",
	})
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("constructing chain: %w", err)
	}

	return ldgr, store.Close, nil
}
