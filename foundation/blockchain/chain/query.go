package chain

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/apperr"
	"github.com/ardanlabs/ledger/foundation/blockchain/id"
	"github.com/ardanlabs/ledger/foundation/blockchain/kv"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
)

// GetBlock returns the block identified by blockID, rejoined against the
// transactions table.
func (c *Chain) GetBlock(blockID id.ID) (ledger.Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.store.Begin()
	if err != nil {
		return ledger.Block{}, err
	}
	defer tx.Abort()

	return c.materializeBlock(tx, blockID)
}

// GetBlockByHeight returns the main-chain block at height.
func (c *Chain) GetBlockByHeight(height uint64) (ledger.Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.store.Begin()
	if err != nil {
		return ledger.Block{}, err
	}
	defer tx.Abort()

	key := strconv.FormatUint(height, 10)
	data, found, err := tx.Get(kv.Blocks, key)
	if err != nil {
		return ledger.Block{}, err
	}
	if !found {
		return ledger.Block{}, apperr.NotFound("block", key)
	}

	var db ledger.DBBlock
	if err := json.Unmarshal(data, &db); err != nil {
		return ledger.Block{}, err
	}

	blockID, err := db.ID()
	if err != nil {
		return ledger.Block{}, err
	}

	return c.materializeBlock(tx, blockID)
}

// GetTransaction returns the confirmed transaction identified by txID.
func (c *Chain) GetTransaction(txID id.ID) (ledger.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.store.Begin()
	if err != nil {
		return ledger.Transaction{}, err
	}
	defer tx.Abort()

	return c.getTransaction(tx, txID)
}

// GetOutput returns the output identified by outID, searching the unspent
// set then the spent set.
func (c *Chain) GetOutput(outID id.ID) (ledger.DBOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.store.Begin()
	if err != nil {
		return ledger.DBOutput{}, err
	}
	defer tx.Abort()

	return c.utxoIdx.GetOutput(tx, outID)
}

// GetUnspentOutputs returns every currently unspent output owned by
// publicKey.
func (c *Chain) GetUnspentOutputs(publicKey string) ([]ledger.DBOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.store.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Abort()

	return c.utxoIdx.UnspentByOwner(tx, publicKey)
}

// GetSpentOutputs returns every spent output owned by publicKey.
func (c *Chain) GetSpentOutputs(publicKey string) ([]ledger.DBOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.store.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Abort()

	return c.utxoIdx.SpentByOwner(tx, publicKey)
}

// GetUnconfirmedTransactions returns every transaction currently held by
// the mempool.
func (c *Chain) GetUnconfirmedTransactions() []ledger.Transaction {
	return c.mempool.Transactions()
}

// MempoolCount returns the number of transactions held by the mempool.
func (c *Chain) MempoolCount() int {
	return c.mempool.Count()
}

// MempoolSize returns the cumulative canonical byte size of the mempool's
// contents.
func (c *Chain) MempoolSize() int {
	return c.mempool.Size()
}

// TipHeight returns the height of the current main-chain tip.
func (c *Chain) TipHeight() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.tipHeight
}

// TipID returns the id of the current main-chain tip.
func (c *Chain) TipID() id.ID {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.tipID
}

// GenesisBlockID returns the id of the chain's genesis block.
func (c *Chain) GenesisBlockID() id.ID {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.genesisBlockID
}

// GenerateVerifyingBlock produces an unsigned candidate block built on the
// current tip, with the mempool's current selection, a coinbase paying
// blockReward(height) plus the selection's fees to publicKey, a timestamp
// of now, and consensus data produced by the adapter.
func (c *Chain) GenerateVerifyingBlock(publicKey string) (ledger.Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.store.Begin()
	if err != nil {
		return ledger.Block{}, err
	}
	defer tx.Abort()

	height := c.tipHeight + 1
	transactions := c.mempool.Selection()

	var fees uint64
	for _, transaction := range transactions {
		fee, err := c.validator.CalculateTransactionFee(tx, transaction)
		if err != nil {
			return ledger.Block{}, err
		}
		fees += fee
	}

	var consensusData map[string]any
	if c.consensus != nil {
		consensusData = c.consensus.GenerateConsensusData(tx, c.tipID.String(), publicKey)
	}

	coinbase := ledger.Transaction{
		Outputs: []ledger.Output{
			{
				Value: c.reward.BlockReward(height) + fees,
				Data:  map[string]any{"publicKey": publicKey},
			},
		},
		Timestamp: time.Now().UTC().UnixMilli(),
		Coinbase:  true,
	}

	return ledger.Block{
		Transactions:  transactions,
		Coinbase:      coinbase,
		PreviousID:    c.tipID,
		Timestamp:     coinbase.Timestamp,
		ConsensusData: consensusData,
		Height:        height,
	}, nil
}

// GetTxHandle returns a fresh store transaction while the chain lock is
// held, for external read-only collaborators that need a consistent view.
// The caller owns tx and must call release to release the chain lock;
// release does not commit or abort tx, which the caller ends itself.
// Failing to call release deadlocks every other public operation (see the
// design notes on this contract's locking leak).
func (c *Chain) GetTxHandle() (kv.StoreTx, func(), error) {
	c.mu.Lock()

	tx, err := c.store.Begin()
	if err != nil {
		c.mu.Unlock()
		return nil, nil, err
	}

	var once sync.Once
	release := func() {
		once.Do(c.mu.Unlock)
	}

	return tx, release, nil
}
