package chain

import (
	"encoding/json"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/ardanlabs/ledger/foundation/blockchain/apperr"
	"github.com/ardanlabs/ledger/foundation/blockchain/id"
	"github.com/ardanlabs/ledger/foundation/blockchain/kv"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
	"github.com/google/uuid"
)

// SubmitBlock classifies block against the store and, for EXTENSION,
// FORK_WINNING, and GENESIS states, runs the full-apply procedure.
// FORK_LOSING blocks are persisted to candidates only.
func (c *Chain) SubmitBlock(block ledger.Block, isGenesis bool) (ok bool, permanent bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	traceID := uuid.NewString()
	c.evHandler("chain: submitBlock: started: traceid[%s]", traceID)
	ok, permanent = c.submitBlockLocked(block, isGenesis)
	c.evHandler("chain: submitBlock: completed: traceid[%s]: ok[%t] permanent[%t]", traceID, ok, permanent)

	return ok, permanent
}

func (c *Chain) submitBlockLocked(block ledger.Block, isGenesis bool) (bool, bool) {
	blockID, err := block.ID()
	if err != nil {
		return false, true
	}

	tx, err := c.store.Begin()
	if err != nil {
		return false, false
	}

	if _, found, err := tx.Get(kv.Blocks, blockID.String()); err != nil {
		tx.Abort()
		return false, false
	} else if found {
		// ALREADY_KNOWN.
		tx.Abort()
		return true, false
	}

	if isGenesis {
		block.Height = 1
		ok, permanent := c.fullApply(tx, block, blockID, 1, ledger.DBBlock{})
		return c.finishApply(tx, ok, permanent, blockID, 1)
	}

	previous, found, err := c.locatePrevious(tx, block.PreviousID)
	if err != nil {
		tx.Abort()
		return false, false
	}
	if !found {
		// DETACHED.
		tx.Abort()
		return false, true
	}

	height := previous.Height + 1
	block.Height = height

	if block.PreviousID.Equal(c.tipID) {
		// EXTENSION.
		ok, permanent := c.fullApply(tx, block, blockID, height, previous)
		return c.finishApply(tx, ok, permanent, blockID, height)
	}

	currentTip, err := c.materializeBlock(tx, c.tipID)
	if err != nil {
		tx.Abort()
		return false, false
	}

	if c.consensus == nil || !c.consensus.IsBlockBetter(tx, block, currentTip) {
		// FORK_LOSING.
		ok, permanent := c.saveCandidate(tx, block, blockID, height)
		if !ok {
			tx.Abort()
			return false, permanent
		}
		if err := tx.Commit(); err != nil {
			return false, false
		}
		return true, false
	}

	// FORK_WINNING: abort this probe transaction, reorg onto the parent
	// branch as its own sequence of committed operations, then re-enter as
	// what will now classify as an EXTENSION.
	tx.Abort()

	if ok, permanent := c.reorgTo(block.PreviousID); !ok {
		return false, permanent
	}

	return c.submitBlockLocked(block, false)
}

// finishApply commits tx if ok, aborting and returning the verdict
// otherwise, and only then updates the in-memory tip cache — never before a
// commit has actually succeeded.
func (c *Chain) finishApply(tx kv.StoreTx, ok, permanent bool, blockID id.ID, height uint64) (bool, bool) {
	if !ok {
		tx.Abort()
		return false, permanent
	}

	if err := tx.Commit(); err != nil {
		return false, false
	}

	c.tipID = blockID
	c.tipHeight = height
	if height == 1 {
		c.genesisBlockID = blockID
	}

	return true, false
}

// fullApply runs the seven-step apply procedure against an already-opened
// store transaction. It never commits or aborts tx; the caller does.
func (c *Chain) fullApply(tx kv.StoreTx, block ledger.Block, blockID id.ID, height uint64, previous ledger.DBBlock) (bool, bool) {
	if c.consensus != nil && !c.consensus.CheckConsensusRules(tx, block, previous) {
		return false, true
	}

	if !c.validateTransactionsConcurrently(tx, block.Transactions) {
		return false, true
	}

	var fees uint64
	for _, transaction := range block.Transactions {
		fee, err := c.validator.CalculateTransactionFee(tx, transaction)
		if err != nil {
			return false, true
		}
		fees += fee
	}

	if ok, _ := c.validator.VerifyTransaction(tx, block.Coinbase, true); !ok {
		return false, true
	}
	if block.Coinbase.OutputTotal() > fees+c.reward.BlockReward(height) {
		return false, true
	}

	if c.consensus != nil && !c.consensus.SubmitBlock(tx, block) {
		return false, true
	}

	if err := c.confirmTransaction(tx, block.Coinbase, blockID, true); err != nil {
		return false, false
	}
	for _, transaction := range block.Transactions {
		if err := c.confirmTransaction(tx, transaction, blockID, false); err != nil {
			return false, false
		}
	}

	if err := tx.Erase(kv.Candidates, blockID.String()); err != nil {
		return false, false
	}

	dbBlock, err := block.DBBlock()
	if err != nil {
		return false, true
	}
	data, err := json.Marshal(dbBlock)
	if err != nil {
		return false, true
	}

	if err := tx.Put(kv.Blocks, blockID.String(), data); err != nil {
		return false, false
	}
	if err := tx.Put(kv.Blocks, tipKey, data); err != nil {
		return false, false
	}
	if err := tx.Put(kv.Blocks, strconv.FormatUint(height, 10), data); err != nil {
		return false, false
	}

	c.mempool.Rescan(tx, c.validator)

	return true, false
}

// validateTransactionsConcurrently fans non-coinbase transaction validation
// out to workers sized to hardware concurrency and awaits all of them at a
// barrier; any failure is the block's verdict. Workers only read tx.
func (c *Chain) validateTransactionsConcurrently(tx kv.StoreTx, transactions []ledger.Transaction) bool {
	if len(transactions) == 0 {
		return true
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(transactions) {
		workers = len(transactions)
	}

	jobs := make(chan ledger.Transaction)
	var failed atomic.Bool

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for transaction := range jobs {
				if ok, _ := c.validator.VerifyTransaction(tx, transaction, false); !ok {
					failed.Store(true)
				}
			}
		}()
	}

	for _, transaction := range transactions {
		jobs <- transaction
	}
	close(jobs)
	wg.Wait()

	return !failed.Load()
}

// confirmTransaction applies a validated transaction's side effects:
// consensus's best-effort hook, input/output bookkeeping in the UTXO index,
// the transactions record, and mempool removal.
func (c *Chain) confirmTransaction(tx kv.StoreTx, transaction ledger.Transaction, blockID id.ID, isCoinbase bool) error {
	if c.consensus != nil && !c.consensus.ConfirmTransaction(tx, transaction) {
		c.evHandler("chain: confirmTransaction: consensus hook declined, continuing")
	}

	txID, err := transaction.ID()
	if err != nil {
		return err
	}

	for _, in := range transaction.Inputs {
		if err := c.utxoIdx.SpendOutput(tx, in.OutputID, in, txID); err != nil {
			return err
		}
	}

	for _, out := range transaction.Outputs {
		if err := c.utxoIdx.CreateOutput(tx, out, txID); err != nil {
			return err
		}
	}

	data, err := json.Marshal(ledger.DBTransaction{Transaction: transaction, BlockID: blockID})
	if err != nil {
		return err
	}
	if err := tx.Put(kv.Transactions, txID.String(), data); err != nil {
		return err
	}

	c.mempool.Remove(transaction)

	return nil
}

// saveCandidate persists block, with height injected, to candidates without
// any UTXO mutation: the FORK_LOSING case.
func (c *Chain) saveCandidate(tx kv.StoreTx, block ledger.Block, blockID id.ID, height uint64) (bool, bool) {
	block.Height = height

	data, err := json.Marshal(block)
	if err != nil {
		return false, true
	}
	if err := tx.Put(kv.Candidates, blockID.String(), data); err != nil {
		return false, false
	}

	return true, false
}

// locatePrevious resolves prevID against blocks then candidates, normalizing
// either representation to a DBBlock. Candidates are stored as full blocks
// (see reorgTo), since a FORK_LOSING block's transactions are never written
// to the transactions table and must stay self-contained for a later reorg.
func (c *Chain) locatePrevious(tx kv.StoreTx, prevID id.ID) (ledger.DBBlock, bool, error) {
	if data, found, err := tx.Get(kv.Blocks, prevID.String()); err != nil {
		return ledger.DBBlock{}, false, err
	} else if found {
		var db ledger.DBBlock
		if err := json.Unmarshal(data, &db); err != nil {
			return ledger.DBBlock{}, false, err
		}
		return db, true, nil
	}

	data, found, err := tx.Get(kv.Candidates, prevID.String())
	if err != nil {
		return ledger.DBBlock{}, false, err
	}
	if !found {
		return ledger.DBBlock{}, false, nil
	}

	var block ledger.Block
	if err := json.Unmarshal(data, &block); err != nil {
		return ledger.DBBlock{}, false, err
	}

	db, err := block.DBBlock()
	if err != nil {
		return ledger.DBBlock{}, false, err
	}
	return db, true, nil
}

// materializeBlock rebuilds a full Block from the blocks table entry at
// blockID, rejoining its coinbase and transactions against the transactions
// table. Only valid for main-chain blocks, whose transactions were written
// by confirmTransaction.
func (c *Chain) materializeBlock(tx kv.StoreTx, blockID id.ID) (ledger.Block, error) {
	data, found, err := tx.Get(kv.Blocks, blockID.String())
	if err != nil {
		return ledger.Block{}, err
	}
	if !found {
		return ledger.Block{}, apperr.NotFound("block", blockID.String())
	}

	var db ledger.DBBlock
	if err := json.Unmarshal(data, &db); err != nil {
		return ledger.Block{}, err
	}

	coinbase, err := c.getTransaction(tx, db.CoinbaseID)
	if err != nil {
		return ledger.Block{}, err
	}

	transactions := make([]ledger.Transaction, 0, len(db.TransactionIDs))
	for _, txID := range db.TransactionIDs {
		transaction, err := c.getTransaction(tx, txID)
		if err != nil {
			return ledger.Block{}, err
		}
		transactions = append(transactions, transaction)
	}

	return ledger.Block{
		Transactions:  transactions,
		Coinbase:      coinbase,
		PreviousID:    db.PreviousID,
		Timestamp:     db.Timestamp,
		ConsensusData: db.ConsensusData,
		Height:        db.Height,
	}, nil
}

func (c *Chain) getTransaction(tx kv.StoreTx, txID id.ID) (ledger.Transaction, error) {
	data, found, err := tx.Get(kv.Transactions, txID.String())
	if err != nil {
		return ledger.Transaction{}, err
	}
	if !found {
		return ledger.Transaction{}, apperr.NotFound("transaction", txID.String())
	}

	var dbTx ledger.DBTransaction
	if err := json.Unmarshal(data, &dbTx); err != nil {
		return ledger.Transaction{}, err
	}
	return dbTx.Transaction, nil
}
