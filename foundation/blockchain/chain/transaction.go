package chain

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
	"github.com/google/uuid"
)

// SubmitTransaction validates transaction against a fresh store transaction
// and, on success, inserts it into the mempool. The store transaction is
// read-only; it is committed on success and aborted on any failure, purely
// to mirror the public operation's commit-iff-ok contract.
func (c *Chain) SubmitTransaction(transaction ledger.Transaction) (ok bool, permanent bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	traceID := uuid.NewString()
	c.evHandler("chain: submitTransaction: started: traceid[%s]", traceID)
	ok, permanent = c.submitTransactionLocked(transaction)
	c.evHandler("chain: submitTransaction: completed: traceid[%s]: ok[%t] permanent[%t]", traceID, ok, permanent)

	return ok, permanent
}

func (c *Chain) submitTransactionLocked(transaction ledger.Transaction) (bool, bool) {
	tx, err := c.store.Begin()
	if err != nil {
		return false, false
	}

	ok, permanent := c.validator.VerifyTransaction(tx, transaction, false)
	if !ok {
		tx.Abort()
		return false, permanent
	}

	fee, err := c.validator.CalculateTransactionFee(tx, transaction)
	if err != nil {
		tx.Abort()
		return false, false
	}

	inserted, err := c.mempool.Insert(transaction, fee)
	if err != nil || !inserted {
		tx.Abort()
		return false, false
	}

	if err := tx.Commit(); err != nil {
		c.mempool.Remove(transaction)
		return false, false
	}

	return true, false
}
