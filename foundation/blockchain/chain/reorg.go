package chain

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ardanlabs/ledger/foundation/blockchain/id"
	"github.com/ardanlabs/ledger/foundation/blockchain/kv"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
)

// reverseBlock is the inverse of the apply procedure for the current tip
// only: it unwinds the tip's coinbase and transactions, rewinds the blocks
// table to the tip's predecessor, and returns the tip's regular transactions
// for replay.
func (c *Chain) reverseBlock(tx kv.StoreTx) ([]ledger.Transaction, error) {
	tipData, found, err := tx.Get(kv.Blocks, c.tipID.String())
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("chain: reverseBlock: tip %s not found", c.tipID)
	}

	var tip ledger.DBBlock
	if err := json.Unmarshal(tipData, &tip); err != nil {
		return nil, err
	}

	coinbase, err := c.getTransaction(tx, tip.CoinbaseID)
	if err != nil {
		return nil, err
	}
	if err := c.revertOutputs(tx, coinbase); err != nil {
		return nil, err
	}
	if err := tx.Erase(kv.Transactions, tip.CoinbaseID.String()); err != nil {
		return nil, err
	}

	replay := make([]ledger.Transaction, 0, len(tip.TransactionIDs))
	for _, txID := range tip.TransactionIDs {
		transaction, err := c.getTransaction(tx, txID)
		if err != nil {
			return nil, err
		}

		if err := c.revertOutputs(tx, transaction); err != nil {
			return nil, err
		}

		for _, in := range transaction.Inputs {
			inID, err := in.ID()
			if err != nil {
				return nil, err
			}
			if err := tx.Erase(kv.Inputs, inID.String()); err != nil {
				return nil, err
			}
			if err := c.utxoIdx.RevertSpend(tx, in.OutputID, inID); err != nil {
				return nil, err
			}
		}

		if err := tx.Erase(kv.Transactions, txID.String()); err != nil {
			return nil, err
		}

		replay = append(replay, transaction)
	}

	if err := tx.Erase(kv.Blocks, strconv.FormatUint(tip.Height, 10)); err != nil {
		return nil, err
	}
	if err := tx.Erase(kv.Blocks, c.tipID.String()); err != nil {
		return nil, err
	}

	previousData, hasPrevious, err := tx.Get(kv.Blocks, tip.PreviousID.String())
	if err != nil {
		return nil, err
	}

	var previousHeight uint64
	if hasPrevious {
		if err := tx.Put(kv.Blocks, tipKey, previousData); err != nil {
			return nil, err
		}
		var previous ledger.DBBlock
		if err := json.Unmarshal(previousData, &previous); err != nil {
			return nil, err
		}
		previousHeight = previous.Height
	} else {
		if err := tx.Erase(kv.Blocks, tipKey); err != nil {
			return nil, err
		}
	}

	reversed := ledger.Block{
		Transactions:  replay,
		Coinbase:      coinbase,
		PreviousID:    tip.PreviousID,
		Timestamp:     tip.Timestamp,
		ConsensusData: tip.ConsensusData,
		Height:        tip.Height,
	}
	data, err := json.Marshal(reversed)
	if err != nil {
		return nil, err
	}
	if err := tx.Put(kv.Candidates, c.tipID.String(), data); err != nil {
		return nil, err
	}

	c.tipID = tip.PreviousID
	c.tipHeight = previousHeight

	return replay, nil
}

func (c *Chain) revertOutputs(tx kv.StoreTx, transaction ledger.Transaction) error {
	for _, out := range transaction.Outputs {
		outID, err := out.ID()
		if err != nil {
			return err
		}
		if err := c.utxoIdx.RevertOutput(tx, outID); err != nil {
			return err
		}
	}
	return nil
}

// reverseBlockOnce reverses the current tip under its own store transaction,
// rescans the mempool, commits, and then attempts to resubmit every
// unwound transaction; transactions that no longer validate are silently
// dropped.
func (c *Chain) reverseBlockOnce() error {
	tx, err := c.store.Begin()
	if err != nil {
		return err
	}

	replay, err := c.reverseBlock(tx)
	if err != nil {
		tx.Abort()
		return err
	}

	c.mempool.Rescan(tx, c.validator)

	if err := tx.Commit(); err != nil {
		return err
	}

	for _, transaction := range replay {
		c.submitTransactionLocked(transaction)
	}

	return nil
}

// reorgTo walks the candidates table from newTipID backward along
// previousId until it leaves candidates, reverses the current tip down to
// that fork point, then resubmits the candidate branch from the fork point
// forward. Any resubmission failure aborts the reorg; the chain does not
// roll forward to the original branch on failure.
func (c *Chain) reorgTo(newTipID id.ID) (bool, bool) {
	tx, err := c.store.Begin()
	if err != nil {
		return false, false
	}

	var stack []ledger.Block
	cur := newTipID
	for {
		data, found, err := tx.Get(kv.Candidates, cur.String())
		if err != nil {
			tx.Abort()
			return false, false
		}
		if !found {
			break
		}

		var block ledger.Block
		if err := json.Unmarshal(data, &block); err != nil {
			tx.Abort()
			return false, true
		}
		stack = append(stack, block)
		cur = block.PreviousID
	}
	forkPoint := cur
	tx.Abort()

	for !c.tipID.Equal(forkPoint) {
		if err := c.reverseBlockOnce(); err != nil {
			return false, false
		}
	}

	for i := len(stack) - 1; i >= 0; i-- {
		if ok, permanent := c.submitBlockLocked(stack[i], false); !ok {
			return false, permanent
		}
	}

	return true, false
}
