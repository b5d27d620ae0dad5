// Package mempool maintains the set of unconfirmed transactions, grounded
// on the teacher's mempool package (mutex-guarded map plus a pluggable
// named selection strategy), generalized from account:nonce keys to the
// UTXO model's input/output conflict rules.
package mempool

import (
	"sort"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/kv"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool/selector"
)

// maxSelectionBytes is the hard pre-consensus cap on a selection's
// cumulative canonical size: 3.9 MiB.
const maxSelectionBytes = int(3.9 * 1024 * 1024)

// Validator is the subset of validator.Validator the mempool needs to
// rescan its contents after a main-chain mutation.
type Validator interface {
	VerifyTransaction(tx kv.StoreTx, transaction ledger.Transaction, isCoinbase bool) (ok bool, permanent bool)
}

// Mempool holds unconfirmed transactions plus inverted indexes over their
// inputs and outputs, used to reject conflicting insertions in O(1).
type Mempool struct {
	mu       sync.Mutex
	txs      map[string]ledger.Transaction
	order    map[string]int
	inputs   map[string]string // inputId -> txId
	outputs  map[string]string // outputId -> txId (produced or consumed)
	fees     map[string]uint64
	bytes    int
	seq      int
	selectFn selector.Func
}

// New constructs a Mempool using the insertion-order strategy.
func New() (*Mempool, error) {
	return NewWithStrategy(selector.StrategyInsertion)
}

// NewWithStrategy constructs a Mempool using the named selection strategy.
func NewWithStrategy(strategy string) (*Mempool, error) {
	fn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	return &Mempool{
		txs:      make(map[string]ledger.Transaction),
		order:    make(map[string]int),
		inputs:   make(map[string]string),
		outputs:  make(map[string]string),
		fees:     make(map[string]uint64),
		selectFn: fn,
	}, nil
}

// Count returns the number of transactions currently held.
func (mp *Mempool) Count() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	return len(mp.txs)
}

// Size returns the cumulative canonical byte size of held transactions.
func (mp *Mempool) Size() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	return mp.bytes
}

// Transactions returns every unconfirmed transaction currently held.
func (mp *Mempool) Transactions() []ledger.Transaction {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	out := make([]ledger.Transaction, 0, len(mp.txs))
	for _, tx := range mp.txs {
		out = append(out, tx)
	}
	return out
}

// Insert indexes tx and accounts for its byte size, rejecting conflicting
// transactions per §4.3. fee is the transaction's already-computed fee,
// used by the fee-density selection strategy.
func (mp *Mempool) Insert(tx ledger.Transaction, fee uint64) (bool, error) {
	txID, err := tx.ID()
	if err != nil {
		return false, err
	}
	key := txID.String()

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.txs[key]; exists {
		return false, nil
	}

	for _, in := range tx.Inputs {
		inID, err := in.ID()
		if err != nil {
			return false, err
		}
		if _, conflict := mp.inputs[inID.String()]; conflict {
			return false, nil
		}
		if _, conflict := mp.outputs[in.OutputID.String()]; conflict {
			return false, nil
		}
	}

	outIDs, err := tx.OutputIDs()
	if err != nil {
		return false, err
	}
	for _, outID := range outIDs {
		if _, conflict := mp.outputs[outID.String()]; conflict {
			return false, nil
		}
	}

	for _, in := range tx.Inputs {
		inID, err := in.ID()
		if err != nil {
			return false, err
		}
		mp.inputs[inID.String()] = key
		mp.outputs[in.OutputID.String()] = key
	}
	for _, outID := range outIDs {
		mp.outputs[outID.String()] = key
	}

	mp.txs[key] = tx
	mp.order[key] = mp.seq
	mp.fees[key] = fee
	mp.seq++
	mp.bytes += tx.CanonicalSize()

	return true, nil
}

// Remove is idempotent: it tears down every index entry for tx, if present.
func (mp *Mempool) Remove(tx ledger.Transaction) error {
	txID, err := tx.ID()
	if err != nil {
		return err
	}
	key := txID.String()

	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.removeLocked(key)
	return nil
}

func (mp *Mempool) removeLocked(key string) {
	tx, exists := mp.txs[key]
	if !exists {
		return
	}

	for _, in := range tx.Inputs {
		if inID, err := in.ID(); err == nil {
			delete(mp.inputs, inID.String())
		}
		delete(mp.outputs, in.OutputID.String())
	}
	if outIDs, err := tx.OutputIDs(); err == nil {
		for _, outID := range outIDs {
			delete(mp.outputs, outID.String())
		}
	}

	mp.bytes -= tx.CanonicalSize()
	delete(mp.txs, key)
	delete(mp.order, key)
	delete(mp.fees, key)
}

// Rescan re-runs VerifyTransaction against the current store state for
// every held transaction and removes those that no longer validate. Called
// exactly after any change to the main chain.
func (mp *Mempool) Rescan(tx kv.StoreTx, v Validator) {
	mp.mu.Lock()
	stale := make([]string, 0)
	for key, mtx := range mp.txs {
		if ok, _ := v.VerifyTransaction(tx, mtx, false); !ok {
			stale = append(stale, key)
		}
	}
	for _, key := range stale {
		mp.removeLocked(key)
	}
	mp.mu.Unlock()
}

// Truncate clears every transaction from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.txs = make(map[string]ledger.Transaction)
	mp.order = make(map[string]int)
	mp.inputs = make(map[string]string)
	mp.outputs = make(map[string]string)
	mp.fees = make(map[string]uint64)
	mp.bytes = 0
	mp.seq = 0
}

// Selection returns a deterministic subset, ordered by the configured
// strategy, whose cumulative byte size is strictly less than 3.9 MiB; it
// stops at the first transaction that would exceed the bound.
func (mp *Mempool) Selection() []ledger.Transaction {
	mp.mu.Lock()
	candidates := make([]selector.Candidate, 0, len(mp.txs))
	for key, tx := range mp.txs {
		candidates = append(candidates, selector.Candidate{
			Tx:    tx,
			ID:    key,
			Fee:   mp.fees[key],
			Size:  tx.CanonicalSize(),
			Order: mp.order[key],
		})
	}
	mp.mu.Unlock()

	// Stabilize iteration order before handing off to the strategy, since
	// map iteration order is random in Go.
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Order < candidates[j].Order })

	ordered := mp.selectFn(candidates)

	var total int
	out := make([]ledger.Transaction, 0, len(ordered))
	for _, c := range ordered {
		if total+c.Size >= maxSelectionBytes {
			break
		}
		total += c.Size
		out = append(out, c.Tx)
	}
	return out
}
