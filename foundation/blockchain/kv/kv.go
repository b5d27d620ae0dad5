// Package kv defines the storage façade the ledger engine is built against:
// a transactional ordered key/value store with a per-table secondary index
// used for per-owner output collections. Concrete stores (kv/memkv,
// kv/leveldb) are external collaborators consumed through this contract; the
// engine never depends on a specific backend.
package kv

// Table names one of the six logical tables the engine persists.
type Table string

// The six logical tables named by the ledger's persisted state layout.
const (
	Blocks       Table = "blocks"
	Transactions Table = "transactions"
	UTXOs        Table = "utxos"
	STXOs        Table = "stxos"
	Inputs       Table = "inputs"
	Candidates   Table = "candidates"
)

// OwnerIndex is the well-known secondary index (subindex 0 in spec terms)
// holding, per table, the list of output ids owned by a given public key.
const OwnerIndex = 0

// Store opens transactions against the underlying key/value engine.
type Store interface {
	Begin() (StoreTx, error)
	Close() error
}

// StoreTx is a single ACID transaction. All engine mutations occur inside
// exactly one StoreTx; Commit happens once, at the top of each public
// submission, and only if the operation succeeded.
type StoreTx interface {
	// Get looks up key in table. found is false if no value is present.
	Get(table Table, key string) (value []byte, found bool, err error)

	// Put writes value for key in table.
	Put(table Table, key string, value []byte) error

	// Erase removes key from table.
	Erase(table Table, key string) error

	// IndexList returns the secondary-index list stored under owner in
	// table's index-th index.
	IndexList(table Table, index int, owner string) ([]string, error)

	// IndexAppend appends member to the secondary-index list under owner,
	// unless it is already present.
	IndexAppend(table Table, index int, owner, member string) error

	// IndexRemove removes member from the secondary-index list under owner.
	// It is a no-op if member is absent.
	IndexRemove(table Table, index int, owner, member string) error

	// Commit persists every mutation performed on this transaction.
	Commit() error

	// Abort discards every mutation performed on this transaction.
	Abort() error
}
