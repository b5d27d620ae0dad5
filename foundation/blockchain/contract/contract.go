// Package contract defines the script/contract evaluator boundary the
// Validator calls at step 7 of verifyTransaction. The engine treats script
// semantics as an external collaborator, per the ledger's non-goals; it
// only ever calls Run and reacts to its boolean verdict.
package contract

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/kv"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
)

// Runner evaluates any contract scripts referenced by a transaction's
// inputs or outputs. It returns false to reject the transaction as
// malformed (permanent=true at the validator).
type Runner interface {
	Run(tx kv.StoreTx, transaction ledger.Transaction) (bool, error)
}
