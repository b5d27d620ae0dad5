// Package consensus defines the pluggable consensus adapter boundary
// interface the Chain manager and Validator call into. The engine models
// consensus as a capability set behind this interface; it never interprets
// consensus data beyond storing it.
package consensus

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/kv"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
)

// Adapter is the capability set a consensus policy must implement.
type Adapter interface {
	// VerifyTransaction applies policy-specific transaction rules.
	VerifyTransaction(tx kv.StoreTx, transaction ledger.Transaction) bool

	// CheckConsensusRules applies policy-specific block rules, given the
	// block's immediate predecessor.
	CheckConsensusRules(tx kv.StoreTx, block ledger.Block, previous ledger.DBBlock) bool

	// IsBlockBetter reports whether candidate should replace currentTip as
	// the chain's best block; a total fork-choice order.
	IsBlockBetter(tx kv.StoreTx, candidate, currentTip ledger.Block) bool

	// SubmitBlock is a last-chance acceptance hook before a block's side
	// effects are applied.
	SubmitBlock(tx kv.StoreTx, block ledger.Block) bool

	// ConfirmTransaction is a best-effort hook called during confirmation;
	// its failure is logged but never aborts the apply.
	ConfirmTransaction(tx kv.StoreTx, transaction ledger.Transaction) bool

	// GenerateConsensusData produces the opaque document a freshly
	// assembled block should carry, given its previous block id and the
	// public key of the party assembling it.
	GenerateConsensusData(tx kv.StoreTx, previousID string, publicKey string) map[string]any
}
