// Package poa implements a proof-of-authority consensus.Adapter, grounded
// on the teacher's poa package (fnv-hash round-robin selection over a
// registry of node names), generalized from node names to an ordered set of
// authorized public keys and from a single fixed block shape to the
// engine's coinbase-carries-signer convention.
package poa

import (
	"hash/fnv"
	"sort"

	"github.com/ardanlabs/ledger/foundation/blockchain/kv"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
)

// Adapter restricts block authorship to a fixed, sorted set of authorized
// public keys, selecting the one permitted to author each height by hashing
// the block's previous id, the same round-robin idiom as the teacher's
// node.selection.
type Adapter struct {
	authorities []string
}

// New constructs an Adapter authorizing exactly the given public keys.
func New(authorities []string) *Adapter {
	sorted := append([]string(nil), authorities...)
	sort.Strings(sorted)
	return &Adapter{authorities: sorted}
}

// VerifyTransaction applies no additional policy beyond the engine's own
// transaction rules.
func (a *Adapter) VerifyTransaction(tx kv.StoreTx, transaction ledger.Transaction) bool {
	return true
}

// CheckConsensusRules requires the block's coinbase to name the authority
// selected for its previous id.
func (a *Adapter) CheckConsensusRules(tx kv.StoreTx, block ledger.Block, previous ledger.DBBlock) bool {
	if len(a.authorities) == 0 {
		return true
	}

	publicKey, ok := coinbasePublicKey(block)
	if !ok {
		return false
	}

	return publicKey == a.selection(block.PreviousID.String())
}

// IsBlockBetter prefers greater height; proof-of-authority has no
// competing-difficulty notion.
func (a *Adapter) IsBlockBetter(tx kv.StoreTx, candidate, currentTip ledger.Block) bool {
	return candidate.Height > currentTip.Height
}

// SubmitBlock performs no further gating beyond CheckConsensusRules.
func (a *Adapter) SubmitBlock(tx kv.StoreTx, block ledger.Block) bool {
	return true
}

// ConfirmTransaction has no best-effort work to do for proof-of-authority.
func (a *Adapter) ConfirmTransaction(tx kv.StoreTx, transaction ledger.Transaction) bool {
	return true
}

// GenerateConsensusData records the signer a freshly assembled block will
// be authored by. CheckConsensusRules does not read this field; it checks
// the coinbase's public key against the selected authority.
func (a *Adapter) GenerateConsensusData(tx kv.StoreTx, previousID string, publicKey string) map[string]any {
	return map[string]any{"signer": publicKey}
}

// selection picks the authority responsible for the block following
// previousID: fnv32a(previousID) mod len(authorities), into the
// lexicographically sorted authority list.
func (a *Adapter) selection(previousID string) string {
	h := fnv.New32a()
	h.Write([]byte(previousID))
	index := h.Sum32() % uint32(len(a.authorities))
	return a.authorities[index]
}

func coinbasePublicKey(block ledger.Block) (string, bool) {
	if len(block.Coinbase.Outputs) == 0 {
		return "", false
	}
	return block.Coinbase.Outputs[0].PublicKey()
}
