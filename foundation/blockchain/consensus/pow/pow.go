// Package pow implements a proof-of-work consensus.Adapter, grounded on the
// teacher's database.POW/performPOW (difficulty-as-leading-zeros, brute
// force nonce search) and isHashSolved, generalized from the teacher's
// fixed BlockHeader.Nonce/Difficulty fields to the engine's opaque
// consensusData document.
package pow

import (
	"strings"

	"github.com/ardanlabs/ledger/foundation/blockchain/kv"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
)

// Adapter enforces that every block's id, once consensusData's nonce is
// fixed, begins with as many hex zeros as the difficulty the block itself
// announces in consensusData, and that difficulty never decreases along the
// main chain. Difficulty is only the value GenerateConsensusData announces
// for new blocks; the checks do not compare blocks against it.
type Adapter struct {
	Difficulty uint
}

// New constructs an Adapter that announces difficulty leading hex zeros for
// the blocks it generates consensus data for.
func New(difficulty uint) *Adapter {
	return &Adapter{Difficulty: difficulty}
}

// VerifyTransaction applies no additional policy beyond the engine's own
// transaction rules.
func (a *Adapter) VerifyTransaction(tx kv.StoreTx, transaction ledger.Transaction) bool {
	return true
}

// CheckConsensusRules requires block's difficulty to be at least previous's,
// and the block's id, given its carried nonce, to solve the puzzle.
func (a *Adapter) CheckConsensusRules(tx kv.StoreTx, block ledger.Block, previous ledger.DBBlock) bool {
	difficulty := difficultyOf(block.ConsensusData)

	if previous.Height > 0 && difficulty < difficultyOf(previous.ConsensusData) {
		return false
	}

	blockID, err := block.ID()
	if err != nil {
		return false
	}
	return isHashSolved(difficulty, blockID.String())
}

// IsBlockBetter prefers greater height, then greater difficulty: a simple
// total-work ordering over the candidate's announced difficulty.
func (a *Adapter) IsBlockBetter(tx kv.StoreTx, candidate, currentTip ledger.Block) bool {
	if candidate.Height != currentTip.Height {
		return candidate.Height > currentTip.Height
	}
	return difficultyOf(candidate.ConsensusData) > difficultyOf(currentTip.ConsensusData)
}

// SubmitBlock re-checks the puzzle as a last-chance gate.
func (a *Adapter) SubmitBlock(tx kv.StoreTx, block ledger.Block) bool {
	blockID, err := block.ID()
	if err != nil {
		return false
	}
	return isHashSolved(difficultyOf(block.ConsensusData), blockID.String())
}

// ConfirmTransaction has no best-effort work to do for proof-of-work.
func (a *Adapter) ConfirmTransaction(tx kv.StoreTx, transaction ledger.Transaction) bool {
	return true
}

// GenerateConsensusData seeds the starting point for a miner: the required
// difficulty and a zero nonce, to be incremented by Solve.
func (a *Adapter) GenerateConsensusData(tx kv.StoreTx, previousID string, publicKey string) map[string]any {
	return map[string]any{
		"difficulty": float64(a.Difficulty),
		"nonce":      float64(0),
	}
}

// Solve performs the brute-force nonce search, grounded on the teacher's
// performPOW: it mutates block's consensusData nonce field until block.ID()
// solves the puzzle, returning the solved block. It runs synchronously and
// is meant to be called by a miner collaborator outside the engine, not by
// the Adapter interface itself, since the engine never blocks on mining.
func Solve(block ledger.Block, difficulty uint) (ledger.Block, error) {
	data := make(map[string]any, len(block.ConsensusData)+2)
	for k, v := range block.ConsensusData {
		data[k] = v
	}
	data["difficulty"] = float64(difficulty)

	candidate := block
	for nonce := uint64(0); ; nonce++ {
		next := make(map[string]any, len(data))
		for k, v := range data {
			next[k] = v
		}
		next["nonce"] = float64(nonce)
		candidate.ConsensusData = next

		blockID, err := candidate.ID()
		if err != nil {
			return ledger.Block{}, err
		}
		if isHashSolved(difficulty, blockID.String()) {
			return candidate, nil
		}
	}
}

func difficultyOf(consensusData map[string]any) uint {
	v, ok := consensusData["difficulty"].(float64)
	if !ok {
		return 0
	}
	return uint(v)
}

// isHashSolved checks that hash, a "0x"-prefixed hex id, begins with
// difficulty hex zeros.
func isHashSolved(difficulty uint, hash string) bool {
	const zeros = "0000000000000000000000000000000000000000000000000000000000000000"

	h := strings.TrimPrefix(hash, "0x")
	if uint(len(h)) < difficulty {
		return false
	}
	return h[:difficulty] == zeros[:difficulty]
}
