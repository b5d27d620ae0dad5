// Package selector implements the mempool's pluggable, named selection
// strategies, grounded on the teacher's mempool/selector package: a
// registry of named sort functions retrieved by strategy name.
package selector

import (
	"fmt"
	"sort"

	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
)

// StrategyInsertion preserves the order transactions were inserted, the
// spec's default reading of "deterministic ... insertion-order stable."
const StrategyInsertion = "insertion"

// StrategyFeeDensity orders by fee-per-byte descending, a documented
// deviation explicitly permitted when insertion order isn't desired.
const StrategyFeeDensity = "fee-density"

// Candidate is one transaction under consideration for selection, along
// with the bookkeeping a strategy needs to order it.
type Candidate struct {
	Tx    ledger.Transaction
	ID    string
	Fee   uint64
	Size  int
	Order int // insertion sequence number
}

// Func orders a set of candidates; it must not mutate its argument.
type Func func(candidates []Candidate) []Candidate

var strategies = map[string]Func{
	StrategyInsertion:  byInsertion,
	StrategyFeeDensity: byFeeDensity,
}

// Retrieve looks up a registered strategy by name.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("selector: strategy %q does not exist", strategy)
	}
	return fn, nil
}

func byInsertion(candidates []Candidate) []Candidate {
	cpy := append([]Candidate(nil), candidates...)
	sort.SliceStable(cpy, func(i, j int) bool {
		return cpy[i].Order < cpy[j].Order
	})
	return cpy
}

// byFeeDensity sorts by fee/byte descending, then by insertion order to
// break ties deterministically. For example, a 200-byte tx paying a fee of
// 400 (density 2.0) sorts ahead of a 100-byte tx paying a fee of 150
// (density 1.5), even though the second pays a smaller absolute fee.
func byFeeDensity(candidates []Candidate) []Candidate {
	cpy := append([]Candidate(nil), candidates...)
	sort.SliceStable(cpy, func(i, j int) bool {
		di := density(cpy[i])
		dj := density(cpy[j])
		if di != dj {
			return di > dj
		}
		return cpy[i].Order < cpy[j].Order
	})
	return cpy
}

func density(c Candidate) float64 {
	if c.Size == 0 {
		return 0
	}
	return float64(c.Fee) / float64(c.Size)
}
