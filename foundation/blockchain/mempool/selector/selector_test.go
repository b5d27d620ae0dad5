package selector_test

import (
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/mempool/selector"
)

const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_RetrieveUnknownStrategy(t *testing.T) {
	testID := 0
	t.Logf("Test %d:\tWhen retrieving an unregistered strategy name.", testID)

	if _, err := selector.Retrieve("does-not-exist"); err == nil {
		t.Fatalf("\t%s\tTest %d:\tShould return an error for an unknown strategy.", failed, testID)
	}
	t.Logf("\t%s\tTest %d:\tShould return an error for an unknown strategy.", success, testID)
}

func Test_ByInsertionPreservesOrder(t *testing.T) {
	testID := 0
	t.Logf("Test %d:\tWhen ordering candidates by the insertion strategy.", testID)

	fn, err := selector.Retrieve(selector.StrategyInsertion)
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to retrieve the insertion strategy: %s", failed, testID, err)
	}

	candidates := []selector.Candidate{
		{ID: "c", Order: 2},
		{ID: "a", Order: 0},
		{ID: "b", Order: 1},
	}

	ordered := fn(candidates)
	want := []string{"a", "b", "c"}
	for i, c := range ordered {
		if c.ID != want[i] {
			t.Fatalf("\t%s\tTest %d:\tgot order %v, exp %v", failed, testID, idsOf(ordered), want)
		}
	}
	t.Logf("\t%s\tTest %d:\tShould order candidates by ascending insertion sequence.", success, testID)
}

func Test_ByFeeDensityOrdersByFeePerByte(t *testing.T) {
	testID := 0
	t.Logf("Test %d:\tWhen ordering candidates by the fee-density strategy.", testID)

	fn, err := selector.Retrieve(selector.StrategyFeeDensity)
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to retrieve the fee-density strategy: %s", failed, testID, err)
	}

	candidates := []selector.Candidate{
		{ID: "low-density", Fee: 600, Size: 400, Order: 0},  // 1.5/byte
		{ID: "high-density", Fee: 200, Size: 100, Order: 1}, // 2.0/byte
	}

	ordered := fn(candidates)
	if ordered[0].ID != "high-density" {
		t.Fatalf("\t%s\tTest %d:\tShould place the higher fee-density candidate first, got %v", failed, testID, idsOf(ordered))
	}
	t.Logf("\t%s\tTest %d:\tShould place the higher fee-density candidate first even with a smaller absolute fee.", success, testID)
}

func idsOf(candidates []selector.Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.ID
	}
	return out
}
