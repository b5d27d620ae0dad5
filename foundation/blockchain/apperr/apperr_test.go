package apperr_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/apperr"
)

const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_NotFound(t *testing.T) {
	testID := 0
	t.Logf("Test %d:\tWhen constructing and inspecting a NotFound error.", testID)

	err := apperr.NotFound("block", "0xdead")

	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("\t%s\tTest %d:\tShould be able to recover a *NotFoundError via errors.As.", failed, testID)
	}
	t.Logf("\t%s\tTest %d:\tShould be able to recover a *NotFoundError via errors.As.", success, testID)

	if nf.Kind != "block" || nf.ID != "0xdead" {
		t.Fatalf("\t%s\tTest %d:\tShould carry the kind and id it was constructed with.", failed, testID)
	}
	t.Logf("\t%s\tTest %d:\tShould carry the kind and id it was constructed with.", success, testID)

	if err.Error() == "" {
		t.Fatalf("\t%s\tTest %d:\tShould produce a non-empty error message.", failed, testID)
	}
	t.Logf("\t%s\tTest %d:\tShould produce a non-empty error message.", success, testID)
}
