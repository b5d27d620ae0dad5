package id_test

import (
	"encoding/json"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/id"
)

const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_HashDeterministic(t *testing.T) {
	testID := 0
	t.Logf("Test %d:\tWhen hashing the same value twice.", testID)

	value := struct {
		Name  string
		Value int
	}{Name: "bill", Value: 100}

	h1, err := id.Hash(value)
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to hash a value: %s", failed, testID, err)
	}
	h2, err := id.Hash(value)
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to hash a value: %s", failed, testID, err)
	}

	if !h1.Equal(h2) {
		t.Fatalf("\t%s\tTest %d:\tShould get the same id for the same value twice.", failed, testID)
	}
	t.Logf("\t%s\tTest %d:\tShould get the same id for the same value twice.", success, testID)
}

func Test_HashDistinguishesValues(t *testing.T) {
	testID := 0
	t.Logf("Test %d:\tWhen hashing two different values.", testID)

	h1, err := id.Hash(struct{ N int }{N: 1})
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to hash a value: %s", failed, testID, err)
	}
	h2, err := id.Hash(struct{ N int }{N: 2})
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to hash a value: %s", failed, testID, err)
	}

	if h1.Equal(h2) {
		t.Fatalf("\t%s\tTest %d:\tShould get different ids for different values.", failed, testID)
	}
	t.Logf("\t%s\tTest %d:\tShould get different ids for different values.", success, testID)
}

func Test_RoundTripThroughJSON(t *testing.T) {
	testID := 0
	t.Logf("Test %d:\tWhen marshaling and unmarshaling an id as a JSON map key.", testID)

	want, err := id.Hash(struct{ N int }{N: 42})
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to hash a value: %s", failed, testID, err)
	}

	data, err := json.Marshal(map[id.ID]int{want: 7})
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to marshal a map keyed by id: %s", failed, testID, err)
	}

	var decoded map[id.ID]int
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal a map keyed by id: %s", failed, testID, err)
	}

	got, err := id.Hash(struct{ N int }{N: 42})
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to hash a value: %s", failed, testID, err)
	}
	if decoded[got] != 7 {
		t.Fatalf("\t%s\tTest %d:\tShould recover the value keyed by the round-tripped id.", failed, testID)
	}
	t.Logf("\t%s\tTest %d:\tShould recover the value keyed by the round-tripped id.", success, testID)
}

func Test_ZeroValue(t *testing.T) {
	testID := 0
	t.Logf("Test %d:\tWhen checking the zero value of an id.", testID)

	var zero id.ID
	if !zero.Zero() {
		t.Fatalf("\t%s\tTest %d:\tShould report the zero value as zero.", failed, testID)
	}
	t.Logf("\t%s\tTest %d:\tShould report the zero value as zero.", success, testID)

	nonZero, err := id.Hash(struct{ N int }{N: 1})
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to hash a value: %s", failed, testID, err)
	}
	if nonZero.Zero() {
		t.Fatalf("\t%s\tTest %d:\tShould not report a hashed value as zero.", failed, testID)
	}
	t.Logf("\t%s\tTest %d:\tShould not report a hashed value as zero.", success, testID)
}
