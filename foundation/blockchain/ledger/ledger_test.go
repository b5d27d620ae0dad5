package ledger_test

import (
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
)

const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_OutputSetIDBindsAllOutputs(t *testing.T) {
	testID := 0
	t.Logf("Test %d:\tWhen computing a transaction's output-set id.", testID)

	base := ledger.Transaction{
		Outputs: []ledger.Output{
			{Value: 10, Data: map[string]any{"publicKey": "alice"}},
			{Value: 5, Data: map[string]any{"publicKey": "bob"}},
		},
	}
	tampered := base
	tampered.Outputs = append([]ledger.Output{}, base.Outputs...)
	tampered.Outputs[1].Value = 6

	id1, err := base.OutputSetID()
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to compute an output-set id: %s", failed, testID, err)
	}
	id2, err := tampered.OutputSetID()
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to compute an output-set id: %s", failed, testID, err)
	}

	if id1.Equal(id2) {
		t.Fatalf("\t%s\tTest %d:\tShould get a different output-set id after changing an output's value.", failed, testID)
	}
	t.Logf("\t%s\tTest %d:\tShould get a different output-set id after changing an output's value.", success, testID)
}

func Test_DBBlockRoundTripsID(t *testing.T) {
	testID := 0
	t.Logf("Test %d:\tWhen converting a Block to its DBBlock form.", testID)

	block := ledger.Block{
		Coinbase:  ledger.Transaction{Outputs: []ledger.Output{{Value: 50}}, Coinbase: true},
		Timestamp: 1000,
		Height:    1,
	}

	blockID, err := block.ID()
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to compute a block id: %s", failed, testID, err)
	}

	dbBlock, err := block.DBBlock()
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to derive a DBBlock: %s", failed, testID, err)
	}

	dbID, err := dbBlock.ID()
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to compute a DBBlock id: %s", failed, testID, err)
	}

	if !blockID.Equal(dbID) {
		t.Fatalf("\t%s\tTest %d:\tShould get the same id from a Block and its DBBlock form.", failed, testID)
	}
	t.Logf("\t%s\tTest %d:\tShould get the same id from a Block and its DBBlock form.", success, testID)
}

func Test_OutputTotal(t *testing.T) {
	testID := 0
	t.Logf("Test %d:\tWhen summing a transaction's outputs.", testID)

	tx := ledger.Transaction{
		Outputs: []ledger.Output{{Value: 10}, {Value: 20}, {Value: 7}},
	}

	if got, want := tx.OutputTotal(), uint64(37); got != want {
		t.Fatalf("\t%s\tTest %d:\tgot %d, exp %d", failed, testID, got, want)
	}
	t.Logf("\t%s\tTest %d:\tShould sum every output's value.", success, testID)
}

func Test_MerkleRootChangesWithTransactionSet(t *testing.T) {
	testID := 0
	t.Logf("Test %d:\tWhen computing a block's merkle root over its coinbase and transactions.", testID)

	coinbase := ledger.Transaction{Outputs: []ledger.Output{{Value: 50}}, Coinbase: true}

	block1 := ledger.Block{
		Coinbase:     coinbase,
		Transactions: []ledger.Transaction{{Outputs: []ledger.Output{{Value: 1}}, Timestamp: 1}},
	}
	block2 := ledger.Block{
		Coinbase:     coinbase,
		Transactions: []ledger.Transaction{{Outputs: []ledger.Output{{Value: 2}}, Timestamp: 2}},
	}

	root1, err := block1.MerkleRoot()
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to compute a merkle root: %s", failed, testID, err)
	}
	root2, err := block2.MerkleRoot()
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to compute a merkle root: %s", failed, testID, err)
	}

	if root1.Equal(root2) {
		t.Fatalf("\t%s\tTest %d:\tShould get a different merkle root for a different transaction set.", failed, testID)
	}
	t.Logf("\t%s\tTest %d:\tShould get a different merkle root for a different transaction set.", success, testID)
}
