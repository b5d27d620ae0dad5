package lua_test

import (
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/contract/lua"
	"github.com/ardanlabs/ledger/foundation/blockchain/kv/memkv"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
	"github.com/ardanlabs/ledger/foundation/blockchain/utxo"
)

const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_RunAcceptsWhenScriptAccepts(t *testing.T) {
	testID := 0
	t.Logf("Test %d:\tWhen the spent output's contract script sets result.accept to true.", testID)

	script := `result = { accept = ctx.outputValue >= 10 }`

	store := memkv.New()
	storeTx, _ := store.Begin()
	index := utxo.New()

	out := ledger.Output{Value: 20, Data: map[string]any{"contract": script}}
	outID, _ := out.ID()
	creatingTxID, _ := (ledger.Transaction{Outputs: []ledger.Output{out}}).ID()
	if err := index.CreateOutput(storeTx, out, creatingTxID); err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to create the output: %s", failed, testID, err)
	}

	transaction := ledger.Transaction{
		Inputs:  []ledger.Input{{OutputID: outID}},
		Outputs: []ledger.Output{{Value: 20}},
	}

	runner := lua.New()
	accept, err := runner.Run(storeTx, transaction)
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to run the contract: %s", failed, testID, err)
	}
	if !accept {
		t.Fatalf("\t%s\tTest %d:\tShould accept when the script's condition holds.", failed, testID)
	}
	t.Logf("\t%s\tTest %d:\tShould accept when the script's condition holds.", success, testID)
}

func Test_RunRejectsWhenScriptRejects(t *testing.T) {
	testID := 0
	t.Logf("Test %d:\tWhen the spent output's contract script sets result.accept to false.", testID)

	script := `result = { accept = ctx.outputValue >= 10 }`

	store := memkv.New()
	storeTx, _ := store.Begin()
	index := utxo.New()

	out := ledger.Output{Value: 5, Data: map[string]any{"contract": script}}
	outID, _ := out.ID()
	creatingTxID, _ := (ledger.Transaction{Outputs: []ledger.Output{out}}).ID()
	if err := index.CreateOutput(storeTx, out, creatingTxID); err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to create the output: %s", failed, testID, err)
	}

	transaction := ledger.Transaction{
		Inputs:  []ledger.Input{{OutputID: outID}},
		Outputs: []ledger.Output{{Value: 5}},
	}

	runner := lua.New()
	accept, err := runner.Run(storeTx, transaction)
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to run the contract: %s", failed, testID, err)
	}
	if accept {
		t.Fatalf("\t%s\tTest %d:\tShould reject when the script's condition fails.", failed, testID)
	}
	t.Logf("\t%s\tTest %d:\tShould reject when the script's condition fails.", success, testID)
}

func Test_RunSkipsOutputsWithoutAContract(t *testing.T) {
	testID := 0
	t.Logf("Test %d:\tWhen the spent output carries no contract field.", testID)

	store := memkv.New()
	storeTx, _ := store.Begin()
	index := utxo.New()

	out := ledger.Output{Value: 5}
	outID, _ := out.ID()
	creatingTxID, _ := (ledger.Transaction{Outputs: []ledger.Output{out}}).ID()
	if err := index.CreateOutput(storeTx, out, creatingTxID); err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to create the output: %s", failed, testID, err)
	}

	transaction := ledger.Transaction{
		Inputs:  []ledger.Input{{OutputID: outID}},
		Outputs: []ledger.Output{{Value: 5}},
	}

	runner := lua.New()
	accept, err := runner.Run(storeTx, transaction)
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to run the contract: %s", failed, testID, err)
	}
	if !accept {
		t.Fatalf("\t%s\tTest %d:\tShould impose no obligation on an output without a contract.", failed, testID)
	}
	t.Logf("\t%s\tTest %d:\tShould impose no obligation on an output without a contract.", success, testID)
}
