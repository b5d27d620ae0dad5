package poa_test

import (
	"hash/fnv"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/consensus/poa"
	"github.com/ardanlabs/ledger/foundation/blockchain/id"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
)

const (
	success = "\u2713"
	failed  = "\u2717"
)

func selectionOf(previousID string, authorities []string) string {
	h := fnv.New32a()
	h.Write([]byte(previousID))
	return authorities[h.Sum32()%uint32(len(authorities))]
}

func blockWithSigner(signer string, previousID id.ID) ledger.Block {
	return ledger.Block{
		Coinbase:   ledger.Transaction{Outputs: []ledger.Output{{Data: map[string]any{"publicKey": signer}}}, Coinbase: true},
		PreviousID: previousID,
	}
}

func Test_CheckConsensusRulesAcceptsSelectedAuthority(t *testing.T) {
	testID := 0
	t.Logf("Test %d:\tWhen a block is authored by the authority selected for its previous id.", testID)

	authorities := []string{"alice", "bob", "carol"}
	adapter := poa.New(authorities)

	previousID, err := id.Hash("some previous block")
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to construct a previous id: %s", failed, testID, err)
	}
	selected := selectionOf(previousID.String(), authorities)

	block := blockWithSigner(selected, previousID)

	if !adapter.CheckConsensusRules(nil, block, ledger.DBBlock{}) {
		t.Fatalf("\t%s\tTest %d:\tShould accept a block authored by the selected authority.", failed, testID)
	}
	t.Logf("\t%s\tTest %d:\tShould accept a block authored by the selected authority.", success, testID)
}

func Test_CheckConsensusRulesRejectsWrongAuthority(t *testing.T) {
	testID := 0
	t.Logf("Test %d:\tWhen a block is authored by an authority other than the one selected.", testID)

	authorities := []string{"alice", "bob", "carol"}
	adapter := poa.New(authorities)

	previousID, err := id.Hash("some previous block")
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to construct a previous id: %s", failed, testID, err)
	}
	selected := selectionOf(previousID.String(), authorities)

	var wrong string
	for _, a := range authorities {
		if a != selected {
			wrong = a
			break
		}
	}

	block := blockWithSigner(wrong, previousID)

	if adapter.CheckConsensusRules(nil, block, ledger.DBBlock{}) {
		t.Fatalf("\t%s\tTest %d:\tShould reject a block authored by an unselected authority.", failed, testID)
	}
	t.Logf("\t%s\tTest %d:\tShould reject a block authored by an unselected authority.", success, testID)
}

func Test_CheckConsensusRulesAcceptsAnyoneWhenUnconfigured(t *testing.T) {
	testID := 0
	t.Logf("Test %d:\tWhen the adapter carries no authority list.", testID)

	adapter := poa.New(nil)

	previousID, err := id.Hash("irrelevant")
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to construct a previous id: %s", failed, testID, err)
	}
	block := blockWithSigner("anyone", previousID)

	if !adapter.CheckConsensusRules(nil, block, ledger.DBBlock{}) {
		t.Fatalf("\t%s\tTest %d:\tShould accept any block when no authorities are configured.", failed, testID)
	}
	t.Logf("\t%s\tTest %d:\tShould accept any block when no authorities are configured.", success, testID)
}
