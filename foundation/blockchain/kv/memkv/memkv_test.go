package memkv_test

import (
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/kv"
	"github.com/ardanlabs/ledger/foundation/blockchain/kv/memkv"
)

const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_PutGetCommitVisibility(t *testing.T) {
	testID := 0
	t.Logf("Test %d:\tWhen putting a value and committing the transaction.", testID)

	store := memkv.New()

	tx, err := store.Begin()
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to begin a transaction: %s", failed, testID, err)
	}

	if err := tx.Put(kv.UTXOs, "a", []byte("v1")); err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to put a value: %s", failed, testID, err)
	}

	other, err := store.Begin()
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to begin a second transaction: %s", failed, testID, err)
	}
	if _, found, err := other.Get(kv.UTXOs, "a"); err != nil || found {
		t.Fatalf("\t%s\tTest %d:\tShould not see an uncommitted write from another transaction.", failed, testID)
	}
	t.Logf("\t%s\tTest %d:\tShould not see an uncommitted write from another transaction.", success, testID)

	if err := tx.Commit(); err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to commit: %s", failed, testID, err)
	}

	after, err := store.Begin()
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to begin a transaction: %s", failed, testID, err)
	}
	value, found, err := after.Get(kv.UTXOs, "a")
	if err != nil || !found {
		t.Fatalf("\t%s\tTest %d:\tShould see the committed value from a fresh transaction.", failed, testID)
	}
	if string(value) != "v1" {
		t.Fatalf("\t%s\tTest %d:\tgot %q, exp %q", failed, testID, value, "v1")
	}
	t.Logf("\t%s\tTest %d:\tShould see the committed value from a fresh transaction.", success, testID)
}

func Test_AbortDiscardsWrites(t *testing.T) {
	testID := 0
	t.Logf("Test %d:\tWhen aborting a transaction with pending writes.", testID)

	store := memkv.New()

	tx, err := store.Begin()
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to begin a transaction: %s", failed, testID, err)
	}
	if err := tx.Put(kv.UTXOs, "a", []byte("v1")); err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to put a value: %s", failed, testID, err)
	}
	if err := tx.Abort(); err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to abort: %s", failed, testID, err)
	}

	check, err := store.Begin()
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to begin a transaction: %s", failed, testID, err)
	}
	if _, found, _ := check.Get(kv.UTXOs, "a"); found {
		t.Fatalf("\t%s\tTest %d:\tShould not see a write from an aborted transaction.", failed, testID)
	}
	t.Logf("\t%s\tTest %d:\tShould not see a write from an aborted transaction.", success, testID)
}

func Test_EraseRemovesValue(t *testing.T) {
	testID := 0
	t.Logf("Test %d:\tWhen erasing a previously committed key.", testID)

	store := memkv.New()

	tx, _ := store.Begin()
	tx.Put(kv.UTXOs, "a", []byte("v1"))
	tx.Commit()

	tx2, _ := store.Begin()
	if err := tx2.Erase(kv.UTXOs, "a"); err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to erase a key: %s", failed, testID, err)
	}
	tx2.Commit()

	tx3, _ := store.Begin()
	if _, found, _ := tx3.Get(kv.UTXOs, "a"); found {
		t.Fatalf("\t%s\tTest %d:\tShould no longer find an erased key.", failed, testID)
	}
	t.Logf("\t%s\tTest %d:\tShould no longer find an erased key.", success, testID)
}

func Test_IndexAppendListRemove(t *testing.T) {
	testID := 0
	t.Logf("Test %d:\tWhen appending and removing members from a secondary index.", testID)

	store := memkv.New()

	tx, _ := store.Begin()
	if err := tx.IndexAppend(kv.UTXOs, kv.OwnerIndex, "alice", "out-1"); err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to append to an index: %s", failed, testID, err)
	}
	if err := tx.IndexAppend(kv.UTXOs, kv.OwnerIndex, "alice", "out-2"); err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to append to an index: %s", failed, testID, err)
	}
	if err := tx.IndexAppend(kv.UTXOs, kv.OwnerIndex, "alice", "out-1"); err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould tolerate re-appending an existing member: %s", failed, testID, err)
	}
	tx.Commit()

	read, _ := store.Begin()
	list, err := read.IndexList(kv.UTXOs, kv.OwnerIndex, "alice")
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to list an index: %s", failed, testID, err)
	}
	if len(list) != 2 {
		t.Fatalf("\t%s\tTest %d:\tShould have exactly two distinct members, got %d.", failed, testID, len(list))
	}
	t.Logf("\t%s\tTest %d:\tShould dedupe a repeated append.", success, testID)

	rm, _ := store.Begin()
	if err := rm.IndexRemove(kv.UTXOs, kv.OwnerIndex, "alice", "out-1"); err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to remove a member: %s", failed, testID, err)
	}
	rm.Commit()

	after, _ := store.Begin()
	list, err = after.IndexList(kv.UTXOs, kv.OwnerIndex, "alice")
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to list an index: %s", failed, testID, err)
	}
	if len(list) != 1 || list[0] != "out-2" {
		t.Fatalf("\t%s\tTest %d:\tShould have only the surviving member, got %v.", failed, testID, list)
	}
	t.Logf("\t%s\tTest %d:\tShould remove the named member and keep the rest.", success, testID)
}

func Test_OperationsFailAfterCommit(t *testing.T) {
	testID := 0
	t.Logf("Test %d:\tWhen reusing a transaction after it has committed.", testID)

	store := memkv.New()
	tx, _ := store.Begin()
	if err := tx.Commit(); err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to commit: %s", failed, testID, err)
	}

	if err := tx.Put(kv.UTXOs, "a", []byte("v1")); err == nil {
		t.Fatalf("\t%s\tTest %d:\tShould reject a write on an already-closed transaction.", failed, testID)
	}
	t.Logf("\t%s\tTest %d:\tShould reject a write on an already-closed transaction.", success, testID)
}
