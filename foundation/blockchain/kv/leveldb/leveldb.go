// Package leveldb provides a github.com/syndtr/goleveldb backed
// implementation of the kv.Store façade, grounded on bitmarkd's
// storage.Access/storage.Transaction batch pattern: a transaction is a
// leveldb.Batch plus a read overlay, committed with a single db.Write.
package leveldb

import (
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/kv"
	"github.com/syndtr/goleveldb/leveldb"
)

// Store is a goleveldb-backed kv.Store.
type Store struct {
	db *leveldb.DB
}

// Open opens (creating if necessary) a goleveldb database at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("leveldb: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Begin starts a transaction backed by a leveldb.Batch.
func (s *Store) Begin() (kv.StoreTx, error) {
	return &tx{
		store:   s,
		batch:   new(leveldb.Batch),
		overlay: make(map[string][]byte),
		deleted: make(map[string]bool),
	}, nil
}

type tx struct {
	store   *Store
	batch   *leveldb.Batch
	overlay map[string][]byte
	deleted map[string]bool
	done    bool
}

func dataKey(table kv.Table, key string) []byte {
	return []byte(fmt.Sprintf("d:%s:%s", table, key))
}

func indexKey(table kv.Table, index int, owner string) []byte {
	return []byte(fmt.Sprintf("i:%s:%d:%s", table, index, owner))
}

func (t *tx) Get(table kv.Table, key string) ([]byte, bool, error) {
	if t.done {
		return nil, false, fmt.Errorf("leveldb: transaction already closed")
	}

	k := string(dataKey(table, key))
	if t.deleted[k] {
		return nil, false, nil
	}
	if v, ok := t.overlay[k]; ok {
		return v, true, nil
	}

	v, err := t.store.db.Get(dataKey(table, key), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("leveldb: get: %w", err)
	}
	return v, true, nil
}

func (t *tx) Put(table kv.Table, key string, value []byte) error {
	if t.done {
		return fmt.Errorf("leveldb: transaction already closed")
	}

	k := string(dataKey(table, key))
	cp := make([]byte, len(value))
	copy(cp, value)
	t.overlay[k] = cp
	delete(t.deleted, k)
	t.batch.Put(dataKey(table, key), cp)
	return nil
}

func (t *tx) Erase(table kv.Table, key string) error {
	if t.done {
		return fmt.Errorf("leveldb: transaction already closed")
	}

	k := string(dataKey(table, key))
	delete(t.overlay, k)
	t.deleted[k] = true
	t.batch.Delete(dataKey(table, key))
	return nil
}

func (t *tx) readIndex(table kv.Table, index int, owner string) ([]string, error) {
	ik := string(indexKey(table, index, owner))
	if t.deleted[ik] {
		return nil, nil
	}
	if v, ok := t.overlay[ik]; ok {
		var list []string
		if err := json.Unmarshal(v, &list); err != nil {
			return nil, fmt.Errorf("leveldb: decode index: %w", err)
		}
		return list, nil
	}

	v, err := t.store.db.Get(indexKey(table, index, owner), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("leveldb: get index: %w", err)
	}

	var list []string
	if err := json.Unmarshal(v, &list); err != nil {
		return nil, fmt.Errorf("leveldb: decode index: %w", err)
	}
	return list, nil
}

func (t *tx) writeIndex(table kv.Table, index int, owner string, list []string) error {
	ik := string(indexKey(table, index, owner))

	if len(list) == 0 {
		delete(t.overlay, ik)
		t.deleted[ik] = true
		t.batch.Delete(indexKey(table, index, owner))
		return nil
	}

	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("leveldb: encode index: %w", err)
	}

	t.overlay[ik] = data
	delete(t.deleted, ik)
	t.batch.Put(indexKey(table, index, owner), data)
	return nil
}

func (t *tx) IndexList(table kv.Table, index int, owner string) ([]string, error) {
	if t.done {
		return nil, fmt.Errorf("leveldb: transaction already closed")
	}
	return t.readIndex(table, index, owner)
}

func (t *tx) IndexAppend(table kv.Table, index int, owner, member string) error {
	if t.done {
		return fmt.Errorf("leveldb: transaction already closed")
	}

	list, err := t.readIndex(table, index, owner)
	if err != nil {
		return err
	}
	for _, m := range list {
		if m == member {
			return nil
		}
	}
	return t.writeIndex(table, index, owner, append(list, member))
}

func (t *tx) IndexRemove(table kv.Table, index int, owner, member string) error {
	if t.done {
		return fmt.Errorf("leveldb: transaction already closed")
	}

	list, err := t.readIndex(table, index, owner)
	if err != nil {
		return err
	}

	out := list[:0]
	for _, m := range list {
		if m != member {
			out = append(out, m)
		}
	}
	return t.writeIndex(table, index, owner, out)
}

func (t *tx) Commit() error {
	if t.done {
		return fmt.Errorf("leveldb: transaction already closed")
	}
	t.done = true

	if err := t.store.db.Write(t.batch, nil); err != nil {
		return fmt.Errorf("leveldb: commit: %w", err)
	}
	return nil
}

func (t *tx) Abort() error {
	t.done = true
	t.batch.Reset()
	return nil
}
