// Package memkv provides an in-memory reference implementation of the
// kv.Store façade, grounded on the teacher's storage/memory package: a
// mutex-guarded set of maps with no persistence. It backs the engine's own
// test suite.
package memkv

import (
	"fmt"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/kv"
)

type indexKey struct {
	table kv.Table
	index int
	owner string
}

// Store is an in-memory kv.Store.
type Store struct {
	mu      sync.Mutex
	tables  map[kv.Table]map[string][]byte
	indexes map[indexKey][]string
}

// New constructs an empty in-memory Store.
func New() *Store {
	return &Store{
		tables:  make(map[kv.Table]map[string][]byte),
		indexes: make(map[indexKey][]string),
	}
}

// Close is a no-op; there is nothing to release.
func (s *Store) Close() error {
	return nil
}

// Begin starts a transaction. Writes are buffered in an overlay and applied
// to the store atomically on Commit.
func (s *Store) Begin() (kv.StoreTx, error) {
	return &tx{store: s, writes: make(map[write]entry)}, nil
}

type write struct {
	table kv.Table
	key   string
}

type entry struct {
	value    []byte
	deleted  bool
	isIndex  bool
	index    int
	owner    string
	indexVal []string
}

type tx struct {
	store  *Store
	writes map[write]entry
	done   bool
}

func (t *tx) Get(table kv.Table, key string) ([]byte, bool, error) {
	if t.done {
		return nil, false, fmt.Errorf("memkv: transaction already closed")
	}

	if e, ok := t.writes[write{table, key}]; ok && !e.isIndex {
		if e.deleted {
			return nil, false, nil
		}
		return e.value, true, nil
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	v, ok := t.store.tables[table][key]
	if !ok {
		return nil, false, nil
	}

	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (t *tx) Put(table kv.Table, key string, value []byte) error {
	if t.done {
		return fmt.Errorf("memkv: transaction already closed")
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	t.writes[write{table, key}] = entry{value: cp}
	return nil
}

func (t *tx) Erase(table kv.Table, key string) error {
	if t.done {
		return fmt.Errorf("memkv: transaction already closed")
	}
	t.writes[write{table, key}] = entry{deleted: true}
	return nil
}

func (t *tx) currentIndex(table kv.Table, index int, owner string) []string {
	key := write{table, fmt.Sprintf("idx%d:%s", index, owner)}
	if e, ok := t.writes[key]; ok && e.isIndex {
		out := make([]string, len(e.indexVal))
		copy(out, e.indexVal)
		return out
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	v := t.store.indexes[indexKey{table, index, owner}]
	out := make([]string, len(v))
	copy(out, v)
	return out
}

func (t *tx) IndexList(table kv.Table, index int, owner string) ([]string, error) {
	if t.done {
		return nil, fmt.Errorf("memkv: transaction already closed")
	}
	return t.currentIndex(table, index, owner), nil
}

func (t *tx) IndexAppend(table kv.Table, index int, owner, member string) error {
	if t.done {
		return fmt.Errorf("memkv: transaction already closed")
	}

	list := t.currentIndex(table, index, owner)
	for _, m := range list {
		if m == member {
			return nil
		}
	}
	list = append(list, member)

	key := write{table, fmt.Sprintf("idx%d:%s", index, owner)}
	t.writes[key] = entry{isIndex: true, index: index, owner: owner, indexVal: list}
	return nil
}

func (t *tx) IndexRemove(table kv.Table, index int, owner, member string) error {
	if t.done {
		return fmt.Errorf("memkv: transaction already closed")
	}

	list := t.currentIndex(table, index, owner)
	out := list[:0]
	for _, m := range list {
		if m != member {
			out = append(out, m)
		}
	}

	key := write{table, fmt.Sprintf("idx%d:%s", index, owner)}
	t.writes[key] = entry{isIndex: true, index: index, owner: owner, indexVal: out}
	return nil
}

func (t *tx) Commit() error {
	if t.done {
		return fmt.Errorf("memkv: transaction already closed")
	}
	t.done = true

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	for w, e := range t.writes {
		if e.isIndex {
			ik := indexKey{w.table, e.index, e.owner}
			if len(e.indexVal) == 0 {
				delete(t.store.indexes, ik)
			} else {
				t.store.indexes[ik] = e.indexVal
			}
			continue
		}

		tbl, ok := t.store.tables[w.table]
		if !ok {
			tbl = make(map[string][]byte)
			t.store.tables[w.table] = tbl
		}

		if e.deleted {
			delete(tbl, w.key)
			continue
		}
		tbl[w.key] = e.value
	}

	return nil
}

func (t *tx) Abort() error {
	t.done = true
	t.writes = nil
	return nil
}
