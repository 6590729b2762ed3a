package memorydb

import (
	"errors"
	"sort"

	ledgerdb "github.com/celer-network/go-ledger/db"
)

var errIteratorDone = errors.New("memorydb: iterator exhausted or released")

// Iterator walks a sorted copy of the range taken when it was created, so
// later writes are not observed.
type Iterator struct {
	namespace []byte
	keys      []string
	values    [][]byte
	pos       int
}

func (db *DB) Iterator(namespace []byte, start []byte, end []byte) ledgerdb.Iterator {
	lower := entryKey(namespace, start)
	var upper string
	bounded := true
	switch {
	case end != nil:
		upper = entryKey(namespace, end)
	case namespace != nil:
		upper = string(ledgerdb.NamespaceEnd(namespace))
	default:
		bounded = false
	}

	db.mu.RLock()
	keys := make([]string, 0, len(db.entries))
	for key := range db.entries {
		if key >= lower && (!bounded || key < upper) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	values := make([][]byte, len(keys))
	for i, key := range keys {
		values[i] = clone(db.entries[key])
	}
	db.mu.RUnlock()

	return &Iterator{namespace: namespace, keys: keys, values: values}
}

func (it *Iterator) Valid() bool {
	return it.pos < len(it.keys)
}

func (it *Iterator) Next() error {
	if !it.Valid() {
		return errIteratorDone
	}
	it.pos++
	return nil
}

func (it *Iterator) Key() ([]byte, error) {
	if !it.Valid() {
		return nil, errIteratorDone
	}
	return ledgerdb.StripNamespace(it.namespace, []byte(it.keys[it.pos])), nil
}

func (it *Iterator) Value() ([]byte, error) {
	if !it.Valid() {
		return nil, errIteratorDone
	}
	return clone(it.values[it.pos]), nil
}

func (it *Iterator) Release() {
	it.keys, it.values, it.pos = nil, nil, 0
}
