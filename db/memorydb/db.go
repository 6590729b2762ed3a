// Package memorydb is a map backed db.DB for tests and throwaway nodes.
package memorydb

import (
	"sync"

	ledgerdb "github.com/celer-network/go-ledger/db"
)

var _ ledgerdb.DB = (*DB)(nil)

type DB struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewDB() *DB {
	return &DB{entries: make(map[string][]byte)}
}

func (db *DB) Type() string {
	return "memorydb"
}

func entryKey(namespace []byte, key []byte) string {
	return string(ledgerdb.PrependNamespace(namespace, key))
}

func clone(b []byte) []byte {
	return append([]byte{}, b...)
}

func (db *DB) Set(namespace []byte, key []byte, value []byte) error {
	db.mu.Lock()
	db.entries[entryKey(namespace, key)] = clone(value)
	db.mu.Unlock()
	return nil
}

func (db *DB) Get(namespace []byte, key []byte) ([]byte, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	value, ok := db.entries[entryKey(namespace, key)]
	if !ok {
		return nil, false, nil
	}
	return clone(value), true, nil
}

func (db *DB) Exist(namespace []byte, key []byte) (bool, error) {
	db.mu.RLock()
	_, ok := db.entries[entryKey(namespace, key)]
	db.mu.RUnlock()
	return ok, nil
}

func (db *DB) Close() error {
	return nil
}
