// Package db defines the key-value contract shared by the ledger's
// database backends. Every key lives in a namespace; a nil namespace means
// the raw key.
package db

// DB is a namespaced key-value store.
type DB interface {
	// Type names the backend, e.g. "badgerdb".
	Type() string
	Set(namespace []byte, key []byte, value []byte) error
	// Get reports false when the key is absent.
	Get(namespace []byte, key []byte) ([]byte, bool, error)
	Exist(namespace []byte, key []byte) (bool, error)
	// Iterator ranges over [start, end) of namespace. A nil end runs to the
	// end of the namespace.
	Iterator(namespace []byte, start []byte, end []byte) Iterator
	NewTx() Transaction
	Close() error
}

// Transaction applies its writes all at once on Commit, or not at all.
type Transaction interface {
	Set(namespace []byte, key []byte, value []byte) error
	Commit() error
	Discard()
}

// Iterator yields keys in ascending order with the namespace stripped.
// Release must be called once iteration is done.
type Iterator interface {
	Next() error
	Valid() bool
	Key() ([]byte, error)
	Value() ([]byte, error)
	Release()
}
