package memorydb

import (
	"errors"
	"sync"

	ledgerdb "github.com/celer-network/go-ledger/db"
)

var (
	errTxDiscarded = errors.New("memorydb: transaction was discarded")
	errTxCommitted = errors.New("memorydb: transaction already committed")
)

type write struct {
	key   string
	value []byte
}

// Transaction buffers writes and applies them under the database lock on
// Commit.
type Transaction struct {
	mu     sync.Mutex
	db     *DB
	writes []write
	done   error
}

func (db *DB) NewTx() ledgerdb.Transaction {
	return &Transaction{db: db}
}

func (tx *Transaction) Set(namespace []byte, key []byte, value []byte) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done != nil {
		return tx.done
	}
	tx.writes = append(tx.writes, write{entryKey(namespace, key), clone(value)})
	return nil
}

func (tx *Transaction) Commit() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done != nil {
		return tx.done
	}
	tx.db.mu.Lock()
	for _, w := range tx.writes {
		tx.db.entries[w.key] = w.value
	}
	tx.db.mu.Unlock()
	tx.writes = nil
	tx.done = errTxCommitted
	return nil
}

// Discard drops the buffered writes. It is a no-op after Commit.
func (tx *Transaction) Discard() {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done == nil {
		tx.writes = nil
		tx.done = errTxDiscarded
	}
}
