package badgerdb

import (
	"time"

	"github.com/dgraph-io/badger/v2"

	ledgerdb "github.com/celer-network/go-ledger/db"
	"github.com/celer-network/go-ledger/log"
)

// slowCommit is the commit duration above which a warning is logged.
const slowCommit = 100 * time.Millisecond

// Transaction stages writes in a badger read-write transaction.
type Transaction struct {
	db      *DB
	txn     *badger.Txn
	created time.Time
	sets    int
	bytes   int
}

func (db *DB) NewTx() ledgerdb.Transaction {
	return &Transaction{
		db:      db,
		txn:     db.db.NewTransaction(true),
		created: time.Now(),
	}
}

func (tx *Transaction) Set(namespace []byte, key []byte, value []byte) error {
	key = dbKey(namespace, key)
	value = ledgerdb.ConvNilToBytes(value)
	if err := tx.txn.Set(key, value); err != nil {
		return err
	}
	tx.sets++
	tx.bytes += len(key) + len(value)
	return nil
}

func (tx *Transaction) Commit() error {
	started := time.Now()
	err := tx.txn.Commit()
	if took := time.Since(started); took > slowCommit {
		logger.Warn().Str("dir", tx.db.dir).Str("caller", log.SkipCaller(2)).
			Dur("staged", started.Sub(tx.created)).Dur("took", took).
			Int("sets", tx.sets).Int("bytes", tx.bytes).
			Msg("Slow badger commit")
	}
	return err
}

func (tx *Transaction) Discard() {
	tx.txn.Discard()
}
