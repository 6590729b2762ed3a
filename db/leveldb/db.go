package leveldb

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	ledgerdb "github.com/celer-network/go-ledger/db"
)

// Options tunes the leveldb instance; values below 16 are raised to 16.
type Options struct {
	CacheSize              int
	OpenFilesCacheCapacity int
}

var errInvalidIterator = errors.New("leveldb iterator is invalid")

var (
	readOpt = opt.ReadOptions{}
	syncOpt = opt.WriteOptions{Sync: true}
)

// Enforce database and transaction implements interfaces
var _ ledgerdb.DB = (*DB)(nil)

// DB wraps a goleveldb instance.
type DB struct {
	db   *leveldb.DB
	stg  storage.Storage
	name string
}

// NewDB creates a persistent leveldb in dir or opens the existing one.
func NewDB(dir string, opts Options) (*DB, error) {
	stg, err := storage.OpenFile(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open leveldb storage %s: %w", dir, err)
	}
	return openDB(stg, dir, opts)
}

// NewMemDB creates a leveldb backed by memory.
func NewMemDB() (*DB, error) {
	return openDB(storage.NewMemStorage(), "memory", Options{})
}

func openDB(stg storage.Storage, name string, opts Options) (*DB, error) {
	if opts.CacheSize < 16 {
		opts.CacheSize = 16
	}
	if opts.OpenFilesCacheCapacity < 16 {
		opts.OpenFilesCacheCapacity = 16
	}
	db, err := leveldb.Open(stg, &opt.Options{
		OpenFilesCacheCapacity: opts.OpenFilesCacheCapacity,
		BlockCacheCapacity:     opts.CacheSize / 2 * opt.MiB,
		WriteBuffer:            opts.CacheSize / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	})
	if err != nil {
		stg.Close()
		return nil, fmt.Errorf("open leveldb %s: %w", name, err)
	}
	return &DB{db: db, stg: stg, name: name}, nil
}

func (db *DB) Type() string {
	return "leveldb"
}

func (db *DB) Set(namespace []byte, key []byte, value []byte) error {
	key = ledgerdb.PrependNamespace(namespace, key)
	return db.db.Put(ledgerdb.ConvNilToBytes(key), ledgerdb.ConvNilToBytes(value), &syncOpt)
}

func (db *DB) Get(namespace []byte, key []byte) ([]byte, bool, error) {
	key = ledgerdb.PrependNamespace(namespace, key)
	value, err := db.db.Get(ledgerdb.ConvNilToBytes(key), &readOpt)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (db *DB) Exist(namespace []byte, key []byte) (bool, error) {
	key = ledgerdb.PrependNamespace(namespace, key)
	return db.db.Has(ledgerdb.ConvNilToBytes(key), &readOpt)
}

// Close closes the database and then the storage it was opened on, which
// releases the directory lock.
func (db *DB) Close() error {
	err := db.db.Close()
	if stgErr := db.stg.Close(); err == nil {
		err = stgErr
	}
	return err
}

func (db *DB) NewTx() ledgerdb.Transaction {
	return &Transaction{
		db:    db,
		batch: new(leveldb.Batch),
	}
}

func (db *DB) Iterator(namespace []byte, start []byte, end []byte) ledgerdb.Iterator {
	start = ledgerdb.PrependNamespace(namespace, start)
	if end != nil {
		end = ledgerdb.PrependNamespace(namespace, end)
	} else if namespace != nil {
		end = ledgerdb.NamespaceEnd(namespace)
	}
	iter := db.db.NewIterator(&util.Range{Start: start, Limit: end}, &readOpt)
	iter.First()
	return &Iterator{namespace: namespace, iter: iter}
}

// Transaction collects writes into a leveldb batch written atomically on
// Commit.
type Transaction struct {
	db        *DB
	batch     *leveldb.Batch
	isDiscard bool
	isCommit  bool
}

func (tx *Transaction) Set(namespace []byte, key []byte, value []byte) error {
	key = ledgerdb.PrependNamespace(namespace, key)
	tx.batch.Put(ledgerdb.ConvNilToBytes(key), ledgerdb.ConvNilToBytes(value))
	return nil
}

func (tx *Transaction) Commit() error {
	if tx.isDiscard {
		return fmt.Errorf("leveldb %s: commit after discard", tx.db.name)
	} else if tx.isCommit {
		return fmt.Errorf("leveldb %s: commit twice", tx.db.name)
	}
	tx.isCommit = true
	return tx.db.db.Write(tx.batch, &syncOpt)
}

func (tx *Transaction) Discard() {
	tx.isDiscard = true
	tx.batch.Reset()
}

type Iterator struct {
	namespace []byte
	iter      iterator.Iterator
}

func (it *Iterator) Next() error {
	if !it.iter.Valid() {
		return errInvalidIterator
	}
	it.iter.Next()
	return nil
}

func (it *Iterator) Valid() bool {
	return it.iter.Valid()
}

func (it *Iterator) Key() ([]byte, error) {
	if !it.iter.Valid() {
		return nil, errInvalidIterator
	}
	key := append([]byte(nil), it.iter.Key()...)
	return ledgerdb.StripNamespace(it.namespace, key), nil
}

func (it *Iterator) Value() ([]byte, error) {
	if !it.iter.Valid() {
		return nil, errInvalidIterator
	}
	return append([]byte(nil), it.iter.Value()...), nil
}

func (it *Iterator) Release() {
	it.iter.Release()
}
