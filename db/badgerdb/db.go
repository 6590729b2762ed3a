// Package badgerdb implements db.DB on badger.
package badgerdb

import (
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/dgraph-io/badger/v2/options"

	ledgerdb "github.com/celer-network/go-ledger/db"
	"github.com/celer-network/go-ledger/log"
)

var logger = &badgerLogger{Logger: log.NewLogger("badgerdb")}

type Options struct {
	// GCInterval is how often the value log is garbage collected.
	GCInterval time.Duration
	// DiscardRatio is the share of a value log file that must be stale
	// before it is rewritten.
	DiscardRatio float64
	// ValueLogFileSize caps a single value log file.
	ValueLogFileSize int64
	// SyncWrites fsyncs every commit.
	SyncWrites bool
}

// DefaultOptions keep value log files small and sync every commit, since the
// ledger relies on a committed append surviving a crash.
func DefaultOptions() Options {
	return Options{
		GCInterval:       time.Minute,
		DiscardRatio:     0.5,
		ValueLogFileSize: 1<<26 - 1,
		SyncWrites:       true,
	}
}

var _ ledgerdb.DB = (*DB)(nil)

type DB struct {
	db   *badger.DB
	dir  string
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewDB opens or creates a database in dir with DefaultOptions.
func NewDB(dir string) (*DB, error) {
	return Open(dir, DefaultOptions())
}

func Open(dir string, opts Options) (*DB, error) {
	badgerOpts := badger.DefaultOptions(dir)
	badgerOpts.Logger = logger
	badgerOpts.SyncWrites = opts.SyncWrites
	badgerOpts.ValueLogFileSize = opts.ValueLogFileSize
	badgerOpts.ValueLogLoadingMode = options.FileIO
	badgerOpts.TableLoadingMode = options.FileIO
	// records are small, keep them in the LSM tree
	badgerOpts.ValueThreshold = 1024
	bdb, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}
	db := &DB{
		db:   bdb,
		dir:  dir,
		stop: make(chan struct{}),
	}
	if opts.GCInterval > 0 {
		db.wg.Add(1)
		go db.gcLoop(opts.GCInterval, opts.DiscardRatio)
	}
	return db, nil
}

func (db *DB) gcLoop(interval time.Duration, discardRatio float64) {
	defer db.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			db.collectGarbage(discardRatio)
		case <-db.stop:
			return
		}
	}
}

// collectGarbage rewrites value log files until badger finds nothing left
// to reclaim.
func (db *DB) collectGarbage(discardRatio float64) {
	started := time.Now()
	lsmBefore, vlogBefore := db.db.Size()
	rewrites := 0
	for {
		err := db.db.RunValueLogGC(discardRatio)
		if err == nil {
			rewrites++
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) {
			logger.Error().Err(err).Str("dir", db.dir).Msg("Value log GC failed")
		}
		break
	}
	if rewrites == 0 {
		return
	}
	lsmAfter, vlogAfter := db.db.Size()
	logger.Debug().Str("dir", db.dir).Int("rewrites", rewrites).
		Int64("lsmBefore", lsmBefore).Int64("vlogBefore", vlogBefore).
		Int64("lsmAfter", lsmAfter).Int64("vlogAfter", vlogAfter).
		Dur("took", time.Since(started)).Msg("Value log GC done")
}

func (db *DB) Type() string {
	return "badgerdb"
}

func dbKey(namespace []byte, key []byte) []byte {
	return ledgerdb.ConvNilToBytes(ledgerdb.PrependNamespace(namespace, key))
}

func (db *DB) Set(namespace []byte, key []byte, value []byte) error {
	return db.db.Update(func(txn *badger.Txn) error {
		return txn.Set(dbKey(namespace, key), ledgerdb.ConvNilToBytes(value))
	})
}

func (db *DB) Get(namespace []byte, key []byte) ([]byte, bool, error) {
	var value []byte
	err := db.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dbKey(namespace, key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (db *DB) Exist(namespace []byte, key []byte) (bool, error) {
	err := db.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(dbKey(namespace, key))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Close stops the GC loop and closes badger.
func (db *DB) Close() error {
	close(db.stop)
	db.wg.Wait()
	return db.db.Close()
}
