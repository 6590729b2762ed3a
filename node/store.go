package node

import (
	"fmt"

	"github.com/celer-network/go-ledger/config"
	"github.com/celer-network/go-ledger/db"
	"github.com/celer-network/go-ledger/db/badgerdb"
	"github.com/celer-network/go-ledger/db/leveldb"
	"github.com/celer-network/go-ledger/db/memorydb"
	"github.com/celer-network/go-ledger/ledger"
)

// OpenStore opens the ledger store selected by cfg.Backend.
func OpenStore(cfg *config.Config) (ledger.Store, error) {
	switch cfg.Backend {
	case config.BackendFile:
		store, err := ledger.OpenFileStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendBadger:
		database, err := badgerdb.NewDB(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open badger ledger %s: %w", cfg.Path, err)
		}
		return newDBStore(database)
	case config.BackendLevelDB:
		database, err := leveldb.NewDB(cfg.Path, leveldb.Options{})
		if err != nil {
			return nil, fmt.Errorf("open leveldb ledger %s: %w", cfg.Path, err)
		}
		return newDBStore(database)
	case config.BackendMemory:
		return newDBStore(memorydb.NewDB())
	}
	return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
}

// newDBStore closes database when the ledger cannot be opened on it.
func newDBStore(database db.DB) (ledger.Store, error) {
	store, err := ledger.NewDBStore(database)
	if err != nil {
		database.Close()
		return nil, err
	}
	return store, nil
}
