package badgerdb

import (
	"bytes"
	"errors"

	"github.com/dgraph-io/badger/v2"

	ledgerdb "github.com/celer-network/go-ledger/db"
)

var errInvalidIterator = errors.New("iterator is not valid")

// Iterator walks [start, end) of a namespace inside a read-only transaction
// that is held until Release.
type Iterator struct {
	namespace []byte
	end       []byte
	txn       *badger.Txn
	it        *badger.Iterator
}

func (db *DB) Iterator(namespace []byte, start []byte, end []byte) ledgerdb.Iterator {
	if end != nil {
		end = ledgerdb.PrependNamespace(namespace, end)
	} else if namespace != nil {
		end = ledgerdb.NamespaceEnd(namespace)
	}
	txn := db.db.NewTransaction(false)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	it.Seek(dbKey(namespace, start))
	return &Iterator{
		namespace: namespace,
		end:       end,
		txn:       txn,
		it:        it,
	}
}

func (i *Iterator) Valid() bool {
	return i.it.Valid() && (i.end == nil || bytes.Compare(i.it.Item().Key(), i.end) < 0)
}

func (i *Iterator) Next() error {
	if !i.Valid() {
		return errInvalidIterator
	}
	i.it.Next()
	return nil
}

func (i *Iterator) Key() ([]byte, error) {
	if !i.Valid() {
		return nil, errInvalidIterator
	}
	return ledgerdb.StripNamespace(i.namespace, i.it.Item().KeyCopy(nil)), nil
}

func (i *Iterator) Value() ([]byte, error) {
	if !i.Valid() {
		return nil, errInvalidIterator
	}
	return i.it.Item().ValueCopy(nil)
}

func (i *Iterator) Release() {
	i.it.Close()
	i.txn.Discard()
}
