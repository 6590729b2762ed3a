package ledger

import (
	"encoding/binary"
	"fmt"

	"github.com/celer-network/go-ledger/db"
	"github.com/celer-network/go-ledger/types"
)

var lengthKey = []byte("length")

// DBStore keeps records in a key value database, one record per key. Keys
// are big-endian offsets so the database order is the ledger order.
type DBStore struct {
	db     db.DB
	length uint64
}

var _ Store = (*DBStore)(nil)

func offsetKey(offset uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, offset)
	return key
}

// NewDBStore opens the ledger kept in database, resuming at its stored
// length.
func NewDBStore(database db.DB) (*DBStore, error) {
	value, exists, err := database.Get(db.NamespaceLedgerMeta, lengthKey)
	if err != nil {
		return nil, ioError("read length", err)
	}
	var length uint64
	if exists {
		if len(value) != 8 {
			return nil, fmt.Errorf("%w: corrupt length of %d bytes", ErrIO, len(value))
		}
		length = binary.BigEndian.Uint64(value)
	}
	logger.Info().Str("db", database.Type()).Uint64("records", length).Msg("Opened ledger database")
	return &DBStore{db: database, length: length}, nil
}

func (s *DBStore) Len() uint64 {
	return s.length
}

// Append writes every record and the new length in one transaction.
func (s *DBStore) Append(raw []byte) error {
	n, err := checkRecords(raw)
	if err != nil || n == 0 {
		return err
	}
	tx := s.db.NewTx()
	for i := uint64(0); i < n; i++ {
		record := raw[i*types.RecordSize : (i+1)*types.RecordSize]
		if err = tx.Set(db.NamespaceLedgerRecord, offsetKey(s.length+i), record); err != nil {
			tx.Discard()
			return ioError("stage record", err)
		}
	}
	if err = tx.Set(db.NamespaceLedgerMeta, lengthKey, offsetKey(s.length+n)); err != nil {
		tx.Discard()
		return ioError("stage length", err)
	}
	if err = tx.Commit(); err != nil {
		logger.Error().Err(err).Str("db", s.db.Type()).Uint64("offset", s.length).Msg("Failed to commit ledger records")
		return ioError("commit", err)
	}
	s.length += n
	return nil
}

func (s *DBStore) Read(start uint64, count uint64) ([]byte, error) {
	if err := checkRange(start, count, s.length); err != nil {
		return nil, err
	}
	buf := make([]byte, 0, count*types.RecordSize)
	if count == 0 {
		return buf, nil
	}
	iter := s.db.Iterator(db.NamespaceLedgerRecord, offsetKey(start), offsetKey(start+count))
	defer iter.Release()
	next := start
	for ; iter.Valid(); next++ {
		key, err := iter.Key()
		if err != nil {
			return nil, ioError("read key", err)
		}
		if len(key) != 8 || binary.BigEndian.Uint64(key) != next {
			return nil, fmt.Errorf("%w: missing record %d", ErrIO, next)
		}
		value, err := iter.Value()
		if err != nil {
			return nil, ioError("read record", err)
		}
		if len(value) != types.RecordSize {
			return nil, fmt.Errorf("%w: record %d has %d bytes", ErrIO, next, len(value))
		}
		buf = append(buf, value...)
		if err = iter.Next(); err != nil {
			return nil, ioError("advance", err)
		}
	}
	if next != start+count {
		return nil, fmt.Errorf("%w: missing record %d", ErrIO, next)
	}
	return buf, nil
}

func (s *DBStore) Close() error {
	if err := s.db.Close(); err != nil {
		return ioError("close", err)
	}
	return nil
}
