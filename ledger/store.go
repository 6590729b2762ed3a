// Package ledger keeps the append-only log of executed instructions. Records
// are fixed width, so a record's index is its offset and ranges can be read
// without an index.
package ledger

import (
	"errors"
	"fmt"

	"github.com/celer-network/go-ledger/log"
	"github.com/celer-network/go-ledger/types"
)

var logger = log.NewLogger("ledger")

var (
	ErrOutOfRange      = errors.New("ledger range out of bounds")
	ErrIO              = errors.New("ledger storage failure")
	ErrNotRangeRequest = errors.New("instruction is not a range request")
	ErrClosed          = errors.New("ledger store closed")
)

// Store persists raw fixed-width records. Append and Read work on whole
// records; a Store is used by a single writer.
type Store interface {
	// Len returns the number of records.
	Len() uint64
	Append(raw []byte) error
	// Read returns count records starting at start, concatenated.
	Read(start uint64, count uint64) ([]byte, error)
	Close() error
}

func ioError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}

func checkRange(start uint64, count uint64, length uint64) error {
	if start > length || count > length-start {
		return fmt.Errorf("%w: start %d count %d length %d", ErrOutOfRange, start, count, length)
	}
	return nil
}

func checkRecords(raw []byte) (uint64, error) {
	if len(raw)%types.RecordSize != 0 {
		return 0, fmt.Errorf("%w: %d bytes", types.ErrRecordSize, len(raw))
	}
	return uint64(len(raw) / types.RecordSize), nil
}
