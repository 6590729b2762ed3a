package memorydb

import (
	"testing"

	"github.com/celer-network/go-ledger/db/dbtest"
)

func TestMemoryDB(t *testing.T) {
	dbtest.TestDB(t, NewDB())
}
