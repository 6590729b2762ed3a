package ledger

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celer-network/go-ledger/db/badgerdb"
	"github.com/celer-network/go-ledger/db/leveldb"
	"github.com/celer-network/go-ledger/db/memorydb"
	"github.com/celer-network/go-ledger/statemachine"
	"github.com/celer-network/go-ledger/types"
)

func testKey(b byte) types.PublicKey {
	var k types.PublicKey
	k[0] = 0xbb
	k[types.PublicKeyLength-1] = b
	return k
}

func newSerializer(t *testing.T) *types.Serializer {
	serializer, err := types.NewSerializer()
	require.NoError(t, err)
	return serializer
}

type storeFactory struct {
	name string
	open func(t *testing.T) Store
}

func storeFactories() []storeFactory {
	return []storeFactory{
		{"file", func(t *testing.T) Store {
			store, err := OpenFileStore(filepath.Join(t.TempDir(), "ledger.dat"))
			require.NoError(t, err)
			return store
		}},
		{"memorydb", func(t *testing.T) Store {
			store, err := NewDBStore(memorydb.NewDB())
			require.NoError(t, err)
			return store
		}},
		{"badgerdb", func(t *testing.T) Store {
			database, err := badgerdb.NewDB(t.TempDir())
			require.NoError(t, err)
			store, err := NewDBStore(database)
			require.NoError(t, err)
			return store
		}},
		{"leveldb", func(t *testing.T) Store {
			database, err := leveldb.NewMemDB()
			require.NoError(t, err)
			store, err := NewDBStore(database)
			require.NoError(t, err)
			return store
		}},
	}
}

func sampleBatch() []*types.Instruction {
	first := types.NewTransfer(testKey(1), testKey(2), 100, 1)
	first.Signature[0] = 0x5a
	return []*types.Instruction{
		first,
		types.NewTransfer(testKey(2), testKey(3), 40, 2),
		types.NewTransfer(testKey(1), testKey(3), 7, 0),
	}
}

func TestLedgerAppendAndLoad(t *testing.T) {
	for _, factory := range storeFactories() {
		t.Run(factory.name, func(t *testing.T) {
			serializer := newSerializer(t)
			l := NewLedger(factory.open(t), serializer)
			defer l.Close()

			batch := sampleBatch()
			offset, err := l.Append(batch[:2])
			require.NoError(t, err)
			assert.Equal(t, uint64(0), offset)
			offset, err = l.Append(batch[2:])
			require.NoError(t, err)
			assert.Equal(t, uint64(2), offset)
			offset, err = l.Append(nil)
			require.NoError(t, err)
			assert.Equal(t, uint64(3), offset)
			assert.Equal(t, uint64(3), l.Len())

			loaded, err := l.Load(0, 3)
			require.NoError(t, err)
			assert.Equal(t, batch, loaded)

			loaded, err = l.Load(1, 2)
			require.NoError(t, err)
			assert.Equal(t, batch[1:], loaded)

			loaded, err = l.Load(3, 0)
			require.NoError(t, err)
			assert.Empty(t, loaded)

			raw, err := l.LoadRaw(1, 1)
			require.NoError(t, err)
			expected, err := batch[1].Serialize(serializer)
			require.NoError(t, err)
			assert.Equal(t, expected, raw)
		})
	}
}

func TestLedgerOutOfRange(t *testing.T) {
	for _, factory := range storeFactories() {
		t.Run(factory.name, func(t *testing.T) {
			l := NewLedger(factory.open(t), newSerializer(t))
			defer l.Close()
			_, err := l.Append(sampleBatch())
			require.NoError(t, err)

			for _, r := range [][2]uint64{{0, 4}, {3, 1}, {4, 0}, {math.MaxUint64, 2}, {1, math.MaxUint64}} {
				_, err = l.Load(r[0], r[1])
				assert.ErrorIs(t, err, ErrOutOfRange, "start %d count %d", r[0], r[1])
			}
		})
	}
}

func TestStoreRejectsPartialRecord(t *testing.T) {
	for _, factory := range storeFactories() {
		t.Run(factory.name, func(t *testing.T) {
			store := factory.open(t)
			defer store.Close()
			err := store.Append(make([]byte, types.RecordSize+1))
			assert.ErrorIs(t, err, types.ErrRecordSize)
			assert.Equal(t, uint64(0), store.Len())
		})
	}
}

func TestServeRange(t *testing.T) {
	for _, factory := range storeFactories() {
		t.Run(factory.name, func(t *testing.T) {
			serializer := newSerializer(t)
			l := NewLedger(factory.open(t), serializer)
			defer l.Close()
			batch := sampleBatch()
			_, err := l.Append(batch)
			require.NoError(t, err)

			raw, err := l.ServeRange(types.NewRangeRequest(testKey(9), 1, 2))
			require.NoError(t, err)
			expected, err := serializer.SerializeBatch(batch[1:])
			require.NoError(t, err)
			assert.Equal(t, expected, raw)

			_, err = l.ServeRange(types.NewRangeRequest(testKey(9), 2, 5))
			assert.ErrorIs(t, err, ErrOutOfRange)
			_, err = l.ServeRange(batch[0])
			assert.ErrorIs(t, err, ErrNotRangeRequest)
		})
	}
}

func replayBatches() [][]*types.Instruction {
	return [][]*types.Instruction{
		{
			types.NewTransfer(testKey(1), testKey(2), 100, 1),
			types.NewTransfer(testKey(1), testKey(3), 200, 1),
			types.NewTransfer(testKey(2), testKey(4), 500, 0),
		},
		{
			types.NewTransfer(testKey(3), testKey(5), 50, 5),
			types.NewTransfer(testKey(5), testKey(6), 10, 0),
			types.NewTransfer(testKey(1), testKey(7), 1, 0),
			types.NewTransfer(testKey(4), testKey(1), 1, 0),
		},
		{
			types.NewTransfer(testKey(6), testKey(1), 10, 0),
			types.NewTransfer(testKey(7), testKey(8), 1, 0),
		},
	}
}

func genesisTable(t *testing.T) *statemachine.AccountTable {
	table := statemachine.NewAccountTable(2)
	require.NoError(t, table.Insert(types.Account{Owner: testKey(1), Balance: 1000}))
	return table
}

func TestReplayEquivalence(t *testing.T) {
	for _, factory := range storeFactories() {
		t.Run(factory.name, func(t *testing.T) {
			l := NewLedger(factory.open(t), newSerializer(t))
			defer l.Close()

			live := statemachine.NewStateMachine(genesisTable(t))
			for _, batch := range replayBatches() {
				_, err := live.ApplyBatch(batch)
				require.NoError(t, err)
				_, err = l.Append(batch)
				require.NoError(t, err)
			}

			for _, chunk := range []uint64{0, 1, 2, 4} {
				replayed := statemachine.NewStateMachine(genesisTable(t))
				n, err := l.ReplayAll(replayed, chunk)
				require.NoError(t, err)
				assert.Equal(t, uint64(9), n)
				assert.Equal(t, live.Table().Accounts(), replayed.Table().Accounts(), "chunk %d", chunk)
				assert.Equal(t, live.Table().Digest(), replayed.Table().Digest(), "chunk %d", chunk)
			}
		})
	}
}

func TestFileStoreTruncatesTornTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.dat")
	store, err := OpenFileStore(path)
	require.NoError(t, err)
	l := NewLedger(store, newSerializer(t))
	_, err = l.Append(sampleBatch())
	require.NoError(t, err)
	require.NoError(t, l.Close())

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.Write([]byte("torn"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	store, err = OpenFileStore(path)
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, uint64(3), store.Len())
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3*types.RecordSize), info.Size())

	l = NewLedger(store, newSerializer(t))
	offset, err := l.Append(sampleBatch()[:1])
	require.NoError(t, err)
	assert.Equal(t, uint64(3), offset)
	loaded, err := l.Load(0, 4)
	require.NoError(t, err)
	assert.Equal(t, sampleBatch()[0], loaded[3])
}

func TestFileStoreClosed(t *testing.T) {
	store, err := OpenFileStore(filepath.Join(t.TempDir(), "ledger.dat"))
	require.NoError(t, err)
	require.NoError(t, store.Close())
	assert.ErrorIs(t, store.Append(make([]byte, types.RecordSize)), ErrClosed)
	_, err = store.Read(0, 0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDBStoreReopen(t *testing.T) {
	dir := t.TempDir()
	database, err := leveldb.NewDB(dir, leveldb.Options{})
	require.NoError(t, err)
	store, err := NewDBStore(database)
	require.NoError(t, err)
	l := NewLedger(store, newSerializer(t))
	_, err = l.Append(sampleBatch())
	require.NoError(t, err)
	require.NoError(t, l.Close())

	database, err = leveldb.NewDB(dir, leveldb.Options{})
	require.NoError(t, err)
	store, err = NewDBStore(database)
	require.NoError(t, err)
	l = NewLedger(store, newSerializer(t))
	defer l.Close()
	assert.Equal(t, uint64(3), l.Len())
	loaded, err := l.Load(0, 3)
	require.NoError(t, err)
	assert.Equal(t, sampleBatch(), loaded)
}
