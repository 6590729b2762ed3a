// Package dbtest holds behaviour checks shared by every db.DB backend.
package dbtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celer-network/go-ledger/db"
)

var (
	namespaceA = []byte("a")
	namespaceB = []byte("b")
)

// TestDB runs the shared checks against database.
func TestDB(t *testing.T, database db.DB) {
	t.Run("SetGet", func(t *testing.T) { testSetGet(t, database) })
	t.Run("Transaction", func(t *testing.T) { testTransaction(t, database) })
	t.Run("Iterator", func(t *testing.T) { testIterator(t, database) })
}

func testSetGet(t *testing.T, database db.DB) {
	_, exists, err := database.Get(namespaceA, []byte("missing"))
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, database.Set(namespaceA, []byte("k"), []byte("v")))
	value, exists, err := database.Get(namespaceA, []byte("k"))
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, []byte("v"), value)

	ok, err := database.Exist(namespaceA, []byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = database.Exist(namespaceB, []byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func testTransaction(t *testing.T, database db.DB) {
	tx := database.NewTx()
	require.NoError(t, tx.Set(namespaceB, []byte("t1"), []byte("1")))
	require.NoError(t, tx.Set(namespaceB, []byte("t2"), []byte("2")))

	_, exists, err := database.Get(namespaceB, []byte("t1"))
	require.NoError(t, err)
	assert.False(t, exists, "uncommitted write must not be visible")

	require.NoError(t, tx.Commit())
	value, exists, err := database.Get(namespaceB, []byte("t2"))
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, []byte("2"), value)

	discarded := database.NewTx()
	require.NoError(t, discarded.Set(namespaceB, []byte("t3"), []byte("3")))
	discarded.Discard()
	_, exists, err = database.Get(namespaceB, []byte("t3"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func testIterator(t *testing.T, database db.DB) {
	ns := []byte("it")
	for _, k := range []string{"3", "1", "2", "4"} {
		require.NoError(t, database.Set(ns, []byte(k), []byte("v"+k)))
	}
	require.NoError(t, database.Set([]byte("iu"), []byte("0"), []byte("other")))

	collect := func(start, end []byte) (keys []string, values []string) {
		iter := database.Iterator(ns, start, end)
		defer iter.Release()
		for ; iter.Valid(); require.NoError(t, iter.Next()) {
			k, err := iter.Key()
			require.NoError(t, err)
			v, err := iter.Value()
			require.NoError(t, err)
			keys = append(keys, string(k))
			values = append(values, string(v))
		}
		return keys, values
	}

	keys, values := collect([]byte("2"), []byte("4"))
	assert.Equal(t, []string{"2", "3"}, keys)
	assert.Equal(t, []string{"v2", "v3"}, values)

	keys, _ = collect(nil, nil)
	assert.Equal(t, []string{"1", "2", "3", "4"}, keys)
}
