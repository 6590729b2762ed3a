package statemachine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celer-network/go-ledger/types"
)

func testKey(b byte) types.PublicKey {
	var k types.PublicKey
	k[0] = 0xaa
	k[types.PublicKeyLength-1] = b
	return k
}

func seededTable(t *testing.T, capacity int, balances map[byte]uint64) *AccountTable {
	table := NewAccountTable(capacity)
	for b, balance := range balances {
		require.NoError(t, table.Insert(types.Account{Owner: testKey(b), Balance: balance}))
	}
	return table
}

func TestNewAccountTableMinimumCapacity(t *testing.T) {
	assert.Equal(t, 1, NewAccountTable(0).Capacity())
	assert.Equal(t, 1, NewAccountTable(-3).Capacity())
	assert.Equal(t, 16, NewAccountTable(16).Capacity())
}

func TestInsertAndGet(t *testing.T) {
	table := NewAccountTable(4)
	require.NoError(t, table.Insert(types.Account{Owner: testKey(1), Balance: 10}))
	assert.Equal(t, 1, table.Used())

	account, err := table.Get(testKey(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(10), account.Balance)

	_, err = table.Get(testKey(2))
	assert.ErrorIs(t, err, ErrKeyNotFound)
	_, err = table.Get(types.PublicKey{})
	assert.ErrorIs(t, err, ErrInvalidKey)

	assert.ErrorIs(t, table.Insert(types.Account{Owner: testKey(1), Balance: 5}), ErrDuplicateAccount)
	assert.ErrorIs(t, table.Insert(types.Account{Balance: 5}), ErrInvalidKey)
	assert.Equal(t, 1, table.Used())
}

func TestGetOnFullTable(t *testing.T) {
	table := seededTable(t, 1, map[byte]uint64{1: 1})
	_, err := table.Get(testKey(2))
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestInsertGrowsWhenFull(t *testing.T) {
	table := NewAccountTable(1)
	for b := byte(1); b <= 4; b++ {
		require.NoError(t, table.Insert(types.Account{Owner: testKey(b), Balance: uint64(b)}))
	}
	assert.Equal(t, 4, table.Capacity())
	assert.Equal(t, 4, table.Used())
	for b := byte(1); b <= 4; b++ {
		account, err := table.Get(testKey(b))
		require.NoError(t, err)
		assert.Equal(t, uint64(b), account.Balance)
	}
}

func TestMaybeGrow(t *testing.T) {
	table := seededTable(t, 4, map[byte]uint64{1: 1, 2: 2, 3: 3})
	assert.False(t, table.NeedsGrowth())
	grew, err := table.MaybeGrow()
	require.NoError(t, err)
	assert.False(t, grew)
	assert.Equal(t, 4, table.Capacity())

	require.NoError(t, table.Insert(types.Account{Owner: testKey(4), Balance: 4}))
	assert.True(t, table.NeedsGrowth())
	grew, err = table.MaybeGrow()
	require.NoError(t, err)
	assert.True(t, grew)
	assert.Equal(t, 8, table.Capacity())
	assert.False(t, table.NeedsGrowth())
	assert.Equal(t, uint64(10), table.TotalBalance())
}

func TestAccountsSortedAndDigestLayoutIndependent(t *testing.T) {
	balances := map[byte]uint64{9: 90, 3: 30, 5: 50}
	small := seededTable(t, 4, balances)
	large := seededTable(t, 64, balances)

	accounts := small.Accounts()
	require.Len(t, accounts, 3)
	assert.Equal(t, testKey(3), accounts[0].Owner)
	assert.Equal(t, testKey(5), accounts[1].Owner)
	assert.Equal(t, testKey(9), accounts[2].Owner)
	assert.Equal(t, accounts, large.Accounts())
	assert.Equal(t, small.Digest(), large.Digest())

	require.NoError(t, large.Insert(types.Account{Owner: testKey(1)}))
	assert.NotEqual(t, small.Digest(), large.Digest())
}

func TestGrowChecksAccountCount(t *testing.T) {
	table := seededTable(t, 4, map[byte]uint64{1: 1, 2: 2})
	table.used++
	err := table.Grow()
	assert.ErrorIs(t, err, ErrAccountCount)
	assert.Equal(t, 4, table.Capacity())

	table.used--
	require.NoError(t, table.Grow())
	assert.Equal(t, 8, table.Capacity())
}

func TestTotalBalanceSaturates(t *testing.T) {
	table := seededTable(t, 4, map[byte]uint64{1: math.MaxUint64, 2: 2})
	assert.Equal(t, uint64(math.MaxUint64), table.TotalBalance())
}
