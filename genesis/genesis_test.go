package genesis

import (
	"io/ioutil"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celer-network/go-ledger/statemachine"
	"github.com/celer-network/go-ledger/types"
)

const (
	keyA = "0x00000000000000000000000000000000000000000000000000000000000000a1"
	keyB = "0x00000000000000000000000000000000000000000000000000000000000000b2"
)

func TestLoadAndSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	content := "accounts:\n" +
		"  - pubkey: \"" + keyA + "\"\n    balance: 1000\n" +
		"  - pubkey: \"" + keyB + "\"\n    balance: 5\n"
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0644))

	g, err := Load(path)
	require.NoError(t, err)
	require.Len(t, g.Accounts, 2)
	assert.Equal(t, uint64(1005), g.TotalBalance())

	table := statemachine.NewAccountTable(1)
	require.NoError(t, g.Seed(table))
	assert.Equal(t, 2, table.Used())
	assert.Equal(t, uint64(1005), table.TotalBalance())

	a, err := types.HexToPublicKey(keyA)
	require.NoError(t, err)
	account, err := table.Get(a)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), account.Balance)
}

func TestSeedRejectsBadAccounts(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		target error
	}{
		{"duplicate", "accounts:\n  - {pubkey: \"" + keyA + "\", balance: 1}\n  - {pubkey: \"" + keyA + "\", balance: 2}\n", statemachine.ErrDuplicateAccount},
		{"sentinel", "accounts:\n  - {pubkey: \"0x0000000000000000000000000000000000000000000000000000000000000000\", balance: 1}\n", statemachine.ErrInvalidKey},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g, err := Parse([]byte(tc.yaml))
			require.NoError(t, err)
			assert.ErrorIs(t, g.Seed(statemachine.NewAccountTable(4)), tc.target)
		})
	}

	g, err := Parse([]byte("accounts:\n  - {pubkey: \"0x1234\", balance: 1}\n"))
	require.NoError(t, err)
	assert.Error(t, g.Seed(statemachine.NewAccountTable(4)))
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("accounts:\n  - {pubkey: \"" + keyA + "\", amount: 1}\n"))
	assert.Error(t, err)
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestTotalBalanceSaturates(t *testing.T) {
	g := &Genesis{Accounts: []GenesisAccount{
		{PubKey: keyA, Balance: math.MaxUint64 - 1},
		{PubKey: keyB, Balance: 5},
	}}
	assert.Equal(t, uint64(math.MaxUint64), g.TotalBalance())
}
