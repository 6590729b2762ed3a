package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicKeyUnused(t *testing.T) {
	assert.True(t, PublicKey{}.Unused())
	assert.False(t, BytesToPublicKey([]byte{1}).Unused())
}

func TestPublicKeyStartIsDeterministic(t *testing.T) {
	a := BytesToPublicKey([]byte("alice"))
	b := BytesToPublicKey([]byte("bob"))
	assert.Equal(t, a.Start(), a.Start())
	assert.NotEqual(t, a.Start(), b.Start())
}

func TestHexToPublicKey(t *testing.T) {
	k := BytesToPublicKey([]byte{0xde, 0xad})
	parsed, err := HexToPublicKey(k.Hex())
	require.NoError(t, err)
	assert.Equal(t, k, parsed)

	_, err = HexToPublicKey("0xdead")
	assert.Error(t, err)
	_, err = HexToPublicKey("not hex")
	assert.Error(t, err)
}

func TestPublicKeyText(t *testing.T) {
	k := BytesToPublicKey([]byte{7})
	text, err := k.MarshalText()
	require.NoError(t, err)

	var decoded PublicKey
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, k, decoded)
}

func TestInstructionSettled(t *testing.T) {
	inst := NewTransfer(BytesToPublicKey([]byte{1}), BytesToPublicKey([]byte{2}), 1, 0)
	assert.False(t, inst.Settled())
	inst.State = ResultDeposited
	assert.True(t, inst.Settled())

	query := NewBalanceQuery(BytesToPublicKey([]byte{1}), BytesToPublicKey([]byte{2}), 0)
	query.State = ResultDeposited
	assert.False(t, query.Settled())
}
