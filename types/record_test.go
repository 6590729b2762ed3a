package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSerializer(t *testing.T) *Serializer {
	s, err := NewSerializer()
	require.NoError(t, err)
	return s
}

func TestSerializeFixedWidth(t *testing.T) {
	s := newTestSerializer(t)
	from := BytesToPublicKey([]byte{1})
	to := BytesToPublicKey([]byte{2})

	batch := []*Instruction{
		NewTransfer(from, to, 100, 1),
		NewBalanceQuery(from, to, 1),
		NewRangeRequest(from, 5, 10),
	}
	for _, inst := range batch {
		data, err := inst.Serialize(s)
		require.NoError(t, err)
		assert.Len(t, data, RecordSize)
		assert.Equal(t, byte(RecordVersion), data[31])
		assert.Equal(t, byte(inst.Kind), data[63])
	}
}

func TestSerializeTransferLayout(t *testing.T) {
	s := newTestSerializer(t)
	from := BytesToPublicKey([]byte{0xaa})
	to := BytesToPublicKey([]byte{0xbb})
	inst := NewTransfer(from, to, 0x0102, 7)
	inst.State = ResultDeposited
	inst.Signature[0] = 0x11
	inst.Signature[63] = 0x22

	data, err := inst.Serialize(s)
	require.NoError(t, err)
	word := func(i int) []byte { return data[i*32 : (i+1)*32] }

	assert.Equal(t, from.Bytes(), word(2))
	assert.Equal(t, byte(7), word(3)[31])
	assert.Equal(t, byte(ResultDeposited), word(4)[31])
	assert.Equal(t, byte(0x11), word(5)[0])
	assert.Equal(t, byte(0x22), word(6)[31])
	assert.Equal(t, to.Bytes(), word(7))
	assert.Equal(t, []byte{0x01, 0x02}, word(8)[30:])

	decoded, err := s.DeserializeInstruction(data)
	require.NoError(t, err)
	assert.Equal(t, inst, decoded)
}

func TestDeserializeBatch(t *testing.T) {
	s := newTestSerializer(t)
	from := BytesToPublicKey([]byte{1})
	batch := []*Instruction{
		NewRangeRequest(from, 1<<40, 3),
		NewBalanceQuery(from, BytesToPublicKey([]byte{9}), 2),
	}
	batch[1].Balance.Amount = 55

	data, err := s.SerializeBatch(batch)
	require.NoError(t, err)
	assert.Len(t, data, 2*RecordSize)

	decoded, err := s.DeserializeBatch(data)
	require.NoError(t, err)
	assert.Equal(t, batch, decoded)
}

func TestDeserializeRejectsBadRecords(t *testing.T) {
	s := newTestSerializer(t)
	data, err := NewTransfer(BytesToPublicKey([]byte{1}), BytesToPublicKey([]byte{2}), 1, 1).Serialize(s)
	require.NoError(t, err)

	_, err = s.DeserializeInstruction(data[:RecordSize-1])
	assert.ErrorIs(t, err, ErrRecordSize)

	_, err = s.DeserializeBatch(append(data, 0))
	assert.ErrorIs(t, err, ErrRecordSize)

	badVersion := append([]byte(nil), data...)
	badVersion[31] = RecordVersion + 1
	_, err = s.DeserializeInstruction(badVersion)
	assert.ErrorIs(t, err, ErrRecordVersion)

	badKind := append([]byte(nil), data...)
	badKind[63] = 9
	_, err = s.DeserializeInstruction(badKind)
	assert.ErrorIs(t, err, ErrRecordField)
}

func TestSerializeRejectsInvalidState(t *testing.T) {
	s := newTestSerializer(t)
	inst := NewTransfer(BytesToPublicKey([]byte{1}), BytesToPublicKey([]byte{2}), 1, 1)
	inst.State = ResultState(42)
	_, err := inst.Serialize(s)
	assert.ErrorIs(t, err, ErrRecordField)
}
