package types

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	// RecordVersion is the layout version stored in the first word of every
	// record.
	RecordVersion = 1

	recordWords = 10
	// RecordSize is the width in bytes of one encoded instruction.
	RecordSize = recordWords * 32
)

var (
	ErrRecordSize    = errors.New("invalid record size")
	ErrRecordVersion = errors.New("unsupported record version")
	ErrRecordField   = errors.New("invalid record field")
)

// Record layout, one big-endian 32 byte word each:
//
//	0 version  1 kind  2 from  3 fee  4 state
//	5 signature[0:32]  6 signature[32:64]
//	7 key  8 amount  9 count
//
// key/amount hold Transfer.To/Amount or Balance.Target/Amount; amount/count
// hold Range.Start/Count.
func createInstructionArguments(r *typeRegistry) abi.Arguments {
	return abi.Arguments([]abi.Argument{
		{Name: "version", Type: r.uint8Ty, Indexed: false},
		{Name: "kind", Type: r.uint8Ty, Indexed: false},
		{Name: "from", Type: r.bytes32Ty, Indexed: false},
		{Name: "fee", Type: r.uint64Ty, Indexed: false},
		{Name: "state", Type: r.uint8Ty, Indexed: false},
		{Name: "signatureHigh", Type: r.bytes32Ty, Indexed: false},
		{Name: "signatureLow", Type: r.bytes32Ty, Indexed: false},
		{Name: "key", Type: r.bytes32Ty, Indexed: false},
		{Name: "amount", Type: r.uint64Ty, Indexed: false},
		{Name: "count", Type: r.uint64Ty, Indexed: false},
	})
}

func (i *Instruction) payload() (key [32]byte, amount uint64, count uint64) {
	switch i.Kind {
	case InstructionKindTransfer:
		return i.Transfer.To, i.Transfer.Amount, 0
	case InstructionKindBalanceQuery:
		return i.Balance.Target, i.Balance.Amount, 0
	case InstructionKindRangeRequest:
		return key, i.Range.Start, i.Range.Count
	}
	return key, 0, 0
}

// Serialize encodes the instruction into exactly RecordSize bytes.
func (i *Instruction) Serialize(s *Serializer) ([]byte, error) {
	if !i.Kind.Valid() || !i.State.Valid() {
		return nil, fmt.Errorf("serialize instruction kind %d state %d: %w", i.Kind, i.State, ErrRecordField)
	}
	var sigHigh, sigLow [32]byte
	copy(sigHigh[:], i.Signature[:32])
	copy(sigLow[:], i.Signature[32:])
	key, amount, count := i.payload()
	data, err := s.instructionArguments.Pack(
		uint8(RecordVersion),
		uint8(i.Kind),
		[32]byte(i.From),
		i.Fee,
		uint8(i.State),
		sigHigh,
		sigLow,
		key,
		amount,
		count,
	)
	if err != nil {
		return nil, fmt.Errorf("serialize instruction: %w", err)
	}
	if len(data) != RecordSize {
		return nil, fmt.Errorf("serialize instruction: %d bytes: %w", len(data), ErrRecordSize)
	}
	return data, nil
}

// DeserializeInstruction decodes one record produced by Serialize.
func (s *Serializer) DeserializeInstruction(data []byte) (*Instruction, error) {
	if len(data) != RecordSize {
		return nil, fmt.Errorf("deserialize instruction: %d bytes: %w", len(data), ErrRecordSize)
	}
	values, err := s.instructionArguments.UnpackValues(data)
	if err != nil {
		return nil, fmt.Errorf("deserialize instruction: %w", err)
	}
	if len(values) != recordWords {
		return nil, fmt.Errorf("deserialize instruction: %d values: %w", len(values), ErrRecordSize)
	}
	r := &recordValues{values: values}
	version := r.uint8At(0)
	kind := r.uint8At(1)
	from := r.bytes32At(2)
	fee := r.uint64At(3)
	state := r.uint8At(4)
	sigHigh := r.bytes32At(5)
	sigLow := r.bytes32At(6)
	key := r.bytes32At(7)
	amount := r.uint64At(8)
	count := r.uint64At(9)
	if r.err != nil {
		return nil, fmt.Errorf("deserialize instruction: %w", r.err)
	}
	if version != RecordVersion {
		return nil, fmt.Errorf("deserialize instruction: version %d: %w", version, ErrRecordVersion)
	}

	inst := &Instruction{
		Kind:  InstructionKind(kind),
		From:  PublicKey(from),
		Fee:   fee,
		State: ResultState(state),
	}
	if !inst.Kind.Valid() || !inst.State.Valid() {
		return nil, fmt.Errorf("deserialize instruction kind %d state %d: %w", kind, state, ErrRecordField)
	}
	copy(inst.Signature[:32], sigHigh[:])
	copy(inst.Signature[32:], sigLow[:])
	switch inst.Kind {
	case InstructionKindTransfer:
		inst.Transfer = Transfer{To: PublicKey(key), Amount: amount}
	case InstructionKindBalanceQuery:
		inst.Balance = BalanceQuery{Target: PublicKey(key), Amount: amount}
	case InstructionKindRangeRequest:
		inst.Range = RangeRequest{Start: amount, Count: count}
	}
	return inst, nil
}

// SerializeBatch encodes a batch into one contiguous buffer of
// len(batch)*RecordSize bytes.
func (s *Serializer) SerializeBatch(batch []*Instruction) ([]byte, error) {
	buf := make([]byte, 0, len(batch)*RecordSize)
	for _, inst := range batch {
		data, err := inst.Serialize(s)
		if err != nil {
			return nil, err
		}
		buf = append(buf, data...)
	}
	return buf, nil
}

// DeserializeBatch decodes a buffer produced by SerializeBatch.
func (s *Serializer) DeserializeBatch(data []byte) ([]*Instruction, error) {
	if len(data)%RecordSize != 0 {
		return nil, fmt.Errorf("deserialize batch: %d bytes: %w", len(data), ErrRecordSize)
	}
	batch := make([]*Instruction, 0, len(data)/RecordSize)
	for off := 0; off < len(data); off += RecordSize {
		inst, err := s.DeserializeInstruction(data[off : off+RecordSize])
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", off/RecordSize, err)
		}
		batch = append(batch, inst)
	}
	return batch, nil
}

// recordValues type-asserts unpacked ABI values, keeping the first failure.
type recordValues struct {
	values []interface{}
	err    error
}

func (r *recordValues) fail(i int, v interface{}) {
	if r.err == nil {
		r.err = fmt.Errorf("word %d has type %T: %w", i, v, ErrRecordField)
	}
}

func (r *recordValues) uint8At(i int) uint8 {
	v, ok := r.values[i].(uint8)
	if !ok {
		r.fail(i, r.values[i])
	}
	return v
}

func (r *recordValues) uint64At(i int) uint64 {
	v, ok := r.values[i].(uint64)
	if !ok {
		r.fail(i, r.values[i])
	}
	return v
}

func (r *recordValues) bytes32At(i int) [32]byte {
	v, ok := r.values[i].([32]byte)
	if !ok {
		r.fail(i, r.values[i])
	}
	return v
}
