package ledger

import (
	"fmt"

	"github.com/celer-network/go-ledger/types"
)

// DefaultReplayChunk is the number of records fed to the executor at a time
// during replay.
const DefaultReplayChunk = 1024

// Executor applies a batch of instructions, as statemachine.StateMachine
// does.
type Executor interface {
	ApplyBatch(batch []*types.Instruction) (int, error)
}

type Ledger struct {
	store      Store
	serializer *types.Serializer
}

func NewLedger(store Store, serializer *types.Serializer) *Ledger {
	return &Ledger{
		store:      store,
		serializer: serializer,
	}
}

func (l *Ledger) Len() uint64 {
	return l.store.Len()
}

// Append writes batch at the end of the log and returns the offset of its
// first record.
func (l *Ledger) Append(batch []*types.Instruction) (uint64, error) {
	offset := l.store.Len()
	raw, err := l.serializer.SerializeBatch(batch)
	if err != nil {
		return offset, err
	}
	if err = l.store.Append(raw); err != nil {
		return offset, err
	}
	logger.Debug().Uint64("offset", offset).Int("records", len(batch)).Msg("Appended to ledger")
	return offset, nil
}

// LoadRaw returns count encoded records starting at start.
func (l *Ledger) LoadRaw(start uint64, count uint64) ([]byte, error) {
	return l.store.Read(start, count)
}

// Load returns count decoded instructions starting at start.
func (l *Ledger) Load(start uint64, count uint64) ([]*types.Instruction, error) {
	raw, err := l.store.Read(start, count)
	if err != nil {
		return nil, err
	}
	batch, err := l.serializer.DeserializeBatch(raw)
	if err != nil {
		return nil, fmt.Errorf("decode records %d-%d: %w", start, start+count, err)
	}
	return batch, nil
}

// ReplayAll feeds the whole log, in order, to executor in chunks of chunk
// records and returns the number of replayed records. A chunk of 0 uses
// DefaultReplayChunk.
func (l *Ledger) ReplayAll(executor Executor, chunk uint64) (uint64, error) {
	if chunk == 0 {
		chunk = DefaultReplayChunk
	}
	length := l.store.Len()
	for start := uint64(0); start < length; start += chunk {
		count := chunk
		if length-start < count {
			count = length - start
		}
		batch, err := l.Load(start, count)
		if err != nil {
			return start, err
		}
		if _, err = executor.ApplyBatch(batch); err != nil {
			return start, fmt.Errorf("replay records %d-%d: %w", start, start+count, err)
		}
	}
	logger.Info().Uint64("records", length).Msg("Replayed ledger")
	return length, nil
}

// ServeRange answers a range request with the requested records, verbatim.
func (l *Ledger) ServeRange(req *types.Instruction) ([]byte, error) {
	if req == nil || req.Kind != types.InstructionKindRangeRequest {
		return nil, ErrNotRangeRequest
	}
	return l.LoadRaw(req.Range.Start, req.Range.Count)
}

func (l *Ledger) Close() error {
	return l.store.Close()
}
