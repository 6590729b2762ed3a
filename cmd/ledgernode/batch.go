package main

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v2"

	"github.com/celer-network/go-ledger/types"
)

// batchEntry is one instruction of a yaml batch file. Only the fields of
// its kind are read.
type batchEntry struct {
	Kind   string `yaml:"kind"`
	From   string `yaml:"from"`
	Fee    uint64 `yaml:"fee"`
	To     string `yaml:"to"`
	Amount uint64 `yaml:"amount"`
	Target string `yaml:"target"`
	Start  uint64 `yaml:"start"`
	Count  uint64 `yaml:"count"`
}

type batchFile struct {
	Instructions []batchEntry `yaml:"instructions"`
}

func loadBatch(path string) ([]*types.Instruction, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch %s: %w", path, err)
	}
	return parseBatch(data)
}

func parseBatch(data []byte) ([]*types.Instruction, error) {
	var file batchFile
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return nil, fmt.Errorf("parse batch: %w", err)
	}
	batch := make([]*types.Instruction, 0, len(file.Instructions))
	for i, entry := range file.Instructions {
		ins, err := entry.instruction()
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		batch = append(batch, ins)
	}
	return batch, nil
}

func (e batchEntry) instruction() (*types.Instruction, error) {
	from, err := types.HexToPublicKey(e.From)
	if err != nil {
		return nil, err
	}
	switch e.Kind {
	case types.InstructionKindTransfer.String():
		to, err := types.HexToPublicKey(e.To)
		if err != nil {
			return nil, err
		}
		return types.NewTransfer(from, to, e.Amount, e.Fee), nil
	case types.InstructionKindBalanceQuery.String():
		target, err := types.HexToPublicKey(e.Target)
		if err != nil {
			return nil, err
		}
		return types.NewBalanceQuery(from, target, e.Fee), nil
	case types.InstructionKindRangeRequest.String():
		return types.NewRangeRequest(from, e.Start, e.Count), nil
	}
	return nil, fmt.Errorf("unknown kind %q", e.Kind)
}
