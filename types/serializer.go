package types

import "github.com/ethereum/go-ethereum/accounts/abi"

// Serializer encodes instructions into ledger records. It only holds static
// ABI types, so every record has the same width.
type Serializer struct {
	typeRegistry         *typeRegistry
	instructionArguments abi.Arguments
}

func NewSerializer() (*Serializer, error) {
	typeRegistry, err := newTypeRegistry()
	if err != nil {
		return nil, err
	}
	return &Serializer{
		typeRegistry:         typeRegistry,
		instructionArguments: createInstructionArguments(typeRegistry),
	}, nil
}
