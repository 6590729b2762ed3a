package types

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
)

type typeRegistry struct {
	uint8Ty   abi.Type
	uint64Ty  abi.Type
	bytes32Ty abi.Type
}

func newTypeRegistry() (*typeRegistry, error) {
	uint8Ty, err := abi.NewType("uint8", "", nil)
	if err != nil {
		return nil, err
	}
	uint64Ty, err := abi.NewType("uint64", "", nil)
	if err != nil {
		return nil, err
	}
	bytes32Ty, err := abi.NewType("bytes32", "", nil)
	if err != nil {
		return nil, err
	}
	return &typeRegistry{
		uint8Ty:   uint8Ty,
		uint64Ty:  uint64Ty,
		bytes32Ty: bytes32Ty,
	}, nil
}
