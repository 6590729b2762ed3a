package types

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/minio/sha256-simd"
)

const PublicKeyLength = 32

// PublicKey identifies an account. The all-zero key marks an unused slot.
type PublicKey [PublicKeyLength]byte

// Start derives the probe start slot from the key's SHA-256 digest.
func (k PublicKey) Start() uint64 {
	sum := sha256.Sum256(k[:])
	return binary.BigEndian.Uint64(sum[:8])
}

func (k PublicKey) Unused() bool {
	return k == PublicKey{}
}

func (k PublicKey) Bytes() []byte {
	return k[:]
}

func (k PublicKey) Hex() string {
	return hexutil.Encode(k[:])
}

func (k PublicKey) String() string {
	return k.Hex()
}

func (k PublicKey) MarshalText() ([]byte, error) {
	return hexutil.Bytes(k[:]).MarshalText()
}

func (k *PublicKey) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("PublicKey", input, k[:])
}

// HexToPublicKey parses a 0x-prefixed 32 byte hex string.
func HexToPublicKey(s string) (PublicKey, error) {
	var k PublicKey
	b, err := hexutil.Decode(s)
	if err != nil {
		return k, fmt.Errorf("decode public key %q: %w", s, err)
	}
	if len(b) != PublicKeyLength {
		return k, fmt.Errorf("public key %q has %d bytes, want %d", s, len(b), PublicKeyLength)
	}
	copy(k[:], b)
	return k, nil
}

// BytesToPublicKey copies b into a key, left-padding or keeping the last 32
// bytes like common.BytesToHash.
func BytesToPublicKey(b []byte) PublicKey {
	var k PublicKey
	if len(b) > PublicKeyLength {
		b = b[len(b)-PublicKeyLength:]
	}
	copy(k[PublicKeyLength-len(b):], b)
	return k
}

// Account is one slot of the account table.
type Account struct {
	Owner   PublicKey
	Balance uint64
}

func (a Account) Key() PublicKey {
	return a.Owner
}
