package statemachine

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"golang.org/x/crypto/sha3"

	"github.com/celer-network/go-ledger/hashtable"
	"github.com/celer-network/go-ledger/types"
)

var (
	ErrKeyNotFound      = errors.New("account not found")
	ErrDuplicateAccount = errors.New("account already exists")
	ErrInvalidKey       = errors.New("invalid account key")
	// ErrAccountCount means the live slots disagree with the created account
	// count.
	ErrAccountCount = errors.New("account count mismatch")
)

// AccountTable indexes accounts by public key in an open-addressing table.
// Capacity only changes through Grow, which migrates into a table twice the
// size.
type AccountTable struct {
	accounts []types.Account
	used     int
}

func NewAccountTable(capacity int) *AccountTable {
	if capacity < 1 {
		capacity = 1
	}
	return &AccountTable{
		accounts: make([]types.Account, capacity),
	}
}

func (t *AccountTable) Capacity() int {
	return len(t.accounts)
}

// Used returns the number of live accounts.
func (t *AccountTable) Used() int {
	return t.used
}

func (t *AccountTable) find(key types.PublicKey) (int, error) {
	return hashtable.Find(t.accounts, key)
}

// Get returns a copy of the account owned by key.
func (t *AccountTable) Get(key types.PublicKey) (types.Account, error) {
	if key.Unused() {
		return types.Account{}, ErrInvalidKey
	}
	pos, err := t.find(key)
	if err != nil {
		if errors.Is(err, hashtable.ErrNoSpace) {
			return types.Account{}, ErrKeyNotFound
		}
		return types.Account{}, err
	}
	if t.accounts[pos].Owner != key {
		return types.Account{}, ErrKeyNotFound
	}
	return t.accounts[pos], nil
}

// Insert binds a new account, growing the table when it is full. It is
// used to seed the table from genesis.
func (t *AccountTable) Insert(account types.Account) error {
	if account.Owner.Unused() {
		return ErrInvalidKey
	}
	pos, err := t.find(account.Owner)
	if errors.Is(err, hashtable.ErrNoSpace) {
		if err = t.Grow(); err != nil {
			return err
		}
		pos, err = t.find(account.Owner)
	}
	if err != nil {
		return err
	}
	if !t.accounts[pos].Owner.Unused() {
		return fmt.Errorf("insert %s: %w", account.Owner.Hex(), ErrDuplicateAccount)
	}
	t.accounts[pos] = account
	t.used++
	return nil
}

// NeedsGrowth reports whether the load factor exceeds 3/4.
func (t *AccountTable) NeedsGrowth() bool {
	return 4*t.used > 3*len(t.accounts)
}

// Grow migrates every account into a table of double capacity. The live
// table is only replaced once the migration succeeded.
func (t *AccountTable) Grow() error {
	grown := make([]types.Account, 2*len(t.accounts))
	if err := hashtable.Migrate[types.PublicKey](t.accounts, grown); err != nil {
		return fmt.Errorf("grow account table to %d: %w", len(grown), err)
	}
	if live := hashtable.Count[types.PublicKey](grown); live != t.used {
		return fmt.Errorf("grow account table to %d: %w: %d live, %d created", len(grown), ErrAccountCount, live, t.used)
	}
	t.accounts = grown
	return nil
}

// MaybeGrow doubles the capacity until the load factor is back under 3/4
// and reports whether the table grew. It must only be called between
// batches.
func (t *AccountTable) MaybeGrow() (bool, error) {
	grew := false
	for t.NeedsGrowth() {
		if err := t.Grow(); err != nil {
			return grew, err
		}
		grew = true
	}
	return grew, nil
}

// Accounts returns the live accounts ordered by key.
func (t *AccountTable) Accounts() []types.Account {
	accounts := make([]types.Account, 0, t.used)
	for _, account := range t.accounts {
		if !account.Owner.Unused() {
			accounts = append(accounts, account)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		return bytes.Compare(accounts[i].Owner[:], accounts[j].Owner[:]) < 0
	})
	return accounts
}

// Digest hashes the ordered (key, balance) pairs with Keccak-256. Two tables
// holding the same accounts have the same digest whatever their capacity.
func (t *AccountTable) Digest() [32]byte {
	hasher := sha3.NewLegacyKeccak256()
	var balance [8]byte
	for _, account := range t.Accounts() {
		hasher.Write(account.Owner[:])
		binary.BigEndian.PutUint64(balance[:], account.Balance)
		hasher.Write(balance[:])
	}
	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// TotalBalance sums every balance in the table, saturating at MaxUint64.
func (t *AccountTable) TotalBalance() uint64 {
	var total uint64
	for _, account := range t.accounts {
		if account.Balance > math.MaxUint64-total {
			return math.MaxUint64
		}
		total += account.Balance
	}
	return total
}
