// Package genesis loads the initial account set a node starts from before
// replaying its ledger.
package genesis

import (
	"fmt"
	"io/ioutil"
	"math"

	"gopkg.in/yaml.v2"

	"github.com/celer-network/go-ledger/statemachine"
	"github.com/celer-network/go-ledger/types"
)

type GenesisAccount struct {
	PubKey  string `yaml:"pubkey"`
	Balance uint64 `yaml:"balance"`
}

type Genesis struct {
	Accounts []GenesisAccount `yaml:"accounts"`
}

// Load reads a genesis file of the form
//
//	accounts:
//	  - pubkey: "0x..."
//	    balance: 1000
func Load(path string) (*Genesis, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Genesis, error) {
	g := &Genesis{}
	if err := yaml.UnmarshalStrict(data, g); err != nil {
		return nil, fmt.Errorf("parse genesis: %w", err)
	}
	return g, nil
}

// Seed inserts every genesis account into table.
func (g *Genesis) Seed(table *statemachine.AccountTable) error {
	for i, a := range g.Accounts {
		key, err := types.HexToPublicKey(a.PubKey)
		if err != nil {
			return fmt.Errorf("genesis account %d: %w", i, err)
		}
		if err = table.Insert(types.Account{Owner: key, Balance: a.Balance}); err != nil {
			return fmt.Errorf("genesis account %d: %w", i, err)
		}
	}
	return nil
}

// TotalBalance is the supply the genesis file creates, saturating at
// MaxUint64.
func (g *Genesis) TotalBalance() uint64 {
	var total uint64
	for _, a := range g.Accounts {
		if a.Balance > math.MaxUint64-total {
			return math.MaxUint64
		}
		total += a.Balance
	}
	return total
}
