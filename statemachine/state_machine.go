package statemachine

import (
	"errors"
	"math"

	"github.com/celer-network/go-ledger/hashtable"
	"github.com/celer-network/go-ledger/log"
	"github.com/celer-network/go-ledger/types"
)

var logger = log.NewLogger("statemachine")

// StateMachine executes instruction batches against an account table. It is
// not safe for concurrent use; a single dispatcher owns it.
type StateMachine struct {
	table *AccountTable
}

func NewStateMachine(table *AccountTable) *StateMachine {
	return &StateMachine{table: table}
}

func (sm *StateMachine) Table() *AccountTable {
	return sm.table
}

// Execute applies batch in order and returns the number of accounts it
// created. Transfers that cannot be settled are dropped and keep their
// Pending state. RangeRequests are left to the ledger.
//
// When the table runs out of slots while resolving a payee, the batch is
// split at that instruction: everything before it stands, the table grows
// and execution resumes with the same instruction. Growing here is safe
// because no slot index outlives a single instruction: payer and payee are
// located again after the migration.
func (sm *StateMachine) Execute(batch []*types.Instruction) (int, error) {
	created := 0
	for i, ins := range batch {
		if ins == nil {
			continue
		}
		switch ins.Kind {
		case types.InstructionKindTransfer:
			for {
				isNew, err := sm.applyTransfer(ins)
				if err == nil {
					if isNew {
						created++
					}
					break
				}
				if !errors.Is(err, hashtable.ErrNoSpace) {
					return created, err
				}
				logger.Warn().Int("index", i).Int("capacity", sm.table.Capacity()).Msg("Account table full, growing mid batch")
				if err = sm.table.Grow(); err != nil {
					return created, err
				}
			}
		case types.InstructionKindBalanceQuery:
			sm.applyBalanceQuery(ins)
		}
	}
	logger.Debug().Int("size", len(batch)).Int("created", created).Int("used", sm.table.Used()).Msg("Executed batch")
	return created, nil
}

// ApplyBatch executes batch and then applies the growth policy.
func (sm *StateMachine) ApplyBatch(batch []*types.Instruction) (int, error) {
	created, err := sm.Execute(batch)
	if err != nil {
		return created, err
	}
	grew, err := sm.table.MaybeGrow()
	if err != nil {
		return created, err
	}
	if grew {
		logger.Debug().Int("capacity", sm.table.Capacity()).Int("used", sm.table.Used()).Msg("Grew account table")
	}
	return created, nil
}

// applyTransfer settles a single transfer and reports whether it created the
// payee. The only error it returns is hashtable.ErrNoSpace from resolving the
// payee, before anything was mutated.
func (sm *StateMachine) applyTransfer(ins *types.Instruction) (bool, error) {
	ins.State = types.ResultPending
	from := ins.From
	to := ins.Transfer.To
	amount := ins.Transfer.Amount
	if from.Unused() || to.Unused() {
		return false, nil
	}

	// Locate
	accounts := sm.table.accounts
	payer, err := sm.table.find(from)
	if err != nil || accounts[payer].Owner != from {
		return false, nil
	}
	payee, err := sm.table.find(to)
	if err != nil {
		return false, err
	}
	payeeOwner := accounts[payee].Owner
	if !payeeOwner.Unused() && payeeOwner != to {
		return false, nil
	}
	if payee != payer && accounts[payee].Balance > math.MaxUint64-amount {
		return false, nil
	}

	// Withdraw
	if amount > math.MaxUint64-ins.Fee {
		return false, nil
	}
	debit := amount + ins.Fee
	if accounts[payer].Balance < debit {
		return false, nil
	}
	accounts[payer].Balance -= debit
	ins.State = types.ResultWithdrawn

	// Deposit
	isNew := false
	if payeeOwner.Unused() {
		accounts[payee].Owner = to
		sm.table.used++
		isNew = true
	}
	accounts[payee].Balance += amount
	ins.State = types.ResultDeposited
	return isNew, nil
}

func (sm *StateMachine) applyBalanceQuery(ins *types.Instruction) {
	account, err := sm.table.Get(ins.Balance.Target)
	if err != nil {
		ins.Balance.Amount = 0
		return
	}
	ins.Balance.Amount = account.Balance
}
