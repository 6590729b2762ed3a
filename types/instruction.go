package types

type InstructionKind uint8

const (
	InstructionKindTransfer InstructionKind = iota
	InstructionKindBalanceQuery
	InstructionKindRangeRequest
)

func (k InstructionKind) String() string {
	switch k {
	case InstructionKindTransfer:
		return "transfer"
	case InstructionKindBalanceQuery:
		return "balance_query"
	case InstructionKindRangeRequest:
		return "range_request"
	}
	return "unknown"
}

func (k InstructionKind) Valid() bool {
	return k <= InstructionKindRangeRequest
}

// ResultState tracks how far a transfer got during settlement.
type ResultState uint8

const (
	ResultPending ResultState = iota
	ResultWithdrawn
	ResultDeposited
)

func (s ResultState) String() string {
	switch s {
	case ResultPending:
		return "pending"
	case ResultWithdrawn:
		return "withdrawn"
	case ResultDeposited:
		return "deposited"
	}
	return "unknown"
}

func (s ResultState) Valid() bool {
	return s <= ResultDeposited
}

const SignatureLength = 64

// Signature is carried verbatim; it is verified before instructions reach
// the state machine.
type Signature [SignatureLength]byte

type Transfer struct {
	To     PublicKey
	Amount uint64
}

// BalanceQuery asks for the balance of Target. Amount is filled in by the
// state machine.
type BalanceQuery struct {
	Target PublicKey
	Amount uint64
}

// RangeRequest asks for Count ledger records starting at Start.
type RangeRequest struct {
	Start uint64
	Count uint64
}

// Instruction is a signed message. Only the payload matching Kind is
// meaningful.
type Instruction struct {
	Kind      InstructionKind
	From      PublicKey
	Fee       uint64
	State     ResultState
	Signature Signature

	Transfer Transfer
	Balance  BalanceQuery
	Range    RangeRequest
}

func NewTransfer(from PublicKey, to PublicKey, amount uint64, fee uint64) *Instruction {
	return &Instruction{
		Kind:     InstructionKindTransfer,
		From:     from,
		Fee:      fee,
		Transfer: Transfer{To: to, Amount: amount},
	}
}

func NewBalanceQuery(from PublicKey, target PublicKey, fee uint64) *Instruction {
	return &Instruction{
		Kind:    InstructionKindBalanceQuery,
		From:    from,
		Fee:     fee,
		Balance: BalanceQuery{Target: target},
	}
}

func NewRangeRequest(from PublicKey, start uint64, count uint64) *Instruction {
	return &Instruction{
		Kind:  InstructionKindRangeRequest,
		From:  from,
		Range: RangeRequest{Start: start, Count: count},
	}
}

// Settled reports whether a transfer completed both withdraw and deposit. A
// transfer that was executed but is not settled failed or was dropped.
func (i *Instruction) Settled() bool {
	return i.Kind == InstructionKindTransfer && i.State == ResultDeposited
}
