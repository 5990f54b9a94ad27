package payments

import "fmt"

// DisputeState is the dispute lifecycle of a recorded transaction.
//
//	None -> Disputed -> Resolved
//	                 -> ChargedBack
//
// Resolved and ChargedBack are terminal.
type DisputeState int

const (
	StateNone DisputeState = iota
	StateDisputed
	StateResolved
	StateChargedBack
)

func (s DisputeState) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateDisputed:
		return "disputed"
	case StateResolved:
		return "resolved"
	case StateChargedBack:
		return "charged-back"
	default:
		return "unknown"
	}
}

// Record is a deposit or withdrawal kept for later dispute lookup.
type Record struct {
	ID     TxID
	Client ClientID
	Kind   EventType // Kind is TypeDeposit or TypeWithdrawal.
	Amount Amount
	State  DisputeState
	Seq    uint64 // Seq is the number of records stored before and including this one.
}

// allows returns an error wrapping ErrInvalidStateTransition unless the
// record may move to state next.
func (r *Record) allows(next DisputeState) error {
	ok := false
	switch next {
	case StateDisputed:
		ok = r.State == StateNone
	case StateResolved, StateChargedBack:
		ok = r.State == StateDisputed
	}
	if !ok {
		return fmt.Errorf("%w: tx %d is %s, cannot become %s", ErrInvalidStateTransition, r.ID, r.State, next)
	}
	return nil
}
