package payments

import (
	"errors"
	"fmt"
)

// Errors reported for rejected events. A rejected event leaves the store
// untouched.
var (
	ErrDuplicateTransaction   = errors.New("duplicate transaction id")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrUnknownTransaction     = errors.New("unknown transaction")
	ErrClientMismatch         = errors.New("client mismatch")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrAccountLocked          = errors.New("account locked")
	ErrAmountOverflow         = errors.New("amount overflow")
	ErrMalformedEvent         = errors.New("malformed event")
	ErrDisputeWindowExpired   = errors.New("dispute window expired")
)

// ErrorKind names the reason of a rejection, for error sinks.
type ErrorKind string

const (
	KindDuplicateTransaction   ErrorKind = "duplicate_transaction"
	KindInvalidAmount          ErrorKind = "invalid_amount"
	KindInsufficientFunds      ErrorKind = "insufficient_funds"
	KindUnknownTransaction     ErrorKind = "unknown_transaction"
	KindClientMismatch         ErrorKind = "client_mismatch"
	KindInvalidStateTransition ErrorKind = "invalid_state_transition"
	KindAccountLocked          ErrorKind = "account_locked"
	KindAmountOverflow         ErrorKind = "amount_overflow"
	KindMalformedEvent         ErrorKind = "malformed_event"
	KindDisputeWindowExpired   ErrorKind = "dispute_window_expired"
	KindUnknown                ErrorKind = "unknown"
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrDuplicateTransaction, KindDuplicateTransaction},
	{ErrInvalidAmount, KindInvalidAmount},
	{ErrInsufficientFunds, KindInsufficientFunds},
	{ErrUnknownTransaction, KindUnknownTransaction},
	{ErrClientMismatch, KindClientMismatch},
	{ErrInvalidStateTransition, KindInvalidStateTransition},
	{ErrAccountLocked, KindAccountLocked},
	{ErrAmountOverflow, KindAmountOverflow},
	{ErrMalformedEvent, KindMalformedEvent},
	{ErrDisputeWindowExpired, KindDisputeWindowExpired},
}

// KindOf returns the kind of err, or KindUnknown.
func KindOf(err error) ErrorKind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// Rejection describes an event that could not be applied. Sinks receive it by
// value; *Rejection is the error returned by Processor.Apply.
type Rejection struct {
	Seq    uint64    // Seq is the position of the event in the stream, starting at 1.
	Type   EventType // Type is the event type, empty if it could not be decoded.
	Client ClientID
	Tx     TxID
	Err    error
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s tx %d for client %d rejected: %v", r.Type, r.Tx, r.Client, r.Err)
}

func (r *Rejection) Unwrap() error { return r.Err }

// Kind returns the kind of the rejection reason.
func (r *Rejection) Kind() ErrorKind { return KindOf(r.Err) }

// DecodeError is a problem with a single input record. Sources yield it and
// keep going, the processor reports it as a rejection.
type DecodeError struct {
	Line   int // Line is the 1-based record position in the input, 0 if unknown.
	Type   EventType
	Client ClientID
	Tx     TxID
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }
