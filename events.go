package payments

import (
	"fmt"
	"strconv"
	"strings"
)

// ClientID identifies a client account.
type ClientID uint16

// TxID identifies a transaction, unique across the whole stream.
type TxID uint32

// ParseClientID parses a positive client id.
func ParseClientID(s string) (ClientID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("%w: invalid client id %q", ErrMalformedEvent, s)
	}
	return ClientID(v), nil
}

// ParseTxID parses a positive transaction id.
func ParseTxID(s string) (TxID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("%w: invalid tx id %q", ErrMalformedEvent, s)
	}
	return TxID(v), nil
}

// EventType is a typed string for identifying events.
type EventType string

// Event types, as they appear in input streams.
const (
	TypeDeposit    EventType = "deposit"
	TypeWithdrawal EventType = "withdrawal"
	TypeDispute    EventType = "dispute"
	TypeResolve    EventType = "resolve"
	TypeChargeback EventType = "chargeback"
)

// ParseEventType parses an event type, ignoring case and surrounding spaces.
func ParseEventType(s string) (EventType, error) {
	switch t := EventType(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeDeposit, TypeWithdrawal, TypeDispute, TypeResolve, TypeChargeback:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown event type %q", ErrMalformedEvent, s)
	}
}

// HasAmount reports whether events of this type carry an amount.
func (t EventType) HasAmount() bool {
	return t == TypeDeposit || t == TypeWithdrawal
}

// Event is one incoming transaction event.
//
// The set of implementations is closed: Deposit, Withdrawal, Dispute, Resolve
// and Chargeback.
type Event interface {
	What() EventType    // What returns the type of the event.
	ClientID() ClientID // ClientID returns the account the event is addressed to.
	TxID() TxID         // TxID returns the transaction the event creates or references.
	event()
}

type baseEvent struct {
	Client ClientID
	Tx     TxID
}

func (e baseEvent) ClientID() ClientID { return e.Client }
func (e baseEvent) TxID() TxID         { return e.Tx }
func (baseEvent) event()               {}

// Deposit credits an account.
type Deposit struct {
	baseEvent
	Amount Amount
}

// NewDeposit creates a new Deposit event.
func NewDeposit(client ClientID, tx TxID, amount Amount) Deposit {
	return Deposit{baseEvent: baseEvent{Client: client, Tx: tx}, Amount: amount}
}

func (Deposit) What() EventType { return TypeDeposit }

// Withdrawal debits an account.
type Withdrawal struct {
	baseEvent
	Amount Amount
}

// NewWithdrawal creates a new Withdrawal event.
func NewWithdrawal(client ClientID, tx TxID, amount Amount) Withdrawal {
	return Withdrawal{baseEvent: baseEvent{Client: client, Tx: tx}, Amount: amount}
}

func (Withdrawal) What() EventType { return TypeWithdrawal }

// Dispute claims that the referenced deposit was erroneous and holds its funds.
type Dispute struct{ baseEvent }

// NewDispute creates a new Dispute event referencing tx.
func NewDispute(client ClientID, tx TxID) Dispute {
	return Dispute{baseEvent{Client: client, Tx: tx}}
}

func (Dispute) What() EventType { return TypeDispute }

// Resolve ends a dispute and releases the held funds.
type Resolve struct{ baseEvent }

// NewResolve creates a new Resolve event referencing tx.
func NewResolve(client ClientID, tx TxID) Resolve {
	return Resolve{baseEvent{Client: client, Tx: tx}}
}

func (Resolve) What() EventType { return TypeResolve }

// Chargeback ends a dispute by withdrawing the held funds and freezing the account.
type Chargeback struct{ baseEvent }

// NewChargeback creates a new Chargeback event referencing tx.
func NewChargeback(client ClientID, tx TxID) Chargeback {
	return Chargeback{baseEvent{Client: client, Tx: tx}}
}

func (Chargeback) What() EventType { return TypeChargeback }

// NewEvent builds the event of type t. amount is ignored for dispute-family
// types.
func NewEvent(t EventType, client ClientID, tx TxID, amount Amount) (Event, error) {
	switch t {
	case TypeDeposit:
		return NewDeposit(client, tx, amount), nil
	case TypeWithdrawal:
		return NewWithdrawal(client, tx, amount), nil
	case TypeDispute:
		return NewDispute(client, tx), nil
	case TypeResolve:
		return NewResolve(client, tx), nil
	case TypeChargeback:
		return NewChargeback(client, tx), nil
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", ErrMalformedEvent, t)
	}
}

// amountOf returns the amount carried by e, if any.
func amountOf(e Event) (Amount, bool) {
	switch v := e.(type) {
	case Deposit:
		return v.Amount, true
	case Withdrawal:
		return v.Amount, true
	default:
		return Amount{}, false
	}
}
