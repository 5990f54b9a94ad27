package payments

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"
)

// Processor applies events to a Store, one at a time and in arrival order.
//
// Each event is either applied completely or rejected without any change to
// the store. Rejections are reported to the sink and never stop a stream.
type Processor struct {
	store *Store
	sink  Sink
	seq   uint64
	stats Stats
}

// Stats counts the events seen by a Processor.
type Stats struct {
	Applied  int
	Rejected int
	ByKind   map[ErrorKind]int // ByKind counts rejections by reason.
}

// NewProcessor creates a processor mutating store. A nil sink discards rejections.
func NewProcessor(store *Store, sink Sink) *Processor {
	if sink == nil {
		sink = Discard
	}
	return &Processor{
		store: store,
		sink:  sink,
		stats: Stats{ByKind: make(map[ErrorKind]int)},
	}
}

// Store returns the store mutated by this processor.
func (p *Processor) Store() *Store { return p.store }

// Stats returns a copy of the processing counters.
func (p *Processor) Stats() Stats {
	s := p.stats
	s.ByKind = maps.Clone(p.stats.ByKind)
	return s
}

// Run applies every event of the stream.
//
// Events the source could not decode (*DecodeError) are reported as rejections
// and skipped. Any other source error ends the run and is returned. When ctx is
// done, Run stops after the event being applied and returns ctx.Err(). In all
// cases the store is left consistent and can be snapshotted.
func (p *Processor) Run(ctx context.Context, events iter.Seq2[Event, error]) error {
	for e, err := range events {
		if err != nil {
			var de *DecodeError
			if !errors.As(err, &de) {
				return err
			}
			p.seq++
			p.reject(&Rejection{Seq: p.seq, Type: de.Type, Client: de.Client, Tx: de.Tx, Err: de.Err})
		} else {
			p.Apply(e)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Apply applies a single event. On violation it returns a *Rejection, which has
// also been reported to the sink.
func (p *Processor) Apply(e Event) error {
	p.seq++
	if err := p.apply(e); err != nil {
		r := &Rejection{Seq: p.seq, Type: e.What(), Client: e.ClientID(), Tx: e.TxID(), Err: err}
		p.reject(r)
		return r
	}
	p.stats.Applied++
	return nil
}

func (p *Processor) reject(r *Rejection) {
	p.stats.Rejected++
	p.stats.ByKind[r.Kind()]++
	p.sink.Reject(*r)
}

func (p *Processor) apply(e Event) error {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()

	switch v := e.(type) {
	case Deposit:
		return p.deposit(v)
	case Withdrawal:
		return p.withdraw(v)
	case Dispute:
		return p.settle(v, StateDisputed)
	case Resolve:
		return p.settle(v, StateResolved)
	case Chargeback:
		return p.settle(v, StateChargedBack)
	default:
		return fmt.Errorf("%w: unsupported event %T", ErrMalformedEvent, e)
	}
}

// open checks the preconditions shared by deposits and withdrawals and
// returns the account they apply to.
func (p *Processor) open(e Event, amount Amount) (Account, error) {
	if !amount.IsPositive() {
		return Account{}, fmt.Errorf("%w: %s must be positive", ErrInvalidAmount, amount)
	}
	if p.store.known(e.TxID()) {
		return Account{}, fmt.Errorf("%w: %d", ErrDuplicateTransaction, e.TxID())
	}
	acc, _ := p.store.account(e.ClientID())
	if acc.Locked {
		return Account{}, fmt.Errorf("%w: client %d", ErrAccountLocked, acc.Client)
	}
	return acc, nil
}

func (p *Processor) deposit(e Deposit) error {
	acc, err := p.open(e, e.Amount)
	if err != nil {
		return err
	}
	next, err := acc.credit(e.Amount)
	if err != nil {
		return err
	}
	*p.store.getOrCreate(e.Client) = next
	p.store.record(e.Tx, e.Client, TypeDeposit, e.Amount)
	return nil
}

func (p *Processor) withdraw(e Withdrawal) error {
	acc, err := p.open(e, e.Amount)
	if err != nil {
		return err
	}
	next, err := acc.debit(e.Amount)
	if errors.Is(err, ErrInsufficientFunds) {
		return fmt.Errorf("%w: available %s, requested %s", ErrInsufficientFunds, acc.Available, e.Amount)
	}
	if err != nil {
		return err
	}
	*p.store.getOrCreate(e.Client) = next
	p.store.record(e.Tx, e.Client, TypeWithdrawal, e.Amount)
	return nil
}

// settle drives the dispute lifecycle of the transaction referenced by e to
// state next, moving funds accordingly.
func (p *Processor) settle(e Event, next DisputeState) error {
	r, err := p.store.find(e.TxID())
	if err != nil {
		return err
	}
	if r.Client != e.ClientID() {
		return fmt.Errorf("%w: tx %d belongs to client %d", ErrClientMismatch, r.ID, r.Client)
	}
	if err := r.allows(next); err != nil {
		return err
	}
	if next == StateDisputed && r.Kind != TypeDeposit {
		return fmt.Errorf("%w: tx %d is a %s, only deposits can be disputed", ErrInvalidStateTransition, r.ID, r.Kind)
	}

	acc, _ := p.store.account(r.Client)
	var updated Account
	switch next {
	case StateDisputed:
		updated, err = acc.hold(r.Amount)
	case StateResolved:
		updated, err = acc.release(r.Amount)
	case StateChargedBack:
		updated, err = acc.chargeback(r.Amount)
	}
	if err != nil {
		return err
	}
	*p.store.getOrCreate(r.Client) = updated
	r.State = next
	p.store.settle(r)
	return nil
}
