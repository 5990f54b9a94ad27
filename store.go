package payments

import (
	"fmt"
	"maps"
	"slices"

	"github.com/sasha-s/go-deadlock"
)

// Store is the ledger store: it owns client accounts and the index of
// deposits and withdrawals that disputes refer to.
//
// A Store has a single mutator, the Processor. Its lock only lets readers
// (snapshots, stats) observe whole events while a stream is being processed.
type Store struct {
	mu       deadlock.RWMutex
	accounts map[ClientID]*Account
	records  map[TxID]*Record

	// dispute window bookkeeping, unused when window is 0.
	window   uint64
	seq      uint64            // number of records ever stored
	queue    []TxID            // records still in the window, oldest first
	archived map[TxID]struct{} // records evicted from the index
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithDisputeWindow makes a recorded transaction undisputable once n more
// transactions have been recorded after it. Zero means no window.
//
// The window bounds the records kept in memory, not the set of transaction
// ids: the id of every evicted record is kept to detect duplicates, so memory
// still grows by one id per recorded transaction.
func WithDisputeWindow(n uint64) StoreOption {
	return func(s *Store) { s.window = n }
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		accounts: make(map[ClientID]*Account),
		records:  make(map[TxID]*Record),
		archived: make(map[TxID]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DisputeWindow returns the configured dispute window, 0 if none.
func (s *Store) DisputeWindow() uint64 { return s.window }

// GetOrCreate returns the account of client, creating an empty one if needed.
func (s *Store) GetOrCreate(client ClientID) *Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreate(client)
}

func (s *Store) getOrCreate(client ClientID) *Account {
	acc, ok := s.accounts[client]
	if !ok {
		a := NewAccount(client)
		acc = &a
		s.accounts[client] = acc
	}
	return acc
}

// Account returns a copy of the account of client, and whether it exists.
func (s *Store) Account(client ClientID) (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account(client)
}

// account returns the account of client, or a fresh one that is not stored.
func (s *Store) account(client ClientID) (Account, bool) {
	if acc, ok := s.accounts[client]; ok {
		return *acc, true
	}
	return NewAccount(client), false
}

// RecordTransaction stores a deposit or withdrawal in the dispute index.
func (s *Store) RecordTransaction(id TxID, client ClientID, kind EventType, amount Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if kind != TypeDeposit && kind != TypeWithdrawal {
		return fmt.Errorf("%w: %s transactions are not recorded", ErrMalformedEvent, kind)
	}
	if s.known(id) {
		return fmt.Errorf("%w: %d", ErrDuplicateTransaction, id)
	}
	s.record(id, client, kind, amount)
	return nil
}

// known reports whether id was ever recorded.
func (s *Store) known(id TxID) bool {
	if _, ok := s.records[id]; ok {
		return true
	}
	_, ok := s.archived[id]
	return ok
}

func (s *Store) record(id TxID, client ClientID, kind EventType, amount Amount) {
	s.seq++
	s.records[id] = &Record{ID: id, Client: client, Kind: kind, Amount: amount, Seq: s.seq}
	if s.window == 0 {
		return
	}
	s.queue = append(s.queue, id)
	for len(s.queue) > 0 {
		head, ok := s.records[s.queue[0]]
		if ok && head.Seq+s.window > s.seq {
			break
		}
		s.queue = s.queue[1:]
		if !ok || head.State == StateDisputed {
			// disputed records are archived when they settle.
			continue
		}
		s.archive(head)
	}
}

// settle archives r if it has left the dispute window while disputed.
func (s *Store) settle(r *Record) {
	if s.window == 0 || r.State == StateDisputed {
		return
	}
	if r.Seq+s.window <= s.seq {
		s.archive(r)
	}
}

func (s *Store) archive(r *Record) {
	delete(s.records, r.ID)
	s.archived[r.ID] = struct{}{}
}

// FindTransaction returns the recorded transaction id.
//
// It fails with ErrUnknownTransaction if id was never recorded, and with
// ErrDisputeWindowExpired if it left the dispute window.
func (s *Store) FindTransaction(id TxID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.find(id)
}

func (s *Store) find(id TxID) (*Record, error) {
	if r, ok := s.records[id]; ok {
		return r, nil
	}
	if _, ok := s.archived[id]; ok {
		return nil, fmt.Errorf("%w: tx %d", ErrDisputeWindowExpired, id)
	}
	return nil, fmt.Errorf("%w: tx %d", ErrUnknownTransaction, id)
}

// Snapshot returns a copy of all accounts, ordered by client id.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accounts := make([]Account, 0, len(s.accounts))
	for _, id := range slices.Sorted(maps.Keys(s.accounts)) {
		accounts = append(accounts, *s.accounts[id])
	}
	return Snapshot{accounts: accounts}
}

// StoreStats describes the size of a store.
type StoreStats struct {
	Accounts int // Accounts is the number of client accounts.
	Records  int // Records is the number of disputable transactions in the index.
	Archived int // Archived is the number of transactions evicted by the dispute window.
}

// Stats returns the current size of the store.
func (s *Store) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreStats{
		Accounts: len(s.accounts),
		Records:  len(s.records),
		Archived: len(s.archived),
	}
}
