package payments

import (
	"iter"
	"slices"
)

// Snapshot is an immutable view of all accounts at the end of a run, ordered
// by client id.
type Snapshot struct {
	accounts []Account
}

// NewSnapshot builds a snapshot from accounts, in any order.
func NewSnapshot(accounts ...Account) Snapshot {
	s := slices.Clone(accounts)
	slices.SortFunc(s, func(a, b Account) int { return int(a.Client) - int(b.Client) })
	return Snapshot{accounts: s}
}

// Len returns the number of accounts.
func (s Snapshot) Len() int { return len(s.accounts) }

// Accounts iterates over accounts in client id order.
func (s Snapshot) Accounts() iter.Seq[Account] {
	return slices.Values(s.accounts)
}

// Get returns the account of client, and whether it exists.
func (s Snapshot) Get(client ClientID) (Account, bool) {
	i, ok := slices.BinarySearchFunc(s.accounts, client, func(a Account, c ClientID) int {
		return int(a.Client) - int(c)
	})
	if !ok {
		return Account{}, false
	}
	return s.accounts[i], true
}

// Totals sums the balances of all accounts.
//
// The sums are exact but can exceed the range of a single account, so they are
// returned as raw decimal amounts.
func (s Snapshot) Totals() (available, held, total Amount) {
	for _, a := range s.accounts {
		available.value = available.value.Add(a.Available.value)
		held.value = held.value.Add(a.Held.value)
	}
	total.value = available.value.Add(held.value)
	return available, held, total
}

// Locked returns the number of locked accounts.
func (s Snapshot) Locked() int {
	n := 0
	for _, a := range s.accounts {
		if a.Locked {
			n++
		}
	}
	return n
}
