package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dep, wd, dis, res and cb are short event constructors for tests.
func dep(client ClientID, tx TxID, amount string) Event {
	return NewDeposit(client, tx, A(amount))
}
func wd(client ClientID, tx TxID, amount string) Event {
	return NewWithdrawal(client, tx, A(amount))
}
func dis(client ClientID, tx TxID) Event { return NewDispute(client, tx) }
func res(client ClientID, tx TxID) Event { return NewResolve(client, tx) }
func cb(client ClientID, tx TxID) Event  { return NewChargeback(client, tx) }

// checkInvariants verifies the store invariants: total is available plus held,
// and held funds are exactly the amounts of the client's disputed transactions.
func checkInvariants(t *testing.T, s *Store) {
	t.Helper()
	s.mu.RLock()
	defer s.mu.RUnlock()

	disputed := make(map[ClientID]Amount)
	for _, r := range s.records {
		if r.State == StateDisputed {
			sum, err := disputed[r.Client].Add(r.Amount)
			require.NoError(t, err)
			disputed[r.Client] = sum
		}
	}
	for id, acc := range s.accounts {
		sum, err := acc.Available.Add(acc.Held)
		require.NoError(t, err)
		assert.True(t, acc.Total().Equal(sum), "client %d: total %s != available %s + held %s", id, acc.Total(), acc.Available, acc.Held)
		assert.False(t, acc.Held.IsNegative(), "client %d: negative held %s", id, acc.Held)
		assert.True(t, acc.Held.Equal(disputed[id]), "client %d: held %s, disputed %s", id, acc.Held, disputed[id])
	}
}

// applyAll applies events one by one and checks invariants after each of
// them. It returns the errors returned by Apply.
func applyAll(t *testing.T, p *Processor, events ...Event) []error {
	t.Helper()
	errs := make([]error, 0, len(events))
	for _, e := range events {
		errs = append(errs, p.Apply(e))
		checkInvariants(t, p.Store())
	}
	return errs
}

// assertAccount checks the balances of an account, given as decimal strings.
func assertAccount(t *testing.T, s *Store, client ClientID, available, held, total string, locked bool) {
	t.Helper()
	acc, ok := s.Account(client)
	require.True(t, ok, "client %d has no account", client)
	assert.Equal(t, available, acc.Available.String(), "available")
	assert.Equal(t, held, acc.Held.String(), "held")
	assert.Equal(t, total, acc.Total().String(), "total")
	assert.Equal(t, locked, acc.Locked, "locked")
}
