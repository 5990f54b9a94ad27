package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshot(t *testing.T) {
	max := "922337203685477.5807"
	s := NewSnapshot(
		Account{Client: 3, Available: A(max)},
		Account{Client: 1, Available: A("-2"), Held: A("2.5"), Locked: true},
		Account{Client: 2, Available: A(max), Held: A("1")},
	)

	assert.Equal(t, 3, s.Len())
	a, ok := s.Get(2)
	assert.True(t, ok)
	assert.Equal(t, ClientID(2), a.Client)
	_, ok = s.Get(4)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Locked())

	// totals may exceed the range of a single account.
	available, held, total := s.Totals()
	assert.Equal(t, "1844674407370953.1614", available.String())
	assert.Equal(t, "3.5", held.String())
	assert.Equal(t, "1844674407370956.6614", total.String())

	empty := NewSnapshot()
	_, _, total = empty.Totals()
	assert.True(t, total.IsZero())
}
