package payments

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	testCases := []struct {
		in      string
		want    string
		wantErr error
	}{
		{in: "1", want: "1"},
		{in: "1.5000", want: "1.5"},
		{in: " 2.25 ", want: "2.25"},
		{in: "0.0001", want: "0.0001"},
		{in: "-3.0", want: "-3"},
		{in: "0", want: "0"},
		{in: "922337203685477.5807", want: "922337203685477.5807"},
		{in: "1.00000", want: "1"},
		{in: "", wantErr: ErrInvalidAmount},
		{in: "abc", wantErr: ErrInvalidAmount},
		{in: "1.00001", wantErr: ErrInvalidAmount},
		{in: "922337203685477.5808", wantErr: ErrAmountOverflow},
		{in: "-1e20", wantErr: ErrAmountOverflow},
		{in: "1.5e1", want: "15"},
		{in: "15000e-4", want: "1.5"},
		{in: "0e-9999999", want: "0"},
		{in: "1e-9999999", wantErr: ErrInvalidAmount},
		{in: "1000e-9999999", wantErr: ErrInvalidAmount},
		{in: "1e9999999", wantErr: ErrAmountOverflow},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAmount(tc.in)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestParseAmount_LargeExponents(t *testing.T) {
	inputs := []string{"1e-9999999", "1e9999999", "7e-2147483648", "7e2147483647"}

	done := make(chan struct{})
	var errs []error
	go func() {
		defer close(done)
		for _, in := range inputs {
			_, err := ParseAmount(in)
			errs = append(errs, err)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ParseAmount takes too long on large exponents")
	}
	require.Len(t, errs, len(inputs))
	for i, err := range errs {
		require.Error(t, err, inputs[i])
		assert.Less(t, len(err.Error()), 100, "error message should not expand %s", inputs[i])
		assert.Contains(t, err.Error(), inputs[i])
	}
}

func TestAmount_Arithmetic(t *testing.T) {
	sum, err := A("0.1").Add(A("0.2"))
	require.NoError(t, err)
	assert.True(t, sum.Equal(A("0.3")), "0.1 + 0.2 = %s", sum)

	diff, err := A("5").Sub(A("7.5"))
	require.NoError(t, err)
	assert.Equal(t, "-2.5", diff.String())

	max := A("922337203685477.5807")
	_, err = max.Add(A("0.0001"))
	assert.ErrorIs(t, err, ErrAmountOverflow)
	_, err = max.Neg().Sub(A("1"))
	assert.ErrorIs(t, err, ErrAmountOverflow)

	assert.Equal(t, int64(15000), A("1.5").MinorUnits())
}

func TestAmount_JSON(t *testing.T) {
	b, err := json.Marshal(A("10.50"))
	require.NoError(t, err)
	assert.Equal(t, "10.5", string(b))

	var fromNumber, fromString Amount
	require.NoError(t, json.Unmarshal([]byte("1.25"), &fromNumber))
	require.NoError(t, json.Unmarshal([]byte(`"1.25"`), &fromString))
	assert.True(t, fromNumber.Equal(fromString))

	var bad Amount
	assert.ErrorIs(t, json.Unmarshal([]byte("0.123456"), &bad), ErrInvalidAmount)
}
