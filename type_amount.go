package payments

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits an Amount carries.
const Scale = 4

// maxAmount is the largest magnitude an Amount may hold: an int64 count of
// ten-thousandths.
var maxAmount = decimal.New(math.MaxInt64, -Scale)

// Amount is an exact fixed-point monetary value.
//
// The zero value is 0.
type Amount struct {
	value decimal.Decimal
}

// A is a convenient factory for amounts known to be valid, mostly used in tests.
// It panics if s is not a valid amount.
func A(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// ParseAmount parses a decimal string like "1.5" or "-0.0001".
//
// It fails with ErrInvalidAmount if s is not a number or has more than Scale
// fractional digits, and with ErrAmountOverflow if the value is out of range.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("%w: empty amount", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	a, err := NewAmount(d)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", err, s)
	}
	return a, nil
}

// maxIntDigits is the number of integer digits of maxAmount.
const maxIntDigits = 15

// NewAmount returns d as an Amount, checking its scale and range.
//
// The checks look at the exponent and digit count first, so that values like
// 1e-9999999 are rejected without expanding them.
func NewAmount(d decimal.Decimal) (Amount, error) {
	if d.IsZero() {
		return Amount{}, nil
	}
	exp, digits := int64(d.Exponent()), int64(d.NumDigits())
	// a nonzero coefficient cannot end with more zeros than it has digits.
	if exp < -Scale && -Scale-exp >= digits {
		return Amount{}, fmt.Errorf("%w: more than %d fractional digits", ErrInvalidAmount, Scale)
	}
	if digits+exp > maxIntDigits {
		return Amount{}, ErrAmountOverflow
	}
	if !d.Equal(d.Truncate(Scale)) {
		return Amount{}, fmt.Errorf("%w: more than %d fractional digits", ErrInvalidAmount, Scale)
	}
	if d.Abs().GreaterThan(maxAmount) {
		return Amount{}, ErrAmountOverflow
	}
	return Amount{value: d}, nil
}

// Add returns a+b, or ErrAmountOverflow if the result is out of range.
func (a Amount) Add(b Amount) (Amount, error) {
	r := a.value.Add(b.value)
	if r.Abs().GreaterThan(maxAmount) {
		return a, fmt.Errorf("%w: %s + %s", ErrAmountOverflow, a, b)
	}
	return Amount{value: r}, nil
}

// Sub returns a-b, or ErrAmountOverflow if the result is out of range.
func (a Amount) Sub(b Amount) (Amount, error) {
	r := a.value.Sub(b.value)
	if r.Abs().GreaterThan(maxAmount) {
		return a, fmt.Errorf("%w: %s - %s", ErrAmountOverflow, a, b)
	}
	return Amount{value: r}, nil
}

func (a Amount) Equal(b Amount) bool              { return a.value.Equal(b.value) }
func (a Amount) IsZero() bool                     { return a.value.IsZero() }
func (a Amount) IsPositive() bool                 { return a.value.IsPositive() }
func (a Amount) IsNegative() bool                 { return a.value.IsNegative() }
func (a Amount) LessThan(b Amount) bool           { return a.value.LessThan(b.value) }
func (a Amount) GreaterThanOrEqual(b Amount) bool { return a.value.GreaterThanOrEqual(b.value) }
func (a Amount) Neg() Amount                      { return Amount{value: a.value.Neg()} }

// Decimal returns the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal { return a.value }

// MinorUnits returns the amount as an integer count of ten-thousandths.
// It cannot overflow since amounts are range checked.
func (a Amount) MinorUnits() int64 {
	return a.value.Shift(Scale).IntPart()
}

// String returns the amount rounded to Scale digits without trailing zeros.
func (a Amount) String() string {
	return a.value.Round(Scale).String()
}

// MarshalJSON encodes the amount as a bare JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		data = data[1 : len(data)-1]
	}
	v, err := ParseAmount(string(data))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
