package renderer

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/etnz/payments"
)

// Currency formats amounts for display. The zero value formats plain numbers
// with a thousands separator.
type Currency struct {
	Code string
	f    *money.Formatter
}

// LookupCurrency returns the display format of an ISO 4217 currency code. The
// empty code means no currency.
func LookupCurrency(code string) (Currency, error) {
	if code == "" {
		return Currency{}, nil
	}
	c := money.GetCurrency(strings.ToUpper(code))
	if c == nil {
		return Currency{}, fmt.Errorf("unknown currency %q", code)
	}
	// ledger amounts always carry payments.Scale digits, whatever the currency.
	return Currency{
		Code: c.Code,
		f:    money.NewFormatter(payments.Scale, c.Decimal, c.Thousand, c.Grapheme, c.Template),
	}, nil
}

var plain = money.NewFormatter(payments.Scale, ".", ",", "", "1")

// Format formats a, with exactly payments.Scale fractional digits.
func (c Currency) Format(a payments.Amount) string {
	f := c.f
	if f == nil {
		f = plain
	}
	d := a.Decimal().Shift(payments.Scale)
	if !d.BigInt().IsInt64() {
		// out of int64 range, only happens for totals.
		return a.Decimal().StringFixed(payments.Scale)
	}
	return f.Format(d.IntPart())
}
