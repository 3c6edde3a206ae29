// Package money handles catalog prices. Prices travel as strings with two
// fractional digits, matching the NUMERIC(12,2) column, and all arithmetic
// goes through decimal so totals never pick up float error.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits in the store currency.
const Places = 2

var ErrInvalid = errors.New("invalid price")

// Parse reads a price string. Negative values are rejected.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, ErrInvalid
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalid
	}
	return d, nil
}

// Format renders d rounded to cents, e.g. "30.00".
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}

// Normalize parses and re-formats a price string.
func Normalize(s string) (string, error) {
	d, err := Parse(s)
	if err != nil {
		return "", err
	}
	return Format(d), nil
}

// LineTotal is price × qty rounded to cents.
func LineTotal(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty))).Round(Places)
}
