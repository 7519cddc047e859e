package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Monetary values travel as decimals on the wire and are stored as integer
// cents. All arithmetic happens on cents, so sums are exact regardless of
// ordering. Amounts with more than two fraction digits are rejected rather
// than rounded silently.

var (
	ErrAmountNotPositive = errors.New("amount must be greater than zero")
	ErrAmountNegative    = errors.New("amount must not be negative")
	ErrAmountPrecision   = errors.New("amount must have at most two decimal places")
)

// AmountToCents converts a positive currency amount to integer cents.
func AmountToCents(d decimal.Decimal) (int64, error) {
	if !d.IsPositive() {
		return 0, ErrAmountNotPositive
	}
	return toCents(d)
}

// NonNegativeToCents converts a zero-or-positive amount to integer cents.
// Used for interest, which may legitimately be zero.
func NonNegativeToCents(d decimal.Decimal) (int64, error) {
	if d.IsNegative() {
		return 0, ErrAmountNegative
	}
	return toCents(d)
}

func toCents(d decimal.Decimal) (int64, error) {
	if !d.Equal(d.Round(2)) {
		return 0, ErrAmountPrecision
	}
	return d.Shift(2).IntPart(), nil
}

// CentsToAmount converts stored cents back to a two-place decimal.
func CentsToAmount(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
