// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// MoneyScale is the number of fractional digits stored for amounts (NUMERIC(15,2)).
const MoneyScale = 2

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Round rounds m half away from zero to the stored scale.
func Round(m Money) Money {
	return m.Round(MoneyScale)
}

// FormatMoney renders m with exactly two fractional digits.
func FormatMoney(m Money) string {
	return m.StringFixed(MoneyScale)
}
