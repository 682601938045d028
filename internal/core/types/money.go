// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

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

// NewMoneyFromInt creates a Money value from whole currency units.
func NewMoneyFromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// FloorZero clamps negative amounts to zero.
func FloorZero(m Money) Money {
	if m.IsNegative() {
		return decimal.Zero
	}
	return m
}

// Sum adds all amounts.
func Sum(amounts ...Money) Money {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// OptionalPositive reports whether an optional amount is present and above zero.
func OptionalPositive(m *Money) bool {
	return m != nil && m.IsPositive()
}

// Deref returns the amount or zero for nil.
func Deref(m *Money) Money {
	if m == nil {
		return decimal.Zero
	}
	return *m
}

// FormatAmount renders an amount with two fractional digits for display strings.
func FormatAmount(m Money) string {
	return m.StringFixed(2)
}
