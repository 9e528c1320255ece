// Package core holds the domain model of the finance tracker: accounts,
// transactions, money amounts and the icon lookup tables used by the API.
//
// All money is kept as int64 cents. Decimal values only appear at the edges,
// when parsing request bodies and when rendering JSON responses.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// centsLimit bounds parsed amounts well below the int64 range so that
// balance accumulation cannot overflow in practice.
var centsLimit = decimal.New(1, 18)

// ParseAmountToCents converts a decimal amount string, as received in a JSON
// body, to integer cents. The third decimal place is rounded half away from
// zero. Only strictly positive amounts are valid.
//
// Examples:
//
//	ParseAmountToCents("12.34") -> 1234, nil
//	ParseAmountToCents("12.345") -> 1235, nil
//	ParseAmountToCents("-5") -> ErrInvalidAmount
func ParseAmountToCents(s string) (Money, error) {
	m, err := ParseBalanceToCents(s)
	if err != nil {
		return Money{}, err
	}
	if m.Cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// ParseBalanceToCents is ParseAmountToCents for account balances: zero and
// negative values are allowed, since a balance may legitimately go below zero.
func ParseBalanceToCents(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if cents.Abs().Cmp(centsLimit) > 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// Neg returns the negated amount.
func (m Money) Neg() Money {
	return Money{Cents: -m.Cents}
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Float64 returns the decimal value for JSON display. Keep calculations in
// cents; this is for rendering only.
func (m Money) Float64() float64 {
	return float64(m.Cents) / 100.0
}
