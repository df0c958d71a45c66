// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and decimal representations.
package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a non-negative currency amount held in integer cents.
type Money struct {
	Cents int64
}

// maxCents keeps amounts far away from int64 overflow when summed.
const maxCents = int64(1) << 50

// ParseAmount converts a decimal string to Money with half-up rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rounds on the third decimal place. Zero is accepted; negative values,
// empty input and non-numeric input are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,34")  -> 1234 cents
//	ParseAmount("12.345") -> 1235 cents (rounds up)
//	ParseAmount("12.344") -> 1234 cents
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return MoneyFromDecimal(d)
}

// MoneyFromDecimal rounds d half-up to cents.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, fmt.Errorf("%w: negative value", ErrInvalidAmount)
	}
	cents := d.Round(2).Shift(2)
	if cents.GreaterThan(decimal.NewFromInt(maxCents)) {
		return Money{}, fmt.Errorf("%w: value too large", ErrInvalidAmount)
	}
	return Money{Cents: cents.IntPart()}, nil
}

// FromFloat converts a float amount to Money. Used for JSON API input.
func FromFloat(f float64) (Money, error) {
	return MoneyFromDecimal(decimal.NewFromFloat(f))
}

func (m Money) Validate() error {
	if m.Cents < 0 || m.Cents > maxCents {
		return ErrInvalidAmount
	}
	return nil
}

// Decimal returns the amount as a decimal with two fractional digits.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float64 returns the amount for ratio computations and prompts.
// Use cents for sums to avoid floating-point drift.
func (m Money) Float64() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// String renders the amount with exactly two decimals ("14.50").
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// IsZero reports whether the amount is zero. A zero budget means unset.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(b []byte) error {
	var raw json.Number
	if err := json.Unmarshal(b, &raw); err != nil {
		var s string
		if err2 := json.Unmarshal(b, &s); err2 != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		raw = json.Number(s)
	}
	parsed, err := ParseAmount(raw.String())
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
