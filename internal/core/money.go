// Package core holds the record, money and catalog types shared by the
// report aggregators, the stores and the HTTP layer.
//
// Amounts are kept as integer cents. Loosely typed inputs (JSON numbers,
// numeric strings with either decimal separator) are coerced through
// shopspring/decimal so no float rounding leaks into totals.
package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

type Money struct {
	Cents int64
}

// MoneyFromDecimal rounds a decimal amount half away from zero to the cent.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Shift(2).Round(0).IntPart()}
}

// ParseAmount converts a user or storage supplied amount to Money.
//
// Both "12.34" and "12,34" are accepted. When both separators appear the
// last one is the decimal separator ("1.234,50" and "1,234.50" are equal).
// Negative values are allowed: cash movements can be signed.
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimPrefix(s, "₺")
	s = strings.TrimSuffix(s, "₺")
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0 && lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastDot >= 0 && lastComma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d), nil
}

// ParsePositiveAmount is ParseAmount restricted to values above zero, for form input.
func ParsePositiveAmount(s string) (Money, error) {
	m, err := ParseAmount(s)
	if err != nil {
		return Money{}, err
	}
	if m.Cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Div splits the amount into n equal parts, rounded to the cent. n <= 0 yields zero.
func (m Money) Div(n int) Money {
	if n <= 0 {
		return Money{}
	}
	return MoneyFromDecimal(m.Decimal().Div(decimal.NewFromInt(int64(n))))
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with two decimals and a dot separator ("1234.50").
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Float returns the amount in currency units for spreadsheet cells.
func (m Money) Float() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// MarshalJSON emits the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a number, a numeric string or null. Anything else is zero.
func (m *Money) UnmarshalJSON(b []byte) error {
	*m = coerceMoney(b)
	return nil
}

func coerceMoney(b []byte) Money {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return Money{}
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return Money{}
		}
		v, err := ParseAmount(s)
		if err != nil {
			return Money{}
		}
		return v
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return Money{}
	}
	return MoneyFromDecimal(d)
}
