// Package core provides the ledger domain types and money handling.
//
// Stored amounts are kept as decimal text (Amount) and only converted to
// exact decimals when they are aggregated. Aggregates are Money values,
// always rounded to cents with round-half-away-from-zero:
//
//	Round2(10.005)  -> 10.01
//	Round2(-10.005) -> -10.01
//	Round2(2.344)   -> 2.34
package core

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a transaction magnitude exactly as persisted. Persisted data is
// not trusted, so Value reports whether the text is a usable number.
type Amount string

// Money is a computed monetary value with cent precision.
type Money struct {
	d decimal.Decimal
}

// NewAmount formats d as a stored amount.
func NewAmount(d decimal.Decimal) Amount {
	return Amount(d.String())
}

// ParseAmount reads user input. It accepts dot (12.34) and comma (12,34)
// separators and rejects negative or non-numeric values.
func ParseAmount(s string) (Amount, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return "", ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", ErrInvalidAmount
	}
	if d.IsNegative() {
		return "", ErrNegativeAmount
	}
	return NewAmount(d), nil
}

// Value parses the stored text. Missing or non-numeric text yields (0, false).
func (a Amount) Value() (decimal.Decimal, bool) {
	s := strings.TrimSpace(string(a))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// MarshalJSON writes a JSON number, or null when the stored text is malformed.
func (a Amount) MarshalJSON() ([]byte, error) {
	d, ok := a.Value()
	if !ok {
		return []byte("null"), nil
	}
	return []byte(d.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return ErrInvalidAmount
	}
	*a = Amount(n.String())
	return nil
}

// MoneyFrom rounds d to cents.
func MoneyFrom(d decimal.Decimal) Money {
	return Money{d: Round2(d)}
}

// MustMoney parses s and panics on error. Intended for tests and constants.
func MustMoney(s string) Money {
	return MoneyFrom(decimal.RequireFromString(s))
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) Add(o Money) Money { return MoneyFrom(m.d.Add(o.d)) }

func (m Money) Sub(o Money) Money { return MoneyFrom(m.d.Sub(o.d)) }

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

func (m Money) IsZero() bool { return m.d.IsZero() }

// String renders the value with exactly two decimals.
func (m Money) String() string {
	return m.d.StringFixed(2)
}

// Float64 is for presentation layers that need a float (spreadsheets).
func (m Money) Float64() float64 {
	f, _ := m.d.Float64()
	return f
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var a Amount
	if err := a.UnmarshalJSON(b); err != nil {
		return err
	}
	d, ok := a.Value()
	if !ok {
		return ErrInvalidAmount
	}
	*m = MoneyFrom(d)
	return nil
}
