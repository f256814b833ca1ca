package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits carried by Money.
const MoneyScale = 2

// Money is an exact amount of currency with two fractional digits.
// The zero value is a valid zero amount.
type Money struct {
	d decimal.Decimal
}

// ZeroMoney is the zero amount.
var ZeroMoney = Money{}

// ParseMoney parses a decimal string such as "100.00" or "40".
// Values carrying non-zero digits past the second fractional place are rejected.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q is not a decimal", ErrInvalidAmount, s)
	}

	return NewMoneyFromDecimal(d)
}

// MustMoney is like ParseMoney but panics on error. Intended for constants and tests.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}

	return m
}

// NewMoneyFromDecimal wraps d, rejecting sub-cent precision instead of rounding.
func NewMoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if !d.Equal(d.Truncate(MoneyScale)) {
		return Money{}, fmt.Errorf("%w: %s has more than %d fractional digits", ErrInvalidAmount, d.String(), MoneyScale)
	}

	return Money{d: d}, nil
}

// MoneyFromMinorUnits builds Money from an integer count of cents.
func MoneyFromMinorUnits(units int64) Money {
	return Money{d: decimal.New(units, -MoneyScale)}
}

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

// Cmp returns -1, 0 or +1.
func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

func (m Money) GreaterThanOrEqual(o Money) bool { return m.d.GreaterThanOrEqual(o.d) }

func (m Money) LessThan(o Money) bool { return m.d.LessThan(o.d) }

// IsPositive reports whether m is strictly greater than zero.
func (m Money) IsPositive() bool { return m.d.IsPositive() }

// IsNonNegative reports whether m is zero or greater.
func (m Money) IsNonNegative() bool { return !m.d.IsNegative() }

func (m Money) IsZero() bool { return m.d.IsZero() }

// Decimal returns the underlying decimal value.
func (m Money) Decimal() decimal.Decimal { return m.d }

// MinorUnits returns the amount in cents.
func (m Money) MinorUnits() int64 {
	return m.d.Shift(MoneyScale).IntPart()
}

// String always renders two fractional digits.
func (m Money) String() string {
	return m.d.StringFixed(MoneyScale)
}

func (m Money) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalText(text []byte) error {
	parsed, err := ParseMoney(string(text))
	if err != nil {
		return err
	}

	*m = parsed

	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return m.UnmarshalText([]byte(strings.Trim(string(data), `"`)))
}
