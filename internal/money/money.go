// Package money implements the fixed-point amount type used for every balance,
// price and fee stored by the exchange.
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// Scale is the number of fractional digits carried by every stored amount.
	Scale int32 = 8
	// FiatScale is the precision fiat-denominated results are rounded to.
	FiatScale int32 = 2
)

var (
	// ErrUnderflow is returned when a subtraction would leave a balance negative.
	ErrUnderflow = errors.New("money: result would be negative")
	// ErrDivisionByZero is returned by DivRate for a zero divisor.
	ErrDivisionByZero = errors.New("money: division by zero")
	// ErrPrecision is returned when input carries more than Scale fractional digits.
	ErrPrecision = errors.New("money: too many fractional digits")
)

var hundred = decimal.NewFromInt(100)

// Money is an exact decimal amount held at Scale fractional digits.
// The zero value is a valid zero amount.
type Money struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{d: decimal.Zero}

// New rounds d half-up to Scale digits.
func New(d decimal.Decimal) Money {
	return Money{d: d.Round(Scale)}
}

// FromInt returns a whole amount.
func FromInt(v int64) Money {
	return New(decimal.NewFromInt(v))
}

// Parse reads a decimal string such as "0.01" or "43500000". Input with
// non-zero digits beyond Scale is rejected with ErrPrecision.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if !fits(d, Scale) {
		return Zero, fmt.Errorf("parse amount %q: %w", s, ErrPrecision)
	}
	return New(d), nil
}

func fits(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Decimal exposes the underlying value.
func (m Money) Decimal() decimal.Decimal { return m.d }

// Add returns m + o.
func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

// Sub returns m - o and fails with ErrUnderflow if the result is negative.
// Use SubSigned where negative results are meaningful.
func (m Money) Sub(o Money) (Money, error) {
	r := m.d.Sub(o.d)
	if r.IsNegative() {
		return Zero, ErrUnderflow
	}
	return Money{d: r}, nil
}

// SubSigned returns m - o without a sign check.
func (m Money) SubSigned(o Money) Money { return Money{d: m.d.Sub(o.d)} }

// Neg returns -m.
func (m Money) Neg() Money { return Money{d: m.d.Neg()} }

// MulRate multiplies by an arbitrary rate (a price, a ratio) and rounds half-up to Scale.
func (m Money) MulRate(rate decimal.Decimal) Money {
	return New(m.d.Mul(rate))
}

// DivRate divides by rate, rounding half-up at Scale.
func (m Money) DivRate(rate decimal.Decimal) (Money, error) {
	if rate.IsZero() {
		return Zero, ErrDivisionByZero
	}
	return Money{d: m.d.DivRound(rate, Scale)}, nil
}

// PercentageOf returns m * rate / 100 rounded half-up to Scale.
func (m Money) PercentageOf(rate decimal.Decimal) Money {
	return New(m.d.Mul(rate).Div(hundred))
}

// Round rounds half-up (away from zero) to places digits.
func (m Money) Round(places int32) Money {
	return Money{d: m.d.Round(places)}
}

// FitsPlaces reports whether m has no non-zero digits beyond places.
func (m Money) FitsPlaces(places int32) bool { return fits(m.d, places) }

// Cap returns the smaller of m and max.
func (m Money) Cap(max Money) Money {
	return Min(m, max)
}

// Min returns the smaller amount.
func Min(a, b Money) Money {
	if a.d.Cmp(b.d) <= 0 {
		return a
	}
	return b
}

// Cmp compares m and o: -1, 0 or +1.
func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

// Equal reports exact equality.
func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

// LessThan reports m < o.
func (m Money) LessThan(o Money) bool { return m.d.LessThan(o.d) }

// GreaterThan reports m > o.
func (m Money) GreaterThan(o Money) bool { return m.d.GreaterThan(o.d) }

// IsZero reports m == 0.
func (m Money) IsZero() bool { return m.d.IsZero() }

// IsNegative reports m < 0.
func (m Money) IsNegative() bool { return m.d.IsNegative() }

// IsPositive reports m > 0.
func (m Money) IsPositive() bool { return m.d.IsPositive() }

// String formats the amount with exactly Scale fractional digits.
func (m Money) String() string { return m.d.StringFixed(Scale) }

// Value implements driver.Valuer; amounts travel to the database as decimal text.
func (m Money) Value() (driver.Value, error) {
	return m.d.StringFixed(Scale), nil
}

// Scan implements sql.Scanner.
func (m *Money) Scan(src any) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("scan amount: %w", err)
	}
	*m = New(d)
	return nil
}

// MarshalJSON encodes the amount as a quoted decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.d.StringFixed(Scale) + `"`), nil
}

// UnmarshalJSON accepts both quoted and bare JSON numbers. Like Parse it
// rejects digits beyond Scale.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	if !fits(d, Scale) {
		return fmt.Errorf("amount %s: %w", data, ErrPrecision)
	}
	*m = New(d)
	return nil
}
