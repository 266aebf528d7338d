// Package money provides an exact monetary amount type.
//
// Amounts are stored as a signed count of minor units (cents) and all
// arithmetic happens on that integer representation. Floats only appear at
// construction and display boundaries, so repeated operations never
// accumulate floating-point drift.
package money

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	// ErrDivisionByZero is returned by Div when the divisor is zero.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrInvalidSplitCount is returned by SplitEvenly for counts <= 0.
	ErrInvalidSplitCount = errors.New("split count must be positive")

	// ErrInvalidWeights is returned by SplitWeighted when the weights sum to zero.
	ErrInvalidWeights = errors.New("total weight must be non-zero")

	// ErrOutOfRange is returned by Validate for amounts outside [0.01, 999999.99].
	ErrOutOfRange = errors.New("amount out of allowed range")
)

// Money is an immutable exact monetary amount.
// The zero value is a zero amount and is ready to use.
// Every operation returns a new value; Money is safe to copy and compare
// for equality with ==.
type Money struct {
	units int64 // minor units (cents)
}

var hundred = decimal.NewFromInt(100)

// FromMinorUnits returns the amount worth the given count of minor units.
func FromMinorUnits(units int64) Money {
	return Money{units: units}
}

// FromFloat converts a floating amount of major units, rounding half away
// from zero to the nearest cent: FromFloat(10.005) is 10.01.
func FromFloat(v float64) Money {
	return Money{units: int64(math.Round(v * 100))}
}

// Parse converts a decimal string such as "12.34" or "-0.5".
// Fractions beyond two places are rounded half away from zero.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Money{units: d.Mul(hundred).Round(0).IntPart()}, nil
}

// MustParse is Parse that panics on malformed input. Intended for constants
// and tests.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MinorUnits returns the amount as a count of minor units.
func (m Money) MinorUnits() int64 {
	return m.units
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{units: m.units + o.units}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{units: m.units - o.units}
}

// Mul rescales the amount by a real factor, rounding half away from zero.
// It is the primitive behind proportional rescaling, e.g. adjusting every
// split of an expense by newTotal/oldTotal.
func (m Money) Mul(factor float64) Money {
	return Money{units: int64(math.Round(float64(m.units) * factor))}
}

// Div divides the amount by a real divisor, rounding half away from zero.
func (m Money) Div(divisor float64) (Money, error) {
	if divisor == 0 {
		return Money{}, ErrDivisionByZero
	}
	return Money{units: int64(math.Round(float64(m.units) / divisor))}, nil
}

// SplitEvenly divides the amount into count parts that sum exactly to the
// original. The division remainder is front-loaded: the first
// (units mod count) parts carry one extra minor unit, so 10.00 split three
// ways is [3.34, 3.33, 3.33]. Which participant gets the extra cent is
// user-visible, so the ordering is part of the contract.
func (m Money) SplitEvenly(count int) ([]Money, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSplitCount, count)
	}
	n := int64(count)
	base := m.units / n
	rem := m.units % n
	// Floor semantics for negative amounts; Go truncates toward zero.
	if rem < 0 {
		base--
		rem += n
	}
	parts := make([]Money, count)
	for i := range parts {
		if int64(i) < rem {
			parts[i] = Money{units: base + 1}
		} else {
			parts[i] = Money{units: base}
		}
	}
	return parts, nil
}

// SplitWeighted divides the amount proportionally to the given weights,
// returning one part per weight. Every part except the last is rounded
// independently; the last part takes whatever remains, so the parts always
// sum exactly to the original regardless of rounding.
func (m Money) SplitWeighted(weights []float64) ([]Money, error) {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return nil, ErrInvalidWeights
	}
	parts := make([]Money, len(weights))
	var allocated int64
	for i, w := range weights {
		if i == len(weights)-1 {
			parts[i] = Money{units: m.units - allocated}
			break
		}
		units := int64(math.Round(float64(m.units) * w / total))
		parts[i] = Money{units: units}
		allocated += units
	}
	return parts, nil
}

// Equal reports whether two amounts are identical to the minor unit.
func (m Money) Equal(o Money) bool { return m.units == o.units }

// GreaterThan reports m > o.
func (m Money) GreaterThan(o Money) bool { return m.units > o.units }

// LessThan reports m < o.
func (m Money) LessThan(o Money) bool { return m.units < o.units }

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.units == 0 }

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool { return m.units > 0 }

// IsNegative reports whether the amount is less than zero.
func (m Money) IsNegative() bool { return m.units < 0 }

// Abs returns the magnitude of the amount.
func (m Money) Abs() Money {
	if m.units < 0 {
		return Money{units: -m.units}
	}
	return m
}

// Neg returns the amount with its sign flipped.
func (m Money) Neg() Money {
	return Money{units: -m.units}
}

// String renders the amount as a decimal string with two fraction digits,
// e.g. "12.34" or "-0.05". This form is lossless and is what persistence
// and display should use.
func (m Money) String() string {
	return decimal.New(m.units, -2).StringFixed(2)
}

// Float64 returns the amount in major units as a float. Lossy; never feed
// the result back into arithmetic.
func (m Money) Float64() float64 {
	return decimal.New(m.units, -2).InexactFloat64()
}

// Validate checks that the amount is an acceptable ledger entry value,
// within [0.01, 999999.99]. Money itself never enforces this; entry
// creation does.
func Validate(m Money) error {
	if m.units < 1 || m.units > 99_999_999 {
		return fmt.Errorf("%w: %s", ErrOutOfRange, m)
	}
	return nil
}
