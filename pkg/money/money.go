// Package money holds fixed-point amounts in minor units (cents).
// Decimal strings are only used at the JSON boundary.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places an Amount carries.
const Scale = 2

// Amount is a monetary value in minor units.
type Amount int64

// Zero is the zero amount.
const Zero Amount = 0

// ErrOutOfRange means a value or the result of arithmetic does not fit in an Amount.
var ErrOutOfRange = errors.New("amount out of range")

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// FromDecimal converts a decimal to an Amount, rejecting values with more than Scale
// fractional digits and values outside the int64 minor-unit range.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if !d.Equal(d.Round(Scale)) {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", d.String(), Scale)
	}
	minor := d.Shift(Scale)
	if minor.GreaterThan(maxMinor) || minor.LessThan(minMinor) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, d.String())
	}
	return Amount(minor.IntPart()), nil
}

// Parse reads a decimal string such as "6399.99".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return FromDecimal(d)
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

func (a Amount) IsPositive() bool { return a > 0 }
func (a Amount) IsNegative() bool { return a < 0 }

// Mul multiplies by an integer quantity.
func (a Amount) Mul(qty int64) (Amount, error) {
	x := int64(a)
	if x == 0 || qty == 0 {
		return 0, nil
	}
	p := x * qty
	if p/qty != x || (x == -1 && qty == math.MinInt64) || (qty == -1 && x == math.MinInt64) {
		return 0, fmt.Errorf("%w: %s x %d", ErrOutOfRange, a, qty)
	}
	return Amount(p), nil
}

// Add returns a+b.
func (a Amount) Add(b Amount) (Amount, error) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, fmt.Errorf("%w: %s + %s", ErrOutOfRange, a, b)
	}
	return s, nil
}

// Sub returns a-b.
func (a Amount) Sub(b Amount) (Amount, error) {
	d := a - b
	if (b > 0 && d > a) || (b < 0 && d < a) {
		return 0, fmt.Errorf("%w: %s - %s", ErrOutOfRange, a, b)
	}
	return d, nil
}

// Sum adds up amounts.
func Sum(amounts ...Amount) (Amount, error) {
	var total Amount
	for _, a := range amounts {
		var err error
		if total, err = total.Add(a); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// MaxZero clamps negative values to zero.
func MaxZero(a Amount) Amount {
	if a < 0 {
		return 0
	}
	return a
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts "12.50" or 12.50.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = 0
		return nil
	}
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func (a Amount) Value() (driver.Value, error) {
	return int64(a), nil
}

func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = 0
	case int64:
		*a = Amount(v)
	case int32:
		*a = Amount(v)
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("scan amount: %w", err)
		}
		*a = Amount(n)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("scan amount: %w", err)
		}
		*a = Amount(n)
	default:
		return fmt.Errorf("scan amount: unsupported type %T", src)
	}
	return nil
}
