package domain

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is a non-negative amount with two decimal places, held as integer cents.
type Money int64

// ErrMoneyOutOfRange is returned for amounts whose cents do not fit in an int64.
var ErrMoneyOutOfRange = errors.New("amount out of range")

// maxCents is 2^63, the first float64 beyond the int64 range.
const maxCents = float64(math.MaxInt64)

// ParseMoney parses a decimal string such as "99.99" or "50". More than two
// fractional digits are rounded half away from zero.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("parse money: empty value")
	}
	f, err := strconv.ParseFloat(s, 64)
	if (err != nil && !errors.Is(err, strconv.ErrRange)) || math.IsNaN(f) {
		return 0, fmt.Errorf("parse money %q: not a number", s)
	}
	m, err := MoneyFromFloat(f)
	if err != nil {
		return 0, fmt.Errorf("parse money %q: %w", s, err)
	}
	return m, nil
}

// MoneyFromFloat converts a float amount to cents.
func MoneyFromFloat(f float64) (Money, error) {
	cents := math.Round(f * 100)
	if math.IsInf(cents, 0) || math.Abs(cents) >= maxCents {
		return 0, ErrMoneyOutOfRange
	}
	return Money(cents), nil
}

// Cents returns the raw integer amount.
func (m Money) Cents() int64 { return int64(m) }

// Float returns the amount in currency units.
func (m Money) Float() float64 { return float64(m) / 100 }

func (m Money) String() string {
	cents, sign := int64(m), ""
	if cents < 0 {
		cents, sign = -cents, "-"
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// MarshalJSON renders the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
