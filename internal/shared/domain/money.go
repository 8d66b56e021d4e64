package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrNegativeAmount     = errors.New("money amount cannot be negative")
	ErrInvalidCurrency    = errors.New("currency must be a 3-letter ISO code")
	ErrCurrencyMismatch   = errors.New("money operands have different currencies")
	ErrNegativeMultiplier = errors.New("money multiplier cannot be negative")
)

// Money is an immutable amount in a single currency. The amount is stored in
// minor units (cents) so arithmetic stays exact; constructors taking major
// units round half away from zero to two decimal places.
type Money struct {
	cents    int64
	currency string
}

// NewMoney creates Money from a major-unit amount (e.g. 29.99).
func NewMoney(amount float64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, ErrNegativeAmount
	}
	cur, err := normalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	cents := int64(math.Round(amount * 100))
	return Money{cents: cents, currency: cur}, nil
}

// NewMoneyFromCents creates Money from an amount in minor units.
func NewMoneyFromCents(cents int64, currency string) (Money, error) {
	if cents < 0 {
		return Money{}, ErrNegativeAmount
	}
	cur, err := normalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{cents: cents, currency: cur}, nil
}

// MustMoney is a test helper that panics on invalid input.
func MustMoney(amount float64, currency string) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func normalizeCurrency(currency string) (string, error) {
	cur := strings.ToUpper(strings.TrimSpace(currency))
	if len(cur) != 3 {
		return "", ErrInvalidCurrency
	}
	for _, r := range cur {
		if r < 'A' || r > 'Z' {
			return "", ErrInvalidCurrency
		}
	}
	return cur, nil
}

// Cents returns the amount in minor units.
func (m Money) Cents() int64 { return m.cents }

// Amount returns the amount in major units.
func (m Money) Amount() float64 { return float64(m.cents) / 100 }

// Currency returns the ISO currency code.
func (m Money) Currency() string { return m.currency }

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.cents == 0 }

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool { return m.cents > 0 }

// Add returns the sum of two Money values of the same currency.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{cents: m.cents + other.cents, currency: m.currency}, nil
}

// MultiplyInt returns the amount multiplied by a non-negative factor.
func (m Money) MultiplyInt(factor int) (Money, error) {
	if factor < 0 {
		return Money{}, ErrNegativeMultiplier
	}
	return Money{cents: m.cents * int64(factor), currency: m.currency}, nil
}

// Equals checks value equality with another Money.
func (m Money) Equals(other ValueObject) bool {
	o, ok := other.(Money)
	if !ok {
		return false
	}
	return m.cents == o.cents && m.currency == o.currency
}

func (m Money) String() string {
	return fmt.Sprintf("%.2f %s", m.Amount(), m.currency)
}
