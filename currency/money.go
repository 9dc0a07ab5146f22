package currency

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrCurrencyMismatch is returned when combining amounts in different currencies.
	ErrCurrencyMismatch = errors.New("currency: mismatched currencies")
)

// Money is an amount in a given currency.
type Money struct {
	Amount   decimal.Decimal
	Currency Currency
}

func (m Money) check(o Money) error {
	if !m.Currency.Equal(o.Currency) {
		return fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.Currency.Code, o.Currency.Code)
	}
	return nil
}

// Add sums two amounts in the same currency.
func (m Money) Add(o Money) (Money, error) {
	if err := m.check(o); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Add(o.Amount), Currency: m.Currency}, nil
}

// Sub subtracts two amounts in the same currency.
func (m Money) Sub(o Money) (Money, error) {
	if err := m.check(o); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Sub(o.Amount), Currency: m.Currency}, nil
}

// Mul scales the amount.
func (m Money) Mul(f float64) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromFloat(f)), Currency: m.Currency}
}

// Rounded applies the currency rounding convention.
func (m Money) Rounded() Money {
	return Money{Amount: m.Currency.Rounding.Apply(m.Amount), Currency: m.Currency}
}

// Compare returns -1, 0 or +1.
func (m Money) Compare(o Money) (int, error) {
	if err := m.check(o); err != nil {
		return 0, err
	}
	return m.Amount.Cmp(o.Amount), nil
}

func (m Money) String() string {
	amount := m.Amount.String()
	if r := m.Currency.Rounding; r.Type != RoundNone {
		amount = r.Apply(m.Amount).StringFixed(r.Precision)
	}
	if m.Currency.Format == "" {
		return amount + " " + m.Currency.Code
	}
	return fmt.Sprintf(m.Currency.Format, amount, m.Currency.Code, m.Currency.Symbol)
}
