package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	AOA Currency = "AOA" // Angolan Kwanza (default)
	USD Currency = "USD"
	EUR Currency = "EUR"
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = AOA

// MinorUnits is the number of decimal places kept for kwanza amounts (cêntimos)
const MinorUnits int32 = 2

var (
	ErrEmptyCurrency    = errors.New("currency cannot be empty")
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrTooManyDecimals  = errors.New("amount has more than 2 decimal places")
)

// Money is a value object representing monetary amounts.
// It is immutable; all operations return new Money instances.
// JSON and database forms are fixed two-decimal strings, never floats.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, ErrEmptyCurrency
	}
	return Money{amount: amount, currency: currency}, nil
}

// Kwanza wraps a decimal amount as AOA
func Kwanza(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: AOA}
}

// ZeroKwanza returns 0.00 AOA
func ZeroKwanza() Money {
	return Money{amount: decimal.Zero, currency: AOA}
}

// ParseKwanza parses a decimal string ("15000", "15000.50") into AOA.
// More than two fractional digits is rejected rather than rounded.
func ParseKwanza(s string) (Money, error) {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.Exponent() < -MinorUnits && !d.Equal(d.Round(MinorUnits)) {
		return Money{}, ErrTooManyDecimals
	}
	return Kwanza(d), nil
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	if m.currency == "" {
		return DefaultCurrency
	}
	return m.currency
}

func (m Money) IsZero() bool     { return m.amount.IsZero() }
func (m Money) IsPositive() bool { return m.amount.IsPositive() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// Add returns the sum; currencies must match
func (m Money) Add(other Money) (Money, error) {
	if m.Currency() != other.Currency() {
		return Money{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.Currency(), other.Currency())
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.Currency()}, nil
}

// Subtract returns the difference; currencies must match
func (m Money) Subtract(other Money) (Money, error) {
	if m.Currency() != other.Currency() {
		return Money{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.Currency(), other.Currency())
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.Currency()}, nil
}

// Multiply returns a new Money multiplied by the given factor (not rounded)
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor), currency: m.Currency()}
}

// CalculatePercentage returns percent% of this Money, rounded half-up to cêntimos
func (m Money) CalculatePercentage(percent decimal.Decimal) Money {
	return Money{
		amount:   m.amount.Mul(percent).Div(decimal.NewFromInt(100)).Round(MinorUnits),
		currency: m.Currency(),
	}
}

// Round returns a new Money rounded half-up to the given decimal places
func (m Money) Round(places int32) Money {
	return Money{amount: m.amount.Round(places), currency: m.Currency()}
}

// Equals returns true if both Money values are equal (same amount and currency)
func (m Money) Equals(other Money) bool {
	return m.Currency() == other.Currency() && m.amount.Equal(other.amount)
}

// String returns "15000.00 AOA"
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(MinorUnits), m.Currency())
}

// StringFixed returns the amount with two decimal places and no currency
func (m Money) StringFixed() string {
	return m.amount.StringFixed(MinorUnits)
}

// MarshalJSON writes the amount as a fixed two-decimal JSON string
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.amount.StringFixed(MinorUnits))
}

// UnmarshalJSON accepts a JSON string ("15000.00"); bare JSON numbers are
// accepted too but go through the decimal parser, never through float64.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	parsed, err := ParseKwanza(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer; stored as numeric text
func (m Money) Value() (driver.Value, error) {
	return m.amount.StringFixed(MinorUnits), nil
}

// Scan implements sql.Scanner. Currency is not stored alongside the amount and
// falls back to DefaultCurrency.
func (m *Money) Scan(value any) error {
	if value == nil {
		*m = ZeroKwanza()
		return nil
	}
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("cannot scan %T into Money: %w", value, err)
	}
	m.amount = d
	if m.currency == "" {
		m.currency = DefaultCurrency
	}
	return nil
}
