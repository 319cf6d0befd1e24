package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the marketplace currency
const DefaultCurrency = "LYD"

// DefaultServiceFeeRate is the guest service fee applied on top of the nightly subtotal (10%)
var DefaultServiceFeeRate = decimal.New(10, -2)

// minorUnits is the number of decimal places per currency.
// LYD is priced to the piastre (2 places) throughout the marketplace.
var minorUnits = map[string]int32{
	"LYD": 2,
	"USD": 2,
	"EUR": 2,
	"GBP": 2,
	"TND": 3,
}

// MinorUnits returns the minor-unit precision of a currency, defaulting to 2
func MinorUnits(currency string) int32 {
	if places, ok := minorUnits[strings.ToUpper(currency)]; ok {
		return places
	}
	return 2
}

// Money is a non-negative decimal amount in a currency
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewMoney builds a Money value from a decimal string such as "100.00"
func NewMoney(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return Money{}, fmt.Errorf("%w: amount %s is negative", ErrInvalidAmount, amount)
	}
	return Money{Amount: d, Currency: strings.ToUpper(currency)}, nil
}

// MustMoney is like NewMoney but panics on error
func MustMoney(amount, currency string) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Round rounds half-up to the currency's minor unit.
// decimal.Round rounds half away from zero, which is half-up for non-negative money.
func (m Money) Round() Money {
	return Money{Amount: m.Amount.Round(MinorUnits(m.Currency)), Currency: m.Currency}
}

// String formats the amount with the currency's minor-unit precision, e.g. "330.00 LYD"
func (m Money) String() string {
	return m.Amount.StringFixed(MinorUnits(m.Currency)) + " " + m.Currency
}

// FormatAmount formats an amount with the currency's minor-unit precision
func FormatAmount(amount decimal.Decimal, currency string) string {
	return amount.StringFixed(MinorUnits(currency))
}
