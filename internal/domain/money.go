package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Fractional digits kept per currency and for exchange rates.
const (
	ScaleMXN  int32 = 2
	ScaleUSDT int32 = 6
	ScaleRate int32 = 6
)

// Money represents a monetary value in a specific currency.
type Money struct {
	Amount   decimal.Decimal
	Currency string // MXN or USDT
}

// NewMoney creates a Money rounded to the currency's precision.
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{
		Amount:   Round(amount, currency),
		Currency: currency,
	}
}

// MXN is shorthand for NewMoney(amount, CurrencyMXN).
func MXN(amount decimal.Decimal) Money {
	return NewMoney(amount, CurrencyMXN)
}

// Round rounds amount to the number of fractional digits used for currency.
func Round(amount decimal.Decimal, currency string) decimal.Decimal {
	switch currency {
	case CurrencyMXN:
		return amount.Round(ScaleMXN)
	case CurrencyUSDT:
		return amount.Round(ScaleUSDT)
	default:
		return amount
	}
}

// RoundMXN rounds to centavos.
func RoundMXN(amount decimal.Decimal) decimal.Decimal { return amount.Round(ScaleMXN) }

// RoundUSDT rounds to six fractional digits.
func RoundUSDT(amount decimal.Decimal) decimal.Decimal { return amount.Round(ScaleUSDT) }

// RoundRate rounds an exchange rate to six fractional digits.
func RoundRate(rate decimal.Decimal) decimal.Decimal { return rate.Round(ScaleRate) }

// NormalizeRate rounds rate to its stored precision. A rate that is not
// positive once rounded is ErrInvalidRate.
func NormalizeRate(rate decimal.Decimal) (decimal.Decimal, error) {
	rounded := RoundRate(rate)
	if !rounded.IsPositive() {
		return decimal.Zero, ErrInvalidRate
	}
	return rounded, nil
}

// Convert converts MXN to USDT (or back) at a sell rate quoted as MXN per USDT.
// MXN -> USDT divides by the rate, USDT -> MXN multiplies.
func (m Money) Convert(targetCurrency string, rate decimal.Decimal) (Money, error) {
	if !rate.IsPositive() {
		return Money{}, ErrInvalidRate
	}
	if m.Currency == targetCurrency {
		return m, nil
	}
	switch {
	case m.Currency == CurrencyMXN && targetCurrency == CurrencyUSDT:
		return NewMoney(m.Amount.DivRound(rate, ScaleUSDT+2), CurrencyUSDT), nil
	case m.Currency == CurrencyUSDT && targetCurrency == CurrencyMXN:
		return NewMoney(m.Amount.Mul(rate), CurrencyMXN), nil
	default:
		return Money{}, Validationf("unsupported conversion %s -> %s", m.Currency, targetCurrency)
	}
}

// Neg returns the money with its sign flipped.
func (m Money) Neg() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}

// String returns the string representation of the money.
func (m Money) String() string {
	scale := ScaleMXN
	if m.Currency == CurrencyUSDT {
		scale = ScaleUSDT
	}
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(scale), m.Currency)
}
