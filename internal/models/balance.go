package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits stored for amounts and balances.
const MoneyScale = 2

var (
	ErrNonPositiveAmount = errors.New("amount must be > 0")
	ErrAmountPrecision   = errors.New("amount supports at most 2 decimal places")
	ErrAmountTooLarge    = errors.New("amount must be less than 10^23")
)

// MaxAmountExclusive is the first value that no longer fits NUMERIC(25,2).
var MaxAmountExclusive = decimal.New(1, 23)

// ParseAmount parses a decimal string and checks it is a valid transfer amount.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return d, ValidateAmount(d)
}

func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrNonPositiveAmount
	}
	if !d.Equal(d.Round(MoneyScale)) {
		return ErrAmountPrecision
	}
	if d.GreaterThanOrEqual(MaxAmountExclusive) {
		return ErrAmountTooLarge
	}
	return nil
}
