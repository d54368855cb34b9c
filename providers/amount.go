package providers

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxMinorUnits is the largest amount Stripe accepts for a charge or refund,
// in minor units (999999.99 in major units).
const MaxMinorUnits int64 = 99999999

// ErrAmountOutOfRange is returned for amounts that round to fewer than one
// minor unit or to more than MaxMinorUnits.
var ErrAmountOutOfRange = errors.New("amount out of range")

var minorUnitsPerMajor = decimal.NewFromInt(100)

// ToMinorUnits converts a major-unit amount (10.25) to provider minor units
// (1025), rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	minor := amount.Mul(minorUnitsPerMajor).Round(0)
	if minor.LessThan(decimal.NewFromInt(1)) || minor.GreaterThan(decimal.NewFromInt(MaxMinorUnits)) {
		return 0, fmt.Errorf("%w: %s", ErrAmountOutOfRange, amount)
	}
	return minor.IntPart(), nil
}

// FromMinorUnits converts provider minor units back to a major-unit amount.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
