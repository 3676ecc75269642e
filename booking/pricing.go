package booking

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PRICING CALCULATOR
// =============================================================================

// MoneyPlaces is the precision totals are rounded to after division.
const MoneyPlaces = 2

// Nights returns exit - entry in whole days. Non-positive stays are InvalidRange.
func Nights(entry, exit Date) (int, error) {
	if entry.IsZero() || exit.IsZero() {
		return 0, fmt.Errorf("%w: check-in and check-out dates are required", ErrInvalidRange)
	}
	n := DaysBetween(entry, exit)
	if n <= 0 {
		return 0, fmt.Errorf("%w: check-out %s must be after check-in %s", ErrInvalidRange, exit, entry)
	}
	return n, nil
}

// ComputeTotal prices a stay: nights * nightlyRate.
func ComputeTotal(entry, exit Date, nightlyRate decimal.Decimal) (decimal.Decimal, error) {
	n, err := Nights(entry, exit)
	if err != nil {
		return decimal.Zero, err
	}
	return nightlyRate.Mul(decimal.NewFromInt(int64(n))), nil
}

// NightlyRate recovers the per-night rate a total was computed with.
// Stays shorter than a night are priced as one.
func NightlyRate(total decimal.Decimal, nights int) decimal.Decimal {
	if nights < 1 {
		nights = 1
	}
	return total.Div(decimal.NewFromInt(int64(nights)))
}

// Reprice charges nights at rate, never fewer than one night.
func Reprice(nights int, rate decimal.Decimal) decimal.Decimal {
	if nights < 1 {
		nights = 1
	}
	return rate.Mul(decimal.NewFromInt(int64(nights))).Round(MoneyPlaces)
}
