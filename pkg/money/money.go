package money

import "github.com/shopspring/decimal"

// Round normalizes an amount to two decimal places, the precision every
// stored amount in the system carries.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Sum accumulates amounts, rounding after every step so long runs of
// partial payments cannot drift.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = Round(total.Add(a))
	}
	return total
}

// FromFloat converts a caller-supplied float into a two-decimal amount.
func FromFloat(v float64) decimal.Decimal {
	return Round(decimal.NewFromFloat(v))
}

// IsPositive reports whether the amount is strictly greater than zero.
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(decimal.Zero)
}
