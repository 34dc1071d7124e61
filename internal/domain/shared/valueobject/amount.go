package valueobject

import (
	"math"
	"math/bits"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in integer minor currency units (e.g. cents).
// Domain arithmetic never leaves integers; fractional values only appear in
// cost-basis results, which are decimals.
type Amount int64

// Int64 returns the raw minor-unit value
func (a Amount) Int64() int64 {
	return int64(a)
}

// IsNegative returns true if the amount is below zero
func (a Amount) IsNegative() bool {
	return a < 0
}

// Decimal returns the amount as a decimal in minor units
func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(a))
}

// Add returns a+b, reporting false on int64 overflow
func (a Amount) Add(b Amount) (Amount, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}

// Sub returns a-b, reporting false on int64 overflow
func (a Amount) Sub(b Amount) (Amount, bool) {
	if b == math.MinInt64 {
		return 0, false
	}
	return a.Add(-b)
}

// MulQuantity returns a×qty for non-negative operands, reporting false on overflow
func (a Amount) MulQuantity(qty int64) (Amount, bool) {
	if a < 0 || qty < 0 {
		return 0, false
	}
	hi, lo := bits.Mul64(uint64(a), uint64(qty))
	if hi != 0 || lo > math.MaxInt64 {
		return 0, false
	}
	return Amount(lo), true
}
