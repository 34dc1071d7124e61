package dto

import "github.com/shopspring/decimal"

// CostScale is the number of fractional minor units kept when presenting
// computed costs. Stored amounts are whole minor units and never rounded.
const CostScale int32 = 2

// PresentCost rounds a computed cost for output. Half values round away from zero.
func PresentCost(d decimal.Decimal) decimal.Decimal {
	return d.Round(CostScale)
}

// FormatCost renders a computed cost with exactly CostScale fractional digits
func FormatCost(d decimal.Decimal) string {
	return d.StringFixed(CostScale)
}
