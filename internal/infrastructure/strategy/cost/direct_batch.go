package cost

import (
	"github.com/erp/salesledger/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// DirectBatchStrategy prices a unit from its own batch's purchase cost and
// sellable unit count, with no pooling across batches.
type DirectBatchStrategy struct {
	strategy.CostModel
}

// NewDirectBatchStrategy creates a new direct batch cost strategy
func NewDirectBatchStrategy() *DirectBatchStrategy {
	return &DirectBatchStrategy{
		CostModel: strategy.NewCostModel(
			strategy.CostMethodDirectBatch,
			"Batch total cost divided by packs bought times units per pack",
		),
	}
}

// UnitCost returns totalCost / max(1, purchaseQuantity × unitsPerPack)
func (s *DirectBatchStrategy) UnitCost(input strategy.CostInput) decimal.Decimal {
	b := input.Batch
	if b.TotalCost <= 0 {
		return decimal.Zero
	}

	sellable := decimal.NewFromInt(b.PurchaseQuantity).Mul(decimal.NewFromInt(b.UnitsPerPack))
	if sellable.LessThan(decimal.NewFromInt(1)) {
		sellable = decimal.NewFromInt(1)
	}

	return decimal.NewFromInt(b.TotalCost).Div(sellable)
}
