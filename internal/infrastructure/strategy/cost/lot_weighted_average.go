package cost

import (
	"github.com/erp/salesledger/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// LotWeightedAverageStrategy pools a purchase lot's total cost across every
// unit received by the lot's batches.
type LotWeightedAverageStrategy struct {
	strategy.CostModel
}

// NewLotWeightedAverageStrategy creates a new pooled cost strategy
func NewLotWeightedAverageStrategy() *LotWeightedAverageStrategy {
	return &LotWeightedAverageStrategy{
		CostModel: strategy.NewCostModel(
			strategy.CostMethodLotWeightedAverage,
			"Lot total cost divided by units received across the lot",
		),
	}
}

// UnitCost returns lotTotalCost / Σ siblings.QuantityReceived, or zero while
// nothing has been received yet. Without a lot the batch is priced as a lot
// of one, ignoring any siblings.
func (s *LotWeightedAverageStrategy) UnitCost(input strategy.CostInput) decimal.Decimal {
	siblings := input.Siblings
	if input.Lot == nil || len(siblings) == 0 {
		siblings = []strategy.CostBatch{input.Batch}
	}

	var unitsReceived int64
	for _, sibling := range siblings {
		if sibling.QuantityReceived > 0 {
			unitsReceived += sibling.QuantityReceived
		}
	}
	if unitsReceived <= 0 {
		return decimal.Zero
	}

	lotTotal := input.Batch.TotalCost
	if input.Lot != nil {
		lotTotal = input.Lot.TotalCost
	}
	if lotTotal <= 0 {
		return decimal.Zero
	}

	return decimal.NewFromInt(lotTotal).Div(decimal.NewFromInt(unitsReceived))
}
