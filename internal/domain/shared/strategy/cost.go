package strategy

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostMethod represents the cost-basis model of a deployment
type CostMethod string

const (
	// CostMethodLotWeightedAverage pools a purchase lot's cost over every unit it yielded
	CostMethodLotWeightedAverage CostMethod = "lot_weighted_average"
	// CostMethodDirectBatch attaches cost to the batch a unit was drawn from
	CostMethodDirectBatch CostMethod = "direct_batch"
)

// String returns the string representation of the cost method
func (m CostMethod) String() string {
	return string(m)
}

// IsValid returns true if the cost method is known
func (m CostMethod) IsValid() bool {
	return m == CostMethodLotWeightedAverage || m == CostMethodDirectBatch
}

// CostBatch is the cost-relevant projection of an inventory batch.
// Amounts are minor currency units.
type CostBatch struct {
	BatchID          uuid.UUID
	LotID            *uuid.UUID
	TotalCost        int64
	QuantityReceived int64
	PurchaseQuantity int64
	UnitsPerPack     int64
}

// CostLot is the cost-relevant projection of a purchase lot
type CostLot struct {
	LotID     uuid.UUID
	TotalCost int64
}

// CostInput carries everything a strategy may need to price one batch.
// Lot and Siblings are only populated for the pooled model; Siblings
// includes the batch itself.
type CostInput struct {
	Batch    CostBatch
	Lot      *CostLot
	Siblings []CostBatch
}

// CostBasisStrategy computes the per-unit cost of a batch.
// Implementations must be pure: identical inputs yield identical outputs.
type CostBasisStrategy interface {
	Named
	// Method returns the costing method used by this strategy
	Method() CostMethod
	// UnitCost returns the non-negative cost per sellable unit in minor units.
	// The result is not rounded.
	UnitCost(input CostInput) decimal.Decimal
}
