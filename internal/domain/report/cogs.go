package report

import (
	"github.com/erp/salesledger/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchResolver supplies the cost input for a batch, or false when the batch
// cannot be resolved (deleted or never existed).
type BatchResolver interface {
	Resolve(batchID uuid.UUID) (strategy.CostInput, bool)
}

// ItemizedCOGS is the cost contribution of one sold record
type ItemizedCOGS struct {
	RecordID     uuid.UUID
	Kind         RecordKind
	BatchID      uuid.UUID
	QuantitySold int64
	UnitCost     decimal.Decimal
	ItemCOGS     decimal.Decimal
}

// SkippedRecord is a sold record left out of cost accounting
type SkippedRecord struct {
	RecordID uuid.UUID
	Kind     RecordKind
	BatchID  uuid.UUID
}

// COGSResult is the outcome of aggregating cost over sold records.
// Values are unrounded minor units.
type COGSResult struct {
	TotalCOGS decimal.Decimal
	Itemized  []ItemizedCOGS
	Skipped   []SkippedRecord
}

// SkippedCount returns how many records had no resolvable batch
func (r COGSResult) SkippedCount() int {
	return len(r.Skipped)
}

// COGSAggregator computes cost of goods sold with one cost strategy
type COGSAggregator struct {
	strategy strategy.CostBasisStrategy
}

// NewCOGSAggregator creates an aggregator bound to the deployment's cost model
func NewCOGSAggregator(s strategy.CostBasisStrategy) *COGSAggregator {
	return &COGSAggregator{strategy: s}
}

// Method returns the cost model in use
func (a *COGSAggregator) Method() strategy.CostMethod {
	return a.strategy.Method()
}

// Aggregate prices every record through the resolver. Itemized output keeps
// input order. Records whose batch cannot be resolved are skipped from COGS
// and reported in Skipped.
func (a *COGSAggregator) Aggregate(records []SoldRecord, resolver BatchResolver) COGSResult {
	result := COGSResult{
		TotalCOGS: decimal.Zero,
		Itemized:  make([]ItemizedCOGS, 0, len(records)),
	}
	for _, rec := range records {
		input, ok := resolver.Resolve(rec.BatchID)
		if !ok {
			result.Skipped = append(result.Skipped, SkippedRecord{
				RecordID: rec.RecordID,
				Kind:     rec.Kind,
				BatchID:  rec.BatchID,
			})
			continue
		}

		unitCost := a.strategy.UnitCost(input)
		itemCOGS := unitCost.Mul(decimal.NewFromInt(rec.Quantity))
		result.TotalCOGS = result.TotalCOGS.Add(itemCOGS)
		result.Itemized = append(result.Itemized, ItemizedCOGS{
			RecordID:     rec.RecordID,
			Kind:         rec.Kind,
			BatchID:      rec.BatchID,
			QuantitySold: rec.Quantity,
			UnitCost:     unitCost,
			ItemCOGS:     itemCOGS,
		})
	}
	return result
}
