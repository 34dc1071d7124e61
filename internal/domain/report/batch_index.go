package report

import (
	"github.com/erp/salesledger/internal/domain/inventory"
	"github.com/erp/salesledger/internal/domain/shared/strategy"
	"github.com/google/uuid"
)

// BatchIndex is an in-memory BatchResolver over already-fetched batches,
// their lots and the lots' sibling batches.
type BatchIndex struct {
	batches  map[uuid.UUID]strategy.CostBatch
	lots     map[uuid.UUID]*strategy.CostLot
	siblings map[uuid.UUID][]strategy.CostBatch
	// requireLot makes a batch whose lot is not loaded unresolvable
	requireLot bool
}

// NewBatchIndex builds a resolver. lots and siblings may be empty for the
// direct cost model.
func NewBatchIndex(batches []inventory.StockBatch, lots []inventory.Lot, siblings []inventory.StockBatch) *BatchIndex {
	idx := &BatchIndex{
		batches:  make(map[uuid.UUID]strategy.CostBatch, len(batches)),
		lots:     make(map[uuid.UUID]*strategy.CostLot, len(lots)),
		siblings: make(map[uuid.UUID][]strategy.CostBatch),
	}
	for i := range batches {
		idx.batches[batches[i].ID] = batches[i].CostBasis()
	}
	for i := range lots {
		idx.lots[lots[i].ID] = lots[i].CostBasis()
	}
	seen := make(map[uuid.UUID]struct{}, len(siblings))
	for i := range siblings {
		s := &siblings[i]
		if s.LotID == nil {
			continue
		}
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}
		idx.siblings[*s.LotID] = append(idx.siblings[*s.LotID], s.CostBasis())
	}
	return idx
}

// NewPooledBatchIndex builds a resolver for the pooled cost model. A batch
// that belongs to a lot resolves only when that lot was loaded too.
func NewPooledBatchIndex(batches []inventory.StockBatch, lots []inventory.Lot, siblings []inventory.StockBatch) *BatchIndex {
	idx := NewBatchIndex(batches, lots, siblings)
	idx.requireLot = true
	return idx
}

// Resolve implements BatchResolver
func (idx *BatchIndex) Resolve(batchID uuid.UUID) (strategy.CostInput, bool) {
	batch, ok := idx.batches[batchID]
	if !ok {
		return strategy.CostInput{}, false
	}
	input := strategy.CostInput{Batch: batch}
	if batch.LotID != nil {
		input.Lot = idx.lots[*batch.LotID]
		if input.Lot == nil && idx.requireLot {
			return strategy.CostInput{}, false
		}
		input.Siblings = idx.siblings[*batch.LotID]
	}
	return input, true
}
