package inventory

import (
	"context"

	"github.com/google/uuid"
)

// StockBatchReader reads batches
type StockBatchReader interface {
	// FindByID returns shared.ErrNotFound when the batch does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*StockBatch, error)

	// FindByIDs returns the batches that exist; missing ids are omitted
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]StockBatch, error)

	// FindByLotIDs returns every batch belonging to any of the lots
	FindByLotIDs(ctx context.Context, lotIDs []uuid.UUID) ([]StockBatch, error)
}

// StockBatchRepository reads batches and writes debits
type StockBatchRepository interface {
	StockBatchReader

	// SaveWithLock persists QuantityRemaining and Version only if the stored
	// version equals batch.Version-1. A lost race returns shared.ErrOptimisticLockFailed.
	SaveWithLock(ctx context.Context, batch *StockBatch) error
}

// LotReader reads purchase lots
type LotReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Lot, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Lot, error)
}
