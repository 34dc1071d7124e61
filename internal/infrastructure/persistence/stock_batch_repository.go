package persistence

import (
	"context"
	"errors"

	"github.com/erp/salesledger/internal/domain/inventory"
	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/erp/salesledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockBatchRepository implements inventory.StockBatchRepository using GORM
type GormStockBatchRepository struct {
	db *gorm.DB
}

// NewGormStockBatchRepository creates a new GormStockBatchRepository
func NewGormStockBatchRepository(db *gorm.DB) *GormStockBatchRepository {
	return &GormStockBatchRepository{db: db}
}

// FindByID finds a stock batch by its ID
func (r *GormStockBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockBatch, error) {
	var model models.StockBatchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the existing batches in the order their ids were first given
func (r *GormStockBatchRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]inventory.StockBatch, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.StockBatchModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*models.StockBatchModel, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}
	batches := make([]inventory.StockBatch, 0, len(rows))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			batches = append(batches, *m.ToDomain())
			delete(byID, id)
		}
	}
	return batches, nil
}

// FindByLotIDs returns every batch that belongs to one of the lots
func (r *GormStockBatchRepository) FindByLotIDs(ctx context.Context, lotIDs []uuid.UUID) ([]inventory.StockBatch, error) {
	if len(lotIDs) == 0 {
		return nil, nil
	}
	var rows []models.StockBatchModel
	if err := r.db.WithContext(ctx).
		Where("lot_id IN ?", lotIDs).
		Order("acquired_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	batches := make([]inventory.StockBatch, len(rows))
	for i := range rows {
		batches[i] = *rows[i].ToDomain()
	}
	return batches, nil
}

// SaveWithLock writes the debited quantity only if the stored version is
// batch.Version-1, i.e. nobody else wrote the batch since it was read.
func (r *GormStockBatchRepository) SaveWithLock(ctx context.Context, batch *inventory.StockBatch) error {
	if err := batch.CheckInvariant(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&models.StockBatchModel{}).
		Where("id = ? AND version = ?", batch.ID, batch.Version-1).
		Updates(map[string]any{
			"quantity_remaining": batch.QuantityRemaining,
			"version":            batch.Version,
			"updated_at":         batch.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrOptimisticLockFailed
	}
	return nil
}

// Create inserts a new batch. Batches are normally created by the catalog
// service; this is used for seeding and tests.
func (r *GormStockBatchRepository) Create(ctx context.Context, batch *inventory.StockBatch) error {
	if err := batch.CheckInvariant(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(models.StockBatchModelFromDomain(batch)).Error
}

var _ inventory.StockBatchRepository = (*GormStockBatchRepository)(nil)
