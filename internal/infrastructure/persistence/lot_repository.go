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

// GormLotRepository implements inventory.LotReader using GORM
type GormLotRepository struct {
	db *gorm.DB
}

// NewGormLotRepository creates a new GormLotRepository
func NewGormLotRepository(db *gorm.DB) *GormLotRepository {
	return &GormLotRepository{db: db}
}

// FindByID finds a lot by its ID
func (r *GormLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Lot, error) {
	var model models.LotModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the lots that exist; missing ids are omitted
func (r *GormLotRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]inventory.Lot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.LotModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	lots := make([]inventory.Lot, len(rows))
	for i := range rows {
		lots[i] = *rows[i].ToDomain()
	}
	return lots, nil
}

// Create inserts a new lot
func (r *GormLotRepository) Create(ctx context.Context, lot *inventory.Lot) error {
	return r.db.WithContext(ctx).Create(models.LotModelFromDomain(lot)).Error
}

var _ inventory.LotReader = (*GormLotRepository)(nil)
