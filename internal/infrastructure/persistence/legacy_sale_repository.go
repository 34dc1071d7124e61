package persistence

import (
	"context"

	"github.com/erp/salesledger/internal/domain/sales"
	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/erp/salesledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLegacySaleRepository implements sales.LegacySaleReader using GORM
type GormLegacySaleRepository struct {
	db *gorm.DB
}

// NewGormLegacySaleRepository creates a new GormLegacySaleRepository
func NewGormLegacySaleRepository(db *gorm.DB) *GormLegacySaleRepository {
	return &GormLegacySaleRepository{db: db}
}

// FindInWindow returns the team's legacy records sold inside the inclusive window
func (r *GormLegacySaleRepository) FindInWindow(ctx context.Context, filter shared.WindowFilter) ([]sales.LegacySaleRecord, error) {
	var rows []models.LegacySaleModel
	err := r.db.WithContext(ctx).
		Scopes(TeamScope(filter.TeamID)).
		Where("sold_at >= ? AND sold_at <= ?", filter.Start, filter.End).
		Order("sold_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	records := make([]sales.LegacySaleRecord, len(rows))
	for i := range rows {
		records[i] = *rows[i].ToDomain()
	}
	return records, nil
}

// Create inserts a legacy record; used when importing historical sales
func (r *GormLegacySaleRepository) Create(ctx context.Context, record *sales.LegacySaleRecord) error {
	return r.db.WithContext(ctx).Create(models.LegacySaleModelFromDomain(record)).Error
}

var _ sales.LegacySaleReader = (*GormLegacySaleRepository)(nil)
