package persistence

import (
	"context"
	"errors"

	"github.com/erp/salesledger/internal/domain/sales"
	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/erp/salesledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSaleTransactionRepository implements sales.SaleTransactionRepository using GORM
type GormSaleTransactionRepository struct {
	db *gorm.DB
}

// NewGormSaleTransactionRepository creates a new GormSaleTransactionRepository
func NewGormSaleTransactionRepository(db *gorm.DB) *GormSaleTransactionRepository {
	return &GormSaleTransactionRepository{db: db}
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("line_index ASC")
}

// FindByID loads a transaction with its lines
func (r *GormSaleTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.SaleTransaction, error) {
	var model models.SaleTransactionModel
	err := r.db.WithContext(ctx).
		Preload("Lines", orderedLines).
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindInWindow returns the team's transactions sold inside the inclusive window
func (r *GormSaleTransactionRepository) FindInWindow(ctx context.Context, filter shared.WindowFilter) ([]sales.SaleTransaction, error) {
	var rows []models.SaleTransactionModel
	err := r.db.WithContext(ctx).
		Scopes(TeamScope(filter.TeamID)).
		Where("sold_at >= ? AND sold_at <= ?", filter.Start, filter.End).
		Preload("Lines", orderedLines).
		Order("sold_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	txns := make([]sales.SaleTransaction, len(rows))
	for i := range rows {
		txns[i] = *rows[i].ToDomain()
	}
	return txns, nil
}

// Create inserts the transaction header and all of its lines
func (r *GormSaleTransactionRepository) Create(ctx context.Context, txn *sales.SaleTransaction) error {
	if err := txn.Verify(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(models.SaleTransactionModelFromDomain(txn)).Error
}

// Delete removes the lines and then the header. Stock is not restored.
func (r *GormSaleTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("transaction_id = ?", id).Delete(&models.SaleLineModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.SaleTransactionModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

var _ sales.SaleTransactionRepository = (*GormSaleTransactionRepository)(nil)
