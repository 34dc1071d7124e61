package persistence

import (
	"context"
	"errors"
	"fmt"

	appsales "github.com/erp/salesledger/internal/application/sales"
	"github.com/erp/salesledger/internal/domain/inventory"
	"github.com/erp/salesledger/internal/domain/sales"
	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATEs raised when concurrent transactions collide
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// GormTransactionScope implements appsales.TransactionScope using GORM transactions.
// Batch debits and the sale rows are written in one database transaction.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction. If fn returns an error the
// transaction is rolled back; otherwise it is committed. Deadlocks and
// serialization failures are reported as shared.ErrOptimisticLockFailed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appsales.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
	return translateTxError(err)
}

func translateTxError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected:
		return fmt.Errorf("%w: %w", shared.ErrOptimisticLockFailed, err)
	}
	return err
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Batches returns the stock batch repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Batches() inventory.StockBatchRepository {
	return NewGormStockBatchRepository(r.tx)
}

// Sales returns the sale transaction repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Sales() sales.SaleTransactionRepository {
	return NewGormSaleTransactionRepository(r.tx)
}

var _ appsales.TransactionScope = (*GormTransactionScope)(nil)
var _ appsales.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
