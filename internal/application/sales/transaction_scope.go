package sales

import (
	"context"

	"github.com/erp/salesledger/internal/domain/inventory"
	"github.com/erp/salesledger/internal/domain/sales"
)

// TransactionScope runs a read-then-write sequence atomically.
// If fn returns an error nothing it wrote is kept. Versioned writes that lose
// a race surface as shared.ErrOptimisticLockFailed, either from the write
// itself or from commit.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides repositories bound to one transaction
type TransactionalRepositories interface {
	// Batches returns the stock batch repository scoped to the current transaction
	Batches() inventory.StockBatchRepository
	// Sales returns the sale transaction repository scoped to the current transaction
	Sales() sales.SaleTransactionRepository
}

// NoOpTransactionScope runs fn against plain repositories without a transaction.
// This is useful for testing.
type NoOpTransactionScope struct {
	batchRepo inventory.StockBatchRepository
	saleRepo  sales.SaleTransactionRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(batchRepo inventory.StockBatchRepository, saleRepo sales.SaleTransactionRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{batchRepo: batchRepo, saleRepo: saleRepo}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Batches returns the stock batch repository.
func (s *NoOpTransactionScope) Batches() inventory.StockBatchRepository {
	return s.batchRepo
}

// Sales returns the sale transaction repository.
func (s *NoOpTransactionScope) Sales() sales.SaleTransactionRepository {
	return s.saleRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
