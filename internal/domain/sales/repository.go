package sales

import (
	"context"

	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/google/uuid"
)

// SaleTransactionReader reads committed transactions
type SaleTransactionReader interface {
	// FindByID loads a transaction with its lines ordered by line index.
	// Returns shared.ErrNotFound when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*SaleTransaction, error)

	// FindInWindow returns the team's transactions whose SoldAt lies in the
	// window, ordered by SoldAt then ID, with lines loaded.
	FindInWindow(ctx context.Context, filter shared.WindowFilter) ([]SaleTransaction, error)
}

// SaleTransactionRepository reads and writes transactions
type SaleTransactionRepository interface {
	SaleTransactionReader

	// Create inserts the transaction and all of its lines
	Create(ctx context.Context, txn *SaleTransaction) error

	// Delete removes every line and then the transaction. Stock is not restored.
	Delete(ctx context.Context, id uuid.UUID) error
}

// LegacySaleReader reads pre-transaction single-line sales
type LegacySaleReader interface {
	// FindInWindow returns the team's records whose SoldAt lies in the window,
	// ordered by SoldAt then ID.
	FindInWindow(ctx context.Context, filter shared.WindowFilter) ([]LegacySaleRecord, error)
}
