package sales

import (
	"bytes"
	"fmt"
	"slices"
	"time"

	"github.com/erp/salesledger/internal/domain/inventory"
	"github.com/erp/salesledger/internal/domain/sales"
	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/google/uuid"
)

// LineError ties a validation failure to the request line that caused it.
// Its message is the underlying error's message unchanged.
type LineError struct {
	Index   int
	BatchID uuid.UUID
	Err     error
}

// Error implements the error interface
func (e *LineError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *LineError) Unwrap() error {
	return e.Err
}

// StagedSale is a validated sale ready to be written: the new transaction
// and the debited working copies of every touched batch.
type StagedSale struct {
	Transaction *sales.SaleTransaction
	// Batches are ordered by ID so concurrent sales lock rows in the same
	// order. Each has its version bumped once so it can be written with
	// SaveWithLock.
	Batches []*inventory.StockBatch
}

// StageSale validates a sale against already-read batches and computes its
// totals. It performs no I/O and does not modify the batches passed in.
//
// Lines are validated in order; the first failing line aborts the whole sale.
// Several lines on one batch draw from the same running remaining quantity.
func StageSale(
	caller shared.Caller,
	req RecordSaleRequest,
	batches map[uuid.UUID]*inventory.StockBatch,
	now time.Time,
) (*StagedSale, error) {
	// Validating
	if err := caller.AuthorizeTeam(req.TeamID); err != nil {
		return nil, err
	}
	if len(req.Lines) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Sale must contain at least one line")
	}
	tax, discount := valueOrZero(req.Tax), valueOrZero(req.Discount)
	if tax < 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, fmt.Sprintf("Tax cannot be negative, got %d", tax))
	}
	if discount < 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, fmt.Sprintf("Discount cannot be negative, got %d", discount))
	}

	working := make(map[uuid.UUID]*inventory.StockBatch, len(req.Lines))
	touched := make([]*inventory.StockBatch, 0, len(req.Lines))
	lines := make([]sales.SaleLine, 0, len(req.Lines))

	for i, l := range req.Lines {
		lineErr := func(err error) error {
			return &LineError{Index: i, BatchID: l.BatchID, Err: err}
		}

		line, err := sales.NewSaleLine(i, l.BatchID, l.Quantity, l.UnitPrice)
		if err != nil {
			return nil, lineErr(err)
		}

		batch, ok := working[l.BatchID]
		if !ok {
			source, found := batches[l.BatchID]
			if !found || source == nil {
				return nil, lineErr(shared.NewDomainError(shared.CodeNotFound,
					fmt.Sprintf("Inventory batch %s not found", l.BatchID)))
			}
			if !source.OwnedBy(req.TeamID) {
				return nil, lineErr(shared.NewDomainError(shared.CodeForbidden,
					fmt.Sprintf("Inventory batch %s belongs to another team", l.BatchID)))
			}
			batch = source.Clone()
			working[l.BatchID] = batch
			touched = append(touched, batch)
		}

		debit, err := inventory.ValidateAndDebit(batch, l.Quantity)
		if err != nil {
			return nil, lineErr(err)
		}
		if err := batch.ApplyDebit(debit); err != nil {
			return nil, lineErr(err)
		}
		lines = append(lines, line)
	}

	// Computing
	soldAt := now
	if req.SoldAt != nil && !req.SoldAt.IsZero() {
		soldAt = *req.SoldAt
	}
	txn, err := sales.NewSaleTransaction(req.TeamID, caller.UserID, soldAt, req.CustomerName, lines, tax, discount)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(touched, func(a, b *inventory.StockBatch) int {
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	for _, batch := range touched {
		batch.IncrementVersion()
		batch.Touch(now)
	}

	return &StagedSale{Transaction: txn, Batches: touched}, nil
}

func valueOrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
