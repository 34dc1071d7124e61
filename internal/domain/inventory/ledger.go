package inventory

import (
	"fmt"

	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/google/uuid"
)

// InsufficientStockError reports a debit larger than the batch's remaining units.
// It unwraps to a DomainError with code INSUFFICIENT_STOCK.
type InsufficientStockError struct {
	BatchID   uuid.UUID
	Available int64
	Requested int64
}

// Error implements the error interface
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock: available %d, requested %d", e.Available, e.Requested)
}

// Unwrap exposes the domain error for errors.Is / errors.As
func (e *InsufficientStockError) Unwrap() error {
	return shared.NewDomainError(shared.CodeInsufficientStock, e.Error())
}

// DebitResult describes a validated debit. Nothing is persisted by producing it.
type DebitResult struct {
	BatchID           uuid.UUID
	Quantity          int64
	PreviousRemaining int64
	NewRemaining      int64
}

// ValidateAndDebit checks that quantity can be drawn from the batch and returns
// the resulting remaining quantity. The batch is not modified.
func ValidateAndDebit(batch *StockBatch, quantity int64) (DebitResult, error) {
	if quantity <= 0 {
		return DebitResult{}, shared.NewDomainError(shared.CodeInvalidQuantity,
			fmt.Sprintf("Quantity must be positive, got %d", quantity))
	}
	if batch.QuantityRemaining < quantity {
		return DebitResult{}, &InsufficientStockError{
			BatchID:   batch.ID,
			Available: batch.QuantityRemaining,
			Requested: quantity,
		}
	}
	return DebitResult{
		BatchID:           batch.ID,
		Quantity:          quantity,
		PreviousRemaining: batch.QuantityRemaining,
		NewRemaining:      batch.QuantityRemaining - quantity,
	}, nil
}

// ApplyDebit moves the batch to the debit's new remaining quantity.
// The debit must have been produced against the batch's current state.
func (b *StockBatch) ApplyDebit(d DebitResult) error {
	if d.BatchID != b.ID {
		return shared.NewDomainError(shared.CodeInvalidState, "Debit belongs to a different batch")
	}
	if d.PreviousRemaining != b.QuantityRemaining {
		return shared.NewDomainError(shared.CodeInvalidState, "Debit was computed against a stale remaining quantity")
	}
	if d.NewRemaining < 0 || d.NewRemaining > b.QuantityReceived {
		return shared.NewDomainError(shared.CodeInvalidState, "Debit would break the batch stock invariant")
	}
	b.QuantityRemaining = d.NewRemaining
	return nil
}
