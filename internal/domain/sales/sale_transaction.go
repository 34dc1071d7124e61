package sales

import (
	"fmt"
	"time"

	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/erp/salesledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// SaleTransaction is one checkout event. It is written once, together with
// its lines, and never mutated afterwards.
//
// Invariants: Total = Subtotal + Tax - Discount, Subtotal = Σ Lines.LineTotal.
type SaleTransaction struct {
	shared.TeamAggregateRoot
	SoldAt       time.Time
	CustomerName string
	Subtotal     int64
	Tax          int64
	Discount     int64
	Total        int64
	Lines        []SaleLine
}

// SaleLine is one batch-quantity-price tuple within a transaction
type SaleLine struct {
	shared.BaseEntity
	TransactionID uuid.UUID
	LineIndex     int
	BatchID       uuid.UUID
	Quantity      int64
	UnitPrice     int64
	LineTotal     int64
}

// NewSaleLine creates a line with LineTotal = quantity × unitPrice
func NewSaleLine(index int, batchID uuid.UUID, quantity, unitPrice int64) (SaleLine, error) {
	if quantity <= 0 {
		return SaleLine{}, shared.NewDomainError(shared.CodeInvalidQuantity,
			fmt.Sprintf("Quantity must be positive, got %d", quantity))
	}
	if unitPrice < 0 {
		return SaleLine{}, shared.NewDomainError(shared.CodeInvalidAmount,
			fmt.Sprintf("Unit price cannot be negative, got %d", unitPrice))
	}
	total, ok := valueobject.Amount(unitPrice).MulQuantity(quantity)
	if !ok {
		return SaleLine{}, shared.NewDomainError(shared.CodeInvalidAmount, "Line total overflows")
	}
	return SaleLine{
		BaseEntity: shared.NewBaseEntity(),
		LineIndex:  index,
		BatchID:    batchID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		LineTotal:  total.Int64(),
	}, nil
}

// NewSaleTransaction assembles a transaction from validated lines and computes
// its totals. Tax and discount must be non-negative and the discount may not
// exceed subtotal + tax.
func NewSaleTransaction(
	teamID, createdBy uuid.UUID,
	soldAt time.Time,
	customerName string,
	lines []SaleLine,
	tax, discount int64,
) (*SaleTransaction, error) {
	if len(lines) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Sale must contain at least one line")
	}
	if tax < 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Tax cannot be negative")
	}
	if discount < 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Discount cannot be negative")
	}

	var subtotal valueobject.Amount
	for _, line := range lines {
		next, ok := subtotal.Add(valueobject.Amount(line.LineTotal))
		if !ok {
			return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Subtotal overflows")
		}
		subtotal = next
	}
	gross, ok := subtotal.Add(valueobject.Amount(tax))
	if !ok {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Subtotal plus tax overflows")
	}
	if valueobject.Amount(discount) > gross {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount,
			fmt.Sprintf("Discount %d exceeds subtotal plus tax %d", discount, gross))
	}

	total, ok := gross.Sub(valueobject.Amount(discount))
	if !ok || total.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Total cannot be negative")
	}

	txn := &SaleTransaction{
		TeamAggregateRoot: shared.NewTeamAggregateRootWithCreator(teamID, createdBy),
		SoldAt:            soldAt.UTC(),
		CustomerName:      customerName,
		Subtotal:          subtotal.Int64(),
		Tax:               tax,
		Discount:          discount,
		Total:             total.Int64(),
		Lines:             make([]SaleLine, len(lines)),
	}
	for i, line := range lines {
		line.TransactionID = txn.ID
		line.LineIndex = i
		line.CreatedAt = txn.CreatedAt
		line.UpdatedAt = txn.CreatedAt
		txn.Lines[i] = line
	}
	return txn, nil
}

// Verify checks the totals invariants
func (t *SaleTransaction) Verify() error {
	var subtotal int64
	for _, line := range t.Lines {
		if line.LineTotal != line.Quantity*line.UnitPrice {
			return shared.NewDomainError(shared.CodeInvalidState,
				fmt.Sprintf("Line %d total does not equal quantity × unit price", line.LineIndex))
		}
		subtotal += line.LineTotal
	}
	if subtotal != t.Subtotal {
		return shared.NewDomainError(shared.CodeInvalidState, "Subtotal does not equal the sum of line totals")
	}
	if t.Total != t.Subtotal+t.Tax-t.Discount {
		return shared.NewDomainError(shared.CodeInvalidState, "Total does not equal subtotal + tax - discount")
	}
	return nil
}

// BatchIDs returns the distinct batches referenced by the lines, in line order
func (t *SaleTransaction) BatchIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(t.Lines))
	ids := make([]uuid.UUID, 0, len(t.Lines))
	for _, line := range t.Lines {
		if _, ok := seen[line.BatchID]; ok {
			continue
		}
		seen[line.BatchID] = struct{}{}
		ids = append(ids, line.BatchID)
	}
	return ids
}
