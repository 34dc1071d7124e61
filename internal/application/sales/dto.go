package sales

import (
	"time"

	"github.com/erp/salesledger/internal/domain/sales"
	"github.com/google/uuid"
)

// SaleLineRequest is one requested line of a sale
type SaleLineRequest struct {
	BatchID   uuid.UUID `json:"batch_id"`
	Quantity  int64     `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
}

// RecordSaleRequest describes a sale to commit. Amounts are minor units.
type RecordSaleRequest struct {
	TeamID       uuid.UUID
	Lines        []SaleLineRequest
	CustomerName string
	Tax          *int64
	Discount     *int64
	SoldAt       *time.Time
}

// BatchIDs returns the distinct batches referenced by the request, in line order
func (r RecordSaleRequest) BatchIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(r.Lines))
	ids := make([]uuid.UUID, 0, len(r.Lines))
	for _, line := range r.Lines {
		if _, ok := seen[line.BatchID]; ok {
			continue
		}
		seen[line.BatchID] = struct{}{}
		ids = append(ids, line.BatchID)
	}
	return ids
}

// SaleLineResponse represents a sale line in API responses
type SaleLineResponse struct {
	ID        uuid.UUID `json:"id"`
	LineIndex int       `json:"line_index"`
	BatchID   uuid.UUID `json:"batch_id"`
	Quantity  int64     `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
	LineTotal int64     `json:"line_total"`
}

// SaleTransactionResponse represents a committed sale in API responses
type SaleTransactionResponse struct {
	ID           uuid.UUID          `json:"id"`
	TeamID       uuid.UUID          `json:"team_id"`
	SoldAt       time.Time          `json:"sold_at"`
	CustomerName string             `json:"customer_name,omitempty"`
	Subtotal     int64              `json:"subtotal"`
	Tax          int64              `json:"tax"`
	Discount     int64              `json:"discount"`
	Total        int64              `json:"total"`
	CreatedBy    *uuid.UUID         `json:"created_by,omitempty"`
	Lines        []SaleLineResponse `json:"lines"`
	CreatedAt    time.Time          `json:"created_at"`
}

// ToSaleTransactionResponse converts a domain transaction to a response
func ToSaleTransactionResponse(txn *sales.SaleTransaction) SaleTransactionResponse {
	lines := make([]SaleLineResponse, len(txn.Lines))
	for i, line := range txn.Lines {
		lines[i] = SaleLineResponse{
			ID:        line.ID,
			LineIndex: line.LineIndex,
			BatchID:   line.BatchID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.LineTotal,
		}
	}
	return SaleTransactionResponse{
		ID:           txn.ID,
		TeamID:       txn.TeamID,
		SoldAt:       txn.SoldAt,
		CustomerName: txn.CustomerName,
		Subtotal:     txn.Subtotal,
		Tax:          txn.Tax,
		Discount:     txn.Discount,
		Total:        txn.Total,
		CreatedBy:    txn.CreatedBy,
		Lines:        lines,
		CreatedAt:    txn.CreatedAt,
	}
}
