package inventory

import (
	"time"

	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/erp/salesledger/internal/domain/shared/strategy"
	"github.com/google/uuid"
)

// StockBatch is the stock yielded by one purchase event.
// Quantities are sellable units; TotalCost is in minor currency units.
//
// Invariant: 0 <= QuantityRemaining <= QuantityReceived. QuantityRemaining is
// changed only through ApplyDebit.
type StockBatch struct {
	shared.TeamAggregateRoot
	ProductID         uuid.UUID
	LotID             *uuid.UUID // pooled cost model: purchase lot this batch belongs to
	AcquiredAt        time.Time
	TotalCost         int64
	QuantityReceived  int64
	QuantityRemaining int64
	PurchaseQuantity  int64 // direct cost model: packs bought
	UnitsPerPack      int64 // direct cost model: sellable units per pack
	ExpiresAt         *time.Time
	Location          string
}

// BatchOption configures optional StockBatch attributes
type BatchOption func(*StockBatch)

// WithLot assigns the batch to a purchase lot
func WithLot(lotID uuid.UUID) BatchOption {
	return func(b *StockBatch) {
		b.LotID = &lotID
	}
}

// WithPackaging records packs bought and units per pack
func WithPackaging(purchaseQuantity, unitsPerPack int64) BatchOption {
	return func(b *StockBatch) {
		b.PurchaseQuantity = purchaseQuantity
		b.UnitsPerPack = unitsPerPack
	}
}

// WithExpiry sets the expiration instant
func WithExpiry(at time.Time) BatchOption {
	return func(b *StockBatch) {
		utc := at.UTC()
		b.ExpiresAt = &utc
	}
}

// WithLocation sets the storage location tag
func WithLocation(location string) BatchOption {
	return func(b *StockBatch) {
		b.Location = location
	}
}

// NewStockBatch creates a batch with its full received quantity remaining
func NewStockBatch(
	teamID, productID uuid.UUID,
	acquiredAt time.Time,
	totalCost, quantityReceived int64,
	opts ...BatchOption,
) (*StockBatch, error) {
	if teamID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Team ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Product ID cannot be empty")
	}
	if totalCost < 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Total cost cannot be negative")
	}
	if quantityReceived < 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Received quantity cannot be negative")
	}

	b := &StockBatch{
		TeamAggregateRoot: shared.NewTeamAggregateRoot(teamID),
		ProductID:         productID,
		AcquiredAt:        acquiredAt.UTC(),
		TotalCost:         totalCost,
		QuantityReceived:  quantityReceived,
		QuantityRemaining: quantityReceived,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.PurchaseQuantity < 0 || b.UnitsPerPack < 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Packaging quantities cannot be negative")
	}
	return b, nil
}

// CheckInvariant verifies 0 <= remaining <= received
func (b *StockBatch) CheckInvariant() error {
	if b.QuantityRemaining < 0 || b.QuantityRemaining > b.QuantityReceived {
		return shared.NewDomainError(shared.CodeInvalidState, "Batch remaining quantity is outside [0, received]")
	}
	return nil
}

// IsExpired returns true if the batch expired before the given instant
func (b *StockBatch) IsExpired(at time.Time) bool {
	return b.ExpiresAt != nil && b.ExpiresAt.Before(at)
}

// CostBasis projects the batch onto the fields cost strategies read
func (b *StockBatch) CostBasis() strategy.CostBatch {
	return strategy.CostBatch{
		BatchID:          b.ID,
		LotID:            b.LotID,
		TotalCost:        b.TotalCost,
		QuantityReceived: b.QuantityReceived,
		PurchaseQuantity: b.PurchaseQuantity,
		UnitsPerPack:     b.UnitsPerPack,
	}
}

// Clone returns an independent copy, used as a staging working copy
func (b *StockBatch) Clone() *StockBatch {
	c := *b
	if b.LotID != nil {
		lot := *b.LotID
		c.LotID = &lot
	}
	if b.ExpiresAt != nil {
		exp := *b.ExpiresAt
		c.ExpiresAt = &exp
	}
	if b.CreatedBy != nil {
		by := *b.CreatedBy
		c.CreatedBy = &by
	}
	return &c
}
