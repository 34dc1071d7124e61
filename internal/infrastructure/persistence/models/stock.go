package models

import (
	"time"

	"github.com/erp/salesledger/internal/domain/inventory"
	"github.com/google/uuid"
)

// LotModel is the persistence model for a purchase lot.
type LotModel struct {
	TeamAggregateModel
	Reference  string    `gorm:"type:varchar(100)"`
	TotalCost  int64     `gorm:"not null"`
	AcquiredAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LotModel) TableName() string {
	return "purchase_lots"
}

// ToDomain converts the persistence model to a domain Lot.
func (m *LotModel) ToDomain() *inventory.Lot {
	return &inventory.Lot{
		TeamAggregateRoot: m.ToDomainTeamAggregateRoot(),
		Reference:         m.Reference,
		TotalCost:         m.TotalCost,
		AcquiredAt:        m.AcquiredAt.UTC(),
	}
}

// FromDomain populates the persistence model from a domain Lot.
func (m *LotModel) FromDomain(l *inventory.Lot) {
	m.FromDomainTeamAggregateRoot(l.TeamAggregateRoot)
	m.Reference = l.Reference
	m.TotalCost = l.TotalCost
	m.AcquiredAt = l.AcquiredAt
}

// LotModelFromDomain creates a new persistence model from a domain Lot.
func LotModelFromDomain(l *inventory.Lot) *LotModel {
	m := &LotModel{}
	m.FromDomain(l)
	return m
}

// StockBatchModel is the persistence model for a stock batch.
type StockBatchModel struct {
	TeamAggregateModel
	ProductID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	LotID             *uuid.UUID `gorm:"type:uuid;index"`
	AcquiredAt        time.Time  `gorm:"not null"`
	TotalCost         int64      `gorm:"not null"`
	QuantityReceived  int64      `gorm:"not null"`
	QuantityRemaining int64      `gorm:"not null"`
	PurchaseQuantity  int64      `gorm:"not null;default:0"`
	UnitsPerPack      int64      `gorm:"not null;default:0"`
	ExpiresAt         *time.Time
	Location          string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (StockBatchModel) TableName() string {
	return "stock_batches"
}

// ToDomain converts the persistence model to a domain StockBatch.
func (m *StockBatchModel) ToDomain() *inventory.StockBatch {
	b := &inventory.StockBatch{
		TeamAggregateRoot: m.ToDomainTeamAggregateRoot(),
		ProductID:         m.ProductID,
		LotID:             m.LotID,
		AcquiredAt:        m.AcquiredAt.UTC(),
		TotalCost:         m.TotalCost,
		QuantityReceived:  m.QuantityReceived,
		QuantityRemaining: m.QuantityRemaining,
		PurchaseQuantity:  m.PurchaseQuantity,
		UnitsPerPack:      m.UnitsPerPack,
		Location:          m.Location,
	}
	if m.ExpiresAt != nil {
		at := m.ExpiresAt.UTC()
		b.ExpiresAt = &at
	}
	return b
}

// FromDomain populates the persistence model from a domain StockBatch.
func (m *StockBatchModel) FromDomain(b *inventory.StockBatch) {
	m.FromDomainTeamAggregateRoot(b.TeamAggregateRoot)
	m.ProductID = b.ProductID
	m.LotID = b.LotID
	m.AcquiredAt = b.AcquiredAt
	m.TotalCost = b.TotalCost
	m.QuantityReceived = b.QuantityReceived
	m.QuantityRemaining = b.QuantityRemaining
	m.PurchaseQuantity = b.PurchaseQuantity
	m.UnitsPerPack = b.UnitsPerPack
	m.ExpiresAt = b.ExpiresAt
	m.Location = b.Location
}

// StockBatchModelFromDomain creates a new persistence model from a domain StockBatch.
func StockBatchModelFromDomain(b *inventory.StockBatch) *StockBatchModel {
	m := &StockBatchModel{}
	m.FromDomain(b)
	return m
}
