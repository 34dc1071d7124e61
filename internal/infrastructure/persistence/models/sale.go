package models

import (
	"time"

	"github.com/erp/salesledger/internal/domain/sales"
	"github.com/google/uuid"
)

// SaleTransactionModel is the persistence model for a committed sale.
type SaleTransactionModel struct {
	TeamAggregateModel
	SoldAt       time.Time       `gorm:"not null;index"`
	CustomerName string          `gorm:"type:varchar(200)"`
	Subtotal     int64           `gorm:"not null"`
	Tax          int64           `gorm:"not null;default:0"`
	Discount     int64           `gorm:"not null;default:0"`
	Total        int64           `gorm:"not null"`
	Lines        []SaleLineModel `gorm:"foreignKey:TransactionID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleTransactionModel) TableName() string {
	return "sale_transactions"
}

// ToDomain converts the persistence model to a domain SaleTransaction.
func (m *SaleTransactionModel) ToDomain() *sales.SaleTransaction {
	txn := &sales.SaleTransaction{
		TeamAggregateRoot: m.ToDomainTeamAggregateRoot(),
		SoldAt:            m.SoldAt.UTC(),
		CustomerName:      m.CustomerName,
		Subtotal:          m.Subtotal,
		Tax:               m.Tax,
		Discount:          m.Discount,
		Total:             m.Total,
		Lines:             make([]sales.SaleLine, len(m.Lines)),
	}
	for i := range m.Lines {
		txn.Lines[i] = m.Lines[i].ToDomain()
	}
	return txn
}

// FromDomain populates the persistence model from a domain SaleTransaction.
func (m *SaleTransactionModel) FromDomain(t *sales.SaleTransaction) {
	m.FromDomainTeamAggregateRoot(t.TeamAggregateRoot)
	m.SoldAt = t.SoldAt
	m.CustomerName = t.CustomerName
	m.Subtotal = t.Subtotal
	m.Tax = t.Tax
	m.Discount = t.Discount
	m.Total = t.Total
	m.Lines = make([]SaleLineModel, len(t.Lines))
	for i := range t.Lines {
		m.Lines[i].FromDomain(&t.Lines[i])
	}
}

// SaleTransactionModelFromDomain creates a new persistence model from a domain SaleTransaction.
func SaleTransactionModelFromDomain(t *sales.SaleTransaction) *SaleTransactionModel {
	m := &SaleTransactionModel{}
	m.FromDomain(t)
	return m
}

// SaleLineModel is the persistence model for one line of a sale.
type SaleLineModel struct {
	BaseModel
	TransactionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sale_line_position"`
	LineIndex     int       `gorm:"not null;uniqueIndex:idx_sale_line_position"`
	BatchID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity      int64     `gorm:"not null"`
	UnitPrice     int64     `gorm:"not null"`
	LineTotal     int64     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SaleLineModel) TableName() string {
	return "sale_lines"
}

// ToDomain converts the persistence model to a domain SaleLine.
func (m *SaleLineModel) ToDomain() sales.SaleLine {
	return sales.SaleLine{
		BaseEntity:    m.BaseModel.ToDomain(),
		TransactionID: m.TransactionID,
		LineIndex:     m.LineIndex,
		BatchID:       m.BatchID,
		Quantity:      m.Quantity,
		UnitPrice:     m.UnitPrice,
		LineTotal:     m.LineTotal,
	}
}

// FromDomain populates the persistence model from a domain SaleLine.
func (m *SaleLineModel) FromDomain(l *sales.SaleLine) {
	m.FromDomainBaseEntity(l.BaseEntity)
	m.TransactionID = l.TransactionID
	m.LineIndex = l.LineIndex
	m.BatchID = l.BatchID
	m.Quantity = l.Quantity
	m.UnitPrice = l.UnitPrice
	m.LineTotal = l.LineTotal
}

// LegacySaleModel is the persistence model for a pre-transaction single-line sale.
type LegacySaleModel struct {
	BaseModel
	TeamID    uuid.UUID `gorm:"type:uuid;not null;index"`
	BatchID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity  int64     `gorm:"not null"`
	UnitPrice int64     `gorm:"not null"`
	SoldAt    time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (LegacySaleModel) TableName() string {
	return "legacy_sales"
}

// ToDomain converts the persistence model to a domain LegacySaleRecord.
func (m *LegacySaleModel) ToDomain() *sales.LegacySaleRecord {
	return &sales.LegacySaleRecord{
		BaseEntity: m.BaseModel.ToDomain(),
		TeamID:     m.TeamID,
		BatchID:    m.BatchID,
		Quantity:   m.Quantity,
		UnitPrice:  m.UnitPrice,
		SoldAt:     m.SoldAt.UTC(),
	}
}

// FromDomain populates the persistence model from a domain LegacySaleRecord.
func (m *LegacySaleModel) FromDomain(r *sales.LegacySaleRecord) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.TeamID = r.TeamID
	m.BatchID = r.BatchID
	m.Quantity = r.Quantity
	m.UnitPrice = r.UnitPrice
	m.SoldAt = r.SoldAt
}

// LegacySaleModelFromDomain creates a new persistence model from a domain LegacySaleRecord.
func LegacySaleModelFromDomain(r *sales.LegacySaleRecord) *LegacySaleModel {
	m := &LegacySaleModel{}
	m.FromDomain(r)
	return m
}
