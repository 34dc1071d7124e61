package models

import (
	"time"

	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel extends BaseModel with version for optimistic locking.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// TeamAggregateModel provides common persistence fields for team-scoped aggregate roots.
type TeamAggregateModel struct {
	AggregateModel
	TeamID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
}

// FromDomainTeamAggregateRoot populates TeamAggregateModel from domain TeamAggregateRoot
func (m *TeamAggregateModel) FromDomainTeamAggregateRoot(t shared.TeamAggregateRoot) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.TeamID = t.TeamID
	m.CreatedBy = t.CreatedBy
}

// ToDomainTeamAggregateRoot builds a domain TeamAggregateRoot from the persisted fields
func (m *TeamAggregateModel) ToDomainTeamAggregateRoot() shared.TeamAggregateRoot {
	return shared.TeamAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: m.BaseModel.ToDomain(),
			Version:    m.Version,
		},
		TeamID:    m.TeamID,
		CreatedBy: m.CreatedBy,
	}
}
