package shared

import (
	"github.com/google/uuid"
)

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
}

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	Version int
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

// TeamAggregateRoot extends BaseAggregateRoot with team ownership
type TeamAggregateRoot struct {
	BaseAggregateRoot
	TeamID    uuid.UUID
	CreatedBy *uuid.UUID
}

// OwnedBy reports whether the aggregate belongs to the given team
func (a *TeamAggregateRoot) OwnedBy(teamID uuid.UUID) bool {
	return a.TeamID == teamID
}

// NewTeamAggregateRoot creates a new team-scoped aggregate root
func NewTeamAggregateRoot(teamID uuid.UUID) TeamAggregateRoot {
	return TeamAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		TeamID:            teamID,
	}
}

// NewTeamAggregateRootWithCreator creates a new team-scoped aggregate root with creator info
func NewTeamAggregateRootWithCreator(teamID, createdBy uuid.UUID) TeamAggregateRoot {
	root := NewTeamAggregateRoot(teamID)
	root.CreatedBy = &createdBy
	return root
}
