package shared

import (
	"github.com/google/uuid"
)

// Caller is the authenticated identity on whose behalf an operation runs.
// It is supplied by the auth collaborator and threaded explicitly into every
// core operation.
type Caller struct {
	UserID  uuid.UUID
	TeamIDs []uuid.UUID
}

// NewCaller creates a caller that belongs to the given teams
func NewCaller(userID uuid.UUID, teamIDs ...uuid.UUID) Caller {
	return Caller{UserID: userID, TeamIDs: teamIDs}
}

// IsAuthenticated reports whether the caller carries an identity
func (c Caller) IsAuthenticated() bool {
	return c.UserID != uuid.Nil
}

// MemberOf reports whether the caller belongs to the team
func (c Caller) MemberOf(teamID uuid.UUID) bool {
	for _, id := range c.TeamIDs {
		if id == teamID {
			return true
		}
	}
	return false
}

// AuthorizeTeam checks that the caller is authenticated and acts for teamID.
func (c Caller) AuthorizeTeam(teamID uuid.UUID) error {
	if !c.IsAuthenticated() {
		return ErrUnauthorized
	}
	if teamID == uuid.Nil || !c.MemberOf(teamID) {
		return NewDomainError(CodeForbidden, "Caller is not a member of the requested team")
	}
	return nil
}
