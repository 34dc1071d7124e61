package middleware

import (
	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TeamHeader selects which of the caller's teams a request acts for
const TeamHeader = "X-Team-ID"

// ResolveTeamID returns the team named by the X-Team-ID header, or the
// caller's home team when the header is absent. Membership is not checked
// here; the application services authorize the caller against the team.
func ResolveTeamID(c *gin.Context) (uuid.UUID, error) {
	caller, ok := GetCaller(c)
	if !ok || !caller.IsAuthenticated() {
		return uuid.Nil, shared.ErrUnauthorized
	}
	if raw := c.GetHeader(TeamHeader); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, shared.NewDomainError(shared.CodeInvalidInput, "X-Team-ID must be a UUID")
		}
		return id, nil
	}
	if len(caller.TeamIDs) == 0 {
		return uuid.Nil, shared.ErrForbidden
	}
	return caller.TeamIDs[0], nil
}
