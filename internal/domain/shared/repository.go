package shared

import (
	"time"

	"github.com/google/uuid"
)

// WindowFilter selects team records whose timestamp falls in [Start, End].
// Both bounds are inclusive.
type WindowFilter struct {
	TeamID uuid.UUID
	Start  time.Time
	End    time.Time
}

// NewWindowFilter normalises both bounds to UTC and rejects inverted windows
func NewWindowFilter(teamID uuid.UUID, start, end time.Time) (WindowFilter, error) {
	if start.IsZero() || end.IsZero() {
		return WindowFilter{}, NewDomainError(CodeInvalidInput, "Report window requires both start and end")
	}
	start, end = start.UTC(), end.UTC()
	if start.After(end) {
		return WindowFilter{}, NewDomainError(CodeInvalidInput, "Report window start must not be after end")
	}
	return WindowFilter{TeamID: teamID, Start: start, End: end}, nil
}

// Contains reports whether t lies inside the window, bounds included
func (w WindowFilter) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}
