package sales

import (
	"context"

	"github.com/google/uuid"
)

// CommitObserver receives the outcome of every sale commit.
// Implementations must be safe for concurrent use.
type CommitObserver interface {
	SaleCommitted(ctx context.Context, teamID uuid.UUID, lineCount int, total int64, attempts int)
	SaleRetried(ctx context.Context, teamID uuid.UUID, attempt int)
	SaleAborted(ctx context.Context, teamID uuid.UUID, code string)
}

type noopObserver struct{}

func (noopObserver) SaleCommitted(context.Context, uuid.UUID, int, int64, int) {}
func (noopObserver) SaleRetried(context.Context, uuid.UUID, int)               {}
func (noopObserver) SaleAborted(context.Context, uuid.UUID, string)            {}
