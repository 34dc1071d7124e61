package inventory

import (
	"time"

	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/erp/salesledger/internal/domain/shared/strategy"
	"github.com/google/uuid"
)

// Lot is a purchase lot (shipment) whose total cost is pooled across every
// batch that references it under the lot-weighted-average cost model.
type Lot struct {
	shared.TeamAggregateRoot
	Reference  string
	TotalCost  int64
	AcquiredAt time.Time
}

// NewLot creates a purchase lot
func NewLot(teamID uuid.UUID, reference string, totalCost int64, acquiredAt time.Time) (*Lot, error) {
	if teamID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Team ID cannot be empty")
	}
	if totalCost < 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Lot total cost cannot be negative")
	}
	return &Lot{
		TeamAggregateRoot: shared.NewTeamAggregateRoot(teamID),
		Reference:         reference,
		TotalCost:         totalCost,
		AcquiredAt:        acquiredAt.UTC(),
	}, nil
}

// CostBasis projects the lot onto the fields cost strategies read
func (l *Lot) CostBasis() *strategy.CostLot {
	return &strategy.CostLot{LotID: l.ID, TotalCost: l.TotalCost}
}
