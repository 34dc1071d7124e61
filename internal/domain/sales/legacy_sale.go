package sales

import (
	"time"

	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/google/uuid"
)

// LegacySaleRecord is a single-line sale recorded before multi-line
// transactions existed. It is reported alongside SaleTransaction lines.
type LegacySaleRecord struct {
	shared.BaseEntity
	TeamID    uuid.UUID
	BatchID   uuid.UUID
	Quantity  int64
	UnitPrice int64
	SoldAt    time.Time
}

// Revenue returns unitPrice × quantity in minor units
func (r *LegacySaleRecord) Revenue() int64 {
	return r.UnitPrice * r.Quantity
}
