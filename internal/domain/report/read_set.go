package report

import (
	"time"

	"github.com/erp/salesledger/internal/domain/sales"
	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/google/uuid"
)

// RecordKind distinguishes sold records by their origin
type RecordKind string

const (
	RecordKindSaleLine RecordKind = "sale_line"
	RecordKindLegacy   RecordKind = "legacy"
)

// SoldRecord is the common view of a sale line or a legacy sale that cost
// aggregation works on.
type SoldRecord struct {
	RecordID  uuid.UUID
	Kind      RecordKind
	BatchID   uuid.UUID
	Quantity  int64
	UnitPrice int64
	SoldAt    time.Time
}

// ReadSet is the data selected for one reporting window
type ReadSet struct {
	Window        shared.WindowFilter
	Transactions  []sales.SaleTransaction
	LegacyRecords []sales.LegacySaleRecord
}

// Records flattens transaction lines (transaction order, then line index)
// followed by legacy records. Each source record appears exactly once.
func (rs *ReadSet) Records() []SoldRecord {
	records := make([]SoldRecord, 0, rs.lineCount()+len(rs.LegacyRecords))
	for _, txn := range rs.Transactions {
		for _, line := range txn.Lines {
			records = append(records, SoldRecord{
				RecordID:  line.ID,
				Kind:      RecordKindSaleLine,
				BatchID:   line.BatchID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
				SoldAt:    txn.SoldAt,
			})
		}
	}
	for _, rec := range rs.LegacyRecords {
		records = append(records, SoldRecord{
			RecordID:  rec.ID,
			Kind:      RecordKindLegacy,
			BatchID:   rec.BatchID,
			Quantity:  rec.Quantity,
			UnitPrice: rec.UnitPrice,
			SoldAt:    rec.SoldAt,
		})
	}
	return records
}

// Revenue is Σ transaction.Total plus Σ legacy unitPrice × quantity.
// Transaction totals already include tax and discount, so lines are not re-summed.
func (rs *ReadSet) Revenue() int64 {
	var revenue int64
	for _, txn := range rs.Transactions {
		revenue += txn.Total
	}
	for i := range rs.LegacyRecords {
		revenue += rs.LegacyRecords[i].Revenue()
	}
	return revenue
}

// BatchIDs returns the distinct batches referenced by the read set
func (rs *ReadSet) BatchIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	add := func(id uuid.UUID) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, txn := range rs.Transactions {
		for _, line := range txn.Lines {
			add(line.BatchID)
		}
	}
	for _, rec := range rs.LegacyRecords {
		add(rec.BatchID)
	}
	return ids
}

func (rs *ReadSet) lineCount() int {
	n := 0
	for _, txn := range rs.Transactions {
		n += len(txn.Lines)
	}
	return n
}
