package report

import (
	"time"

	"github.com/erp/salesledger/internal/domain/shared/strategy"
	"github.com/erp/salesledger/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// WindowReport summarises revenue and cost of goods sold for a window
type WindowReport struct {
	PeriodStart      time.Time
	PeriodEnd        time.Time
	Method           strategy.CostMethod
	TransactionCount int
	LegacyCount      int
	Revenue          int64
	COGS             COGSResult
}

// NewWindowReport combines a read set with its aggregated cost
func NewWindowReport(rs *ReadSet, method strategy.CostMethod, cogs COGSResult) *WindowReport {
	return &WindowReport{
		PeriodStart:      rs.Window.Start,
		PeriodEnd:        rs.Window.End,
		Method:           method,
		TransactionCount: len(rs.Transactions),
		LegacyCount:      len(rs.LegacyRecords),
		Revenue:          rs.Revenue(),
		COGS:             cogs,
	}
}

// GrossProfit is revenue minus COGS. Skipped records count toward revenue only.
func (r *WindowReport) GrossProfit() decimal.Decimal {
	return valueobject.Amount(r.Revenue).Decimal().Sub(r.COGS.TotalCOGS)
}
