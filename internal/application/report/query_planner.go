package report

import (
	"context"
	"fmt"

	"github.com/erp/salesledger/internal/domain/report"
	"github.com/erp/salesledger/internal/domain/sales"
	"github.com/erp/salesledger/internal/domain/shared"
)

// QueryPlanner selects the sold records of one reporting window
type QueryPlanner struct {
	saleRepo   sales.SaleTransactionReader
	legacyRepo sales.LegacySaleReader
}

// NewQueryPlanner creates a new QueryPlanner
func NewQueryPlanner(saleRepo sales.SaleTransactionReader, legacyRepo sales.LegacySaleReader) *QueryPlanner {
	return &QueryPlanner{saleRepo: saleRepo, legacyRepo: legacyRepo}
}

// SelectForWindow returns every transaction (with lines) and every legacy
// record of the team sold inside the window, bounds included.
func (p *QueryPlanner) SelectForWindow(ctx context.Context, filter shared.WindowFilter) (*report.ReadSet, error) {
	txns, err := p.saleRepo.FindInWindow(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load sale transactions: %w", err)
	}
	legacy, err := p.legacyRepo.FindInWindow(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load legacy sales: %w", err)
	}
	return &report.ReadSet{
		Window:        filter,
		Transactions:  txns,
		LegacyRecords: legacy,
	}, nil
}
