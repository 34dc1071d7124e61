package telemetry

import (
	"context"

	appsales "github.com/erp/salesledger/internal/application/sales"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
)

// SaleMetrics records sale commit outcomes. It implements the sales
// service's CommitObserver.
type SaleMetrics struct {
	committed *Counter
	aborted   *Counter
	retries   *Counter
	revenue   *Counter
	attempts  *Histogram
}

// NewSaleMetrics creates the sale commit instruments on meter
func NewSaleMetrics(meter metric.Meter) (*SaleMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	committed, err := NewCounter(meter, "sales.committed", "Sales committed", "{sale}")
	if err != nil {
		return nil, err
	}
	aborted, err := NewCounter(meter, "sales.aborted", "Sales rejected or failed, by error code", "{sale}")
	if err != nil {
		return nil, err
	}
	retries, err := NewCounter(meter, "sales.commit.retries", "Commit attempts lost to a concurrent writer", "{retry}")
	if err != nil {
		return nil, err
	}
	revenue, err := NewCounter(meter, "sales.revenue", "Committed sale totals in minor units", "{minor_unit}")
	if err != nil {
		return nil, err
	}
	attempts, err := NewHistogram(meter, HistogramOpts{
		Name:        "sales.commit.attempts",
		Description: "Attempts needed per committed sale",
		Unit:        "{attempt}",
		Boundaries:  []float64{1, 2, 3, 4, 5, 8},
	})
	if err != nil {
		return nil, err
	}
	return &SaleMetrics{
		committed: committed,
		aborted:   aborted,
		retries:   retries,
		revenue:   revenue,
		attempts:  attempts,
	}, nil
}

// SaleCommitted implements CommitObserver
func (m *SaleMetrics) SaleCommitted(ctx context.Context, teamID uuid.UUID, _ int, total int64, attempts int) {
	team := AttrTeamID.String(teamID.String())
	m.committed.Inc(ctx, team)
	m.revenue.Add(ctx, total, team)
	m.attempts.Record(ctx, float64(attempts), team)
}

// SaleRetried implements CommitObserver
func (m *SaleMetrics) SaleRetried(ctx context.Context, teamID uuid.UUID, _ int) {
	m.retries.Inc(ctx, AttrTeamID.String(teamID.String()))
}

// SaleAborted implements CommitObserver
func (m *SaleMetrics) SaleAborted(ctx context.Context, teamID uuid.UUID, code string) {
	m.aborted.Inc(ctx, AttrTeamID.String(teamID.String()), AttrErrorCode.String(code))
}

var _ appsales.CommitObserver = (*SaleMetrics)(nil)
