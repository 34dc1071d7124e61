package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/salesledger/internal/domain/inventory"
	"github.com/erp/salesledger/internal/domain/sales"
	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/erp/salesledger/internal/domain/shared/strategy"
	"github.com/erp/salesledger/internal/infrastructure/persistence/memory"
	"github.com/erp/salesledger/internal/infrastructure/strategy/cost"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	windowStart = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2024, 5, 31, 23, 59, 59, 0, time.UTC)
)

// MockLotReader is a mock implementation of inventory.LotReader
type MockLotReader struct {
	mock.Mock
}

func (m *MockLotReader) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Lot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Lot), args.Error(1)
}

func (m *MockLotReader) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]inventory.Lot, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]inventory.Lot), args.Error(1)
}

// MockSaleReader is a mock implementation of sales.SaleTransactionReader
type MockSaleReader struct {
	mock.Mock
}

func (m *MockSaleReader) FindByID(ctx context.Context, id uuid.UUID) (*sales.SaleTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.SaleTransaction), args.Error(1)
}

func (m *MockSaleReader) FindInWindow(ctx context.Context, filter shared.WindowFilter) ([]sales.SaleTransaction, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]sales.SaleTransaction), args.Error(1)
}

type fixture struct {
	store  *memory.Store
	teamID uuid.UUID
	caller shared.Caller
}

func newFixture() *fixture {
	teamID := uuid.New()
	return &fixture{
		store:  memory.NewStore(),
		teamID: teamID,
		caller: shared.NewCaller(uuid.New(), teamID),
	}
}

func (f *fixture) service(s strategy.CostBasisStrategy) *ReportService {
	planner := NewQueryPlanner(memory.NewSaleTransactionRepository(f.store), memory.NewLegacySaleRepository(f.store))
	return NewReportService(planner, memory.NewStockBatchRepository(f.store), memory.NewLotRepository(f.store), s, nil)
}

func (f *fixture) batch(t *testing.T, totalCost, received int64, opts ...inventory.BatchOption) *inventory.StockBatch {
	t.Helper()
	b, err := inventory.NewStockBatch(f.teamID, uuid.New(), windowStart.Add(-24*time.Hour), totalCost, received, opts...)
	require.NoError(t, err)
	f.store.PutBatch(b)
	return b
}

func (f *fixture) lot(t *testing.T, totalCost int64) *inventory.Lot {
	t.Helper()
	l, err := inventory.NewLot(f.teamID, "LOT-1", totalCost, windowStart.Add(-48*time.Hour))
	require.NoError(t, err)
	f.store.PutLot(l)
	return l
}

func (f *fixture) sale(t *testing.T, soldAt time.Time, lines ...sales.SaleLine) *sales.SaleTransaction {
	t.Helper()
	txn, err := sales.NewSaleTransaction(f.teamID, f.caller.UserID, soldAt, "", lines, 0, 0)
	require.NoError(t, err)
	require.NoError(t, memory.NewSaleTransactionRepository(f.store).Create(context.Background(), txn))
	return txn
}

func (f *fixture) legacy(soldAt time.Time, batchID uuid.UUID, qty, price int64) *sales.LegacySaleRecord {
	rec := &sales.LegacySaleRecord{
		BaseEntity: shared.NewBaseEntity(),
		TeamID:     f.teamID,
		BatchID:    batchID,
		Quantity:   qty,
		UnitPrice:  price,
		SoldAt:     soldAt,
	}
	f.store.PutLegacySale(rec)
	return rec
}

func line(t *testing.T, index int, batchID uuid.UUID, qty, price int64) sales.SaleLine {
	t.Helper()
	l, err := sales.NewSaleLine(index, batchID, qty, price)
	require.NoError(t, err)
	return l
}

func TestReportService_DirectBatchUnitCostAndCOGS(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	batch := f.batch(t, 2400, 24, inventory.WithPackaging(1, 24))
	f.sale(t, windowStart.Add(time.Hour), line(t, 0, batch.ID, 3, 150))
	svc := f.service(cost.NewDirectBatchStrategy())

	unit, err := svc.ComputeUnitCost(ctx, f.caller, f.teamID, batch.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(unit.UnitCost), "got %s", unit.UnitCost)
	assert.Equal(t, strategy.CostMethodDirectBatch, unit.Method)

	rep, err := svc.ComputeCOGSForWindow(ctx, f.caller, f.teamID, windowStart, windowEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(450), rep.Revenue)
	assert.True(t, decimal.NewFromInt(300).Equal(rep.COGS.TotalCOGS), "got %s", rep.COGS.TotalCOGS)
	assert.True(t, decimal.NewFromInt(150).Equal(rep.GrossProfit()))
}

func TestReportService_PooledLotCOGS(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	lot := f.lot(t, 100000)
	first := f.batch(t, 0, 50, inventory.WithLot(lot.ID))
	f.batch(t, 0, 50, inventory.WithLot(lot.ID))
	f.sale(t, windowStart.Add(time.Hour), line(t, 0, first.ID, 10, 1500))
	svc := f.service(cost.NewLotWeightedAverageStrategy())

	unit, err := svc.ComputeUnitCost(ctx, f.caller, f.teamID, first.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1000).Equal(unit.UnitCost), "got %s", unit.UnitCost)

	rep, err := svc.ComputeCOGSForWindow(ctx, f.caller, f.teamID, windowStart, windowEnd)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10000).Equal(rep.COGS.TotalCOGS), "got %s", rep.COGS.TotalCOGS)
	require.Len(t, rep.COGS.Itemized, 1)
	assert.Equal(t, int64(10), rep.COGS.Itemized[0].QuantitySold)
}

func TestReportService_PooledSkipsBatchWhoseLotIsMissing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	lot := f.lot(t, 100000)
	priced := f.batch(t, 0, 50, inventory.WithLot(lot.ID))
	orphanLot := uuid.New()
	orphan := f.batch(t, 500, 50, inventory.WithLot(orphanLot))
	f.batch(t, 500, 50, inventory.WithLot(orphanLot))
	f.sale(t, windowStart.Add(time.Hour),
		line(t, 0, priced.ID, 10, 1500),
		line(t, 1, orphan.ID, 10, 20),
	)
	svc := f.service(cost.NewLotWeightedAverageStrategy())

	rep, err := svc.ComputeCOGSForWindow(ctx, f.caller, f.teamID, windowStart, windowEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(15000+200), rep.Revenue)
	assert.True(t, decimal.NewFromInt(20000).Equal(rep.COGS.TotalCOGS), "got %s", rep.COGS.TotalCOGS)
	require.Equal(t, 1, rep.COGS.SkippedCount())
	assert.Equal(t, orphan.ID, rep.COGS.Skipped[0].BatchID)

	_, err = svc.ComputeUnitCost(ctx, f.caller, f.teamID, orphan.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotFound), "got %v", err)
}

func TestReportService_WindowExcludesOutsideRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	batch := f.batch(t, 2400, 24, inventory.WithPackaging(1, 24))

	inStart := f.sale(t, windowStart, line(t, 0, batch.ID, 1, 200))
	f.sale(t, windowStart.Add(-time.Second), line(t, 0, batch.ID, 5, 200))
	f.sale(t, windowEnd.Add(time.Second), line(t, 0, batch.ID, 7, 200))
	onEnd := f.legacy(windowEnd, batch.ID, 2, 300)
	f.legacy(windowEnd.Add(time.Minute), batch.ID, 9, 300)

	rep, err := f.service(cost.NewDirectBatchStrategy()).ComputeCOGSForWindow(ctx, f.caller, f.teamID, windowStart, windowEnd)
	require.NoError(t, err)

	assert.Equal(t, 1, rep.TransactionCount)
	assert.Equal(t, 1, rep.LegacyCount)
	assert.Equal(t, int64(200+600), rep.Revenue)
	assert.True(t, decimal.NewFromInt(300).Equal(rep.COGS.TotalCOGS), "got %s", rep.COGS.TotalCOGS)
	require.Len(t, rep.COGS.Itemized, 2)
	assert.Equal(t, inStart.Lines[0].ID, rep.COGS.Itemized[0].RecordID)
	assert.Equal(t, onEnd.ID, rep.COGS.Itemized[1].RecordID)
}

func TestReportService_SkipsMissingAndForeignBatches(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	batch := f.batch(t, 2400, 24, inventory.WithPackaging(1, 24))

	foreign, err := inventory.NewStockBatch(uuid.New(), uuid.New(), windowStart, 999, 1)
	require.NoError(t, err)
	f.store.PutBatch(foreign)

	f.sale(t, windowStart.Add(time.Hour),
		line(t, 0, batch.ID, 1, 150),
		line(t, 1, uuid.New(), 2, 150),
	)
	f.legacy(windowStart.Add(2*time.Hour), foreign.ID, 1, 500)

	rep, err := f.service(cost.NewDirectBatchStrategy()).ComputeCOGSForWindow(ctx, f.caller, f.teamID, windowStart, windowEnd)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.COGS.SkippedCount())
	assert.Equal(t, int64(450+500), rep.Revenue)
	assert.True(t, decimal.NewFromInt(100).Equal(rep.COGS.TotalCOGS))
}

func TestReportService_Authorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	batch := f.batch(t, 2400, 24)
	svc := f.service(cost.NewDirectBatchStrategy())
	outsider := shared.NewCaller(uuid.New(), uuid.New())

	_, err := svc.ComputeCOGSForWindow(ctx, outsider, f.teamID, windowStart, windowEnd)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.ComputeUnitCost(ctx, outsider, f.teamID, batch.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.ComputeCOGSForWindow(ctx, shared.Caller{}, f.teamID, windowStart, windowEnd)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	otherTeam := uuid.New()
	member := shared.NewCaller(uuid.New(), f.teamID, otherTeam)
	_, err = svc.ComputeUnitCost(ctx, member, otherTeam, batch.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestReportService_InvalidWindow(t *testing.T) {
	f := newFixture()
	_, err := f.service(cost.NewDirectBatchStrategy()).ComputeCOGSForWindow(context.Background(), f.caller, f.teamID, windowEnd, windowStart)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestReportService_UnknownBatch(t *testing.T) {
	f := newFixture()
	_, err := f.service(cost.NewDirectBatchStrategy()).ComputeUnitCost(context.Background(), f.caller, f.teamID, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestReportService_DirectMethodDoesNotLoadLots(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	lotID := uuid.New()
	batch := f.batch(t, 2400, 24, inventory.WithLot(lotID), inventory.WithPackaging(1, 24))
	f.sale(t, windowStart.Add(time.Hour), line(t, 0, batch.ID, 2, 150))

	lots := new(MockLotReader)
	planner := NewQueryPlanner(memory.NewSaleTransactionRepository(f.store), memory.NewLegacySaleRepository(f.store))
	svc := NewReportService(planner, memory.NewStockBatchRepository(f.store), lots, cost.NewDirectBatchStrategy(), nil)

	rep, err := svc.ComputeCOGSForWindow(ctx, f.caller, f.teamID, windowStart, windowEnd)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(200).Equal(rep.COGS.TotalCOGS))
	lots.AssertNotCalled(t, "FindByIDs", mock.Anything, mock.Anything)
}

func TestQueryPlanner_PropagatesReadErrors(t *testing.T) {
	ctx := context.Background()
	teamID := uuid.New()
	filter, err := shared.NewWindowFilter(teamID, windowStart, windowEnd)
	require.NoError(t, err)

	saleRepo := new(MockSaleReader)
	boom := errors.New("connection reset")
	saleRepo.On("FindInWindow", mock.Anything, filter).Return([]sales.SaleTransaction(nil), boom)

	planner := NewQueryPlanner(saleRepo, memory.NewLegacySaleRepository(memory.NewStore()))
	_, err = planner.SelectForWindow(ctx, filter)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to load sale transactions")
	saleRepo.AssertExpectations(t)
}
