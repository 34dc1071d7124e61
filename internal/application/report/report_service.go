package report

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/salesledger/internal/domain/inventory"
	"github.com/erp/salesledger/internal/domain/report"
	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/erp/salesledger/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/erp/salesledger/internal/application/report"

// ReportService computes unit cost and windowed COGS reports
type ReportService struct {
	planner    *QueryPlanner
	batchRepo  inventory.StockBatchReader
	lotRepo    inventory.LotReader
	aggregator *report.COGSAggregator
	cost       strategy.CostBasisStrategy
	logger     *zap.Logger
	tracer     trace.Tracer
}

// NewReportService creates a new ReportService bound to one cost model
func NewReportService(
	planner *QueryPlanner,
	batchRepo inventory.StockBatchReader,
	lotRepo inventory.LotReader,
	cost strategy.CostBasisStrategy,
	logger *zap.Logger,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		planner:    planner,
		batchRepo:  batchRepo,
		lotRepo:    lotRepo,
		aggregator: report.NewCOGSAggregator(cost),
		cost:       cost,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
	}
}

// Method returns the configured cost model
func (s *ReportService) Method() strategy.CostMethod {
	return s.cost.Method()
}

// ComputeCOGSForWindow aggregates cost of goods sold and revenue for every
// sale of the team within [start, end].
func (s *ReportService) ComputeCOGSForWindow(
	ctx context.Context,
	caller shared.Caller,
	teamID uuid.UUID,
	start, end time.Time,
) (*report.WindowReport, error) {
	ctx, span := s.tracer.Start(ctx, "ReportService.ComputeCOGSForWindow",
		trace.WithAttributes(
			attribute.String("team_id", teamID.String()),
			attribute.String("cost_method", string(s.cost.Method())),
		))
	defer span.End()

	if err := caller.AuthorizeTeam(teamID); err != nil {
		return nil, err
	}
	filter, err := shared.NewWindowFilter(teamID, start, end)
	if err != nil {
		return nil, err
	}

	readSet, err := s.planner.SelectForWindow(ctx, filter)
	if err != nil {
		return nil, err
	}

	resolver, err := s.buildResolver(ctx, teamID, readSet.BatchIDs())
	if err != nil {
		return nil, err
	}

	cogs := s.aggregator.Aggregate(readSet.Records(), resolver)
	result := report.NewWindowReport(readSet, s.cost.Method(), cogs)

	span.SetAttributes(
		attribute.Int("transactions", result.TransactionCount),
		attribute.Int("legacy_records", result.LegacyCount),
		attribute.Int("skipped", cogs.SkippedCount()),
	)
	if cogs.SkippedCount() > 0 {
		s.logger.Warn("COGS report skipped records without a batch",
			zap.String("team_id", teamID.String()),
			zap.Int("skipped", cogs.SkippedCount()))
	}
	return result, nil
}

// ComputeUnitCost returns the per-unit cost of one batch
func (s *ReportService) ComputeUnitCost(ctx context.Context, caller shared.Caller, teamID, batchID uuid.UUID) (*UnitCostResult, error) {
	if err := caller.AuthorizeTeam(teamID); err != nil {
		return nil, err
	}
	batch, err := s.batchRepo.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if !batch.OwnedBy(teamID) {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Inventory batch belongs to another team")
	}

	resolver, err := s.buildResolver(ctx, teamID, []uuid.UUID{batch.ID}, *batch)
	if err != nil {
		return nil, err
	}
	input, ok := resolver.Resolve(batch.ID)
	if !ok {
		return nil, shared.NewDomainError(shared.CodeNotFound,
			fmt.Sprintf("Lot of inventory batch %s not found", batch.ID))
	}
	return &UnitCostResult{
		BatchID:  batch.ID,
		Method:   s.cost.Method(),
		UnitCost: s.cost.UnitCost(input),
	}, nil
}

// buildResolver loads the batches (unless already supplied) and, for the
// pooled model, their lots and every sibling batch of those lots.
// Batches of other teams are left out and so resolve as missing.
func (s *ReportService) buildResolver(ctx context.Context, teamID uuid.UUID, ids []uuid.UUID, known ...inventory.StockBatch) (*report.BatchIndex, error) {
	batches := known
	if len(batches) == 0 && len(ids) > 0 {
		found, err := s.batchRepo.FindByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load batches: %w", err)
		}
		batches = found
	}
	batches = ownedBatches(batches, teamID)

	if s.cost.Method() != strategy.CostMethodLotWeightedAverage {
		return report.NewBatchIndex(batches, nil, nil), nil
	}

	lotIDs := distinctLotIDs(batches)
	if len(lotIDs) == 0 {
		return report.NewBatchIndex(batches, nil, nil), nil
	}
	lots, err := s.lotRepo.FindByIDs(ctx, lotIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load lots: %w", err)
	}
	siblings, err := s.batchRepo.FindByLotIDs(ctx, lotIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load lot batches: %w", err)
	}
	return report.NewPooledBatchIndex(batches, lots, ownedBatches(siblings, teamID)), nil
}

func ownedBatches(batches []inventory.StockBatch, teamID uuid.UUID) []inventory.StockBatch {
	owned := make([]inventory.StockBatch, 0, len(batches))
	for i := range batches {
		if batches[i].OwnedBy(teamID) {
			owned = append(owned, batches[i])
		}
	}
	return owned
}

func distinctLotIDs(batches []inventory.StockBatch) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for i := range batches {
		lotID := batches[i].LotID
		if lotID == nil {
			continue
		}
		if _, ok := seen[*lotID]; ok {
			continue
		}
		seen[*lotID] = struct{}{}
		ids = append(ids, *lotID)
	}
	return ids
}
