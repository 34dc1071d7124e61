package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/salesledger/internal/domain/inventory"
	"github.com/erp/salesledger/internal/domain/sales"
	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/erp/salesledger/internal/application/sales"

// SaleService commits sales against the inventory ledger
type SaleService struct {
	scope    TransactionScope
	saleRepo sales.SaleTransactionReader
	policy   RetryPolicy
	logger   *zap.Logger
	observer CommitObserver
	tracer   trace.Tracer
	sleep    Sleeper
	now      func() time.Time
}

// SaleServiceOption configures a SaleService
type SaleServiceOption func(*SaleService)

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) SaleServiceOption {
	return func(s *SaleService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver sets the commit observer
func WithObserver(observer CommitObserver) SaleServiceOption {
	return func(s *SaleService) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) SaleServiceOption {
	return func(s *SaleService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSleeper overrides how the service waits between attempts
func WithSleeper(sleep Sleeper) SaleServiceOption {
	return func(s *SaleService) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// NewSaleService creates a new SaleService
func NewSaleService(
	scope TransactionScope,
	saleRepo sales.SaleTransactionReader,
	policy RetryPolicy,
	opts ...SaleServiceOption,
) *SaleService {
	s := &SaleService{
		scope:    scope,
		saleRepo: saleRepo,
		policy:   policy.Normalize(),
		logger:   zap.NewNop(),
		observer: noopObserver{},
		tracer:   otel.Tracer(tracerName),
		sleep:    sleepContext,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordSale validates and commits a sale. Stock debits and the transaction
// record are written atomically: either all of them persist or none do.
//
// When a concurrent writer changes a touched batch the whole sale is
// re-read and re-validated, up to the configured number of attempts.
func (s *SaleService) RecordSale(ctx context.Context, caller shared.Caller, req RecordSaleRequest) (*SaleTransactionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "SaleService.RecordSale",
		trace.WithAttributes(
			attribute.String("team_id", req.TeamID.String()),
			attribute.Int("line_count", len(req.Lines)),
		))
	defer span.End()

	log := s.logger.With(
		zap.String("team_id", req.TeamID.String()),
		zap.String("user_id", caller.UserID.String()),
	)

	if err := caller.AuthorizeTeam(req.TeamID); err != nil {
		s.abort(ctx, span, req.TeamID, err)
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		txn, err := s.commitOnce(ctx, caller, req)
		if err == nil {
			span.SetAttributes(attribute.Int("attempts", attempt))
			s.observer.SaleCommitted(ctx, req.TeamID, len(txn.Lines), txn.Total, attempt)
			log.Info("Sale committed",
				zap.String("transaction_id", txn.ID.String()),
				zap.Int("lines", len(txn.Lines)),
				zap.Int64("total", txn.Total),
				zap.Int("attempts", attempt))
			resp := ToSaleTransactionResponse(txn)
			return &resp, nil
		}

		if !errors.Is(err, shared.ErrOptimisticLockFailed) {
			s.logAbort(log, err)
			s.abort(ctx, span, req.TeamID, err)
			return nil, err
		}

		if attempt >= s.policy.MaxAttempts {
			conflict := shared.NewDomainError(shared.CodeConcurrencyConflict,
				fmt.Sprintf("Sale could not be committed after %d attempts due to concurrent updates", attempt))
			log.Warn("Sale commit retries exhausted", zap.Int("attempts", attempt))
			s.abort(ctx, span, req.TeamID, conflict)
			return nil, conflict
		}

		delay := s.policy.Backoff(attempt)
		s.observer.SaleRetried(ctx, req.TeamID, attempt)
		span.AddEvent("retry", trace.WithAttributes(
			attribute.Int("attempt", attempt),
			attribute.Int64("backoff_ms", delay.Milliseconds()),
		))
		log.Warn("Sale commit conflicted, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay))

		if err := s.sleep(ctx, delay); err != nil {
			s.abort(ctx, span, req.TeamID, err)
			return nil, err
		}
	}
}

// commitOnce runs one read-validate-write cycle inside a transaction scope
func (s *SaleService) commitOnce(ctx context.Context, caller shared.Caller, req RecordSaleRequest) (*sales.SaleTransaction, error) {
	var staged *StagedSale
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		found, err := repos.Batches().FindByIDs(ctx, req.BatchIDs())
		if err != nil {
			return err
		}
		batches := make(map[uuid.UUID]*inventory.StockBatch, len(found))
		for i := range found {
			batches[found[i].ID] = &found[i]
		}

		staged, err = StageSale(caller, req, batches, s.now())
		if err != nil {
			return err
		}

		for _, batch := range staged.Batches {
			if err := repos.Batches().SaveWithLock(ctx, batch); err != nil {
				return err
			}
		}
		return repos.Sales().Create(ctx, staged.Transaction)
	})
	if err != nil {
		return nil, err
	}
	return staged.Transaction, nil
}

// GetSale returns a committed sale with its lines
func (s *SaleService) GetSale(ctx context.Context, caller shared.Caller, teamID, id uuid.UUID) (*SaleTransactionResponse, error) {
	if err := caller.AuthorizeTeam(teamID); err != nil {
		return nil, err
	}
	txn, err := s.saleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !txn.OwnedBy(teamID) {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Sale belongs to another team")
	}
	resp := ToSaleTransactionResponse(txn)
	return &resp, nil
}

// DeleteSale removes a sale and its lines. Stock debited by the sale is
// not returned to the batches.
func (s *SaleService) DeleteSale(ctx context.Context, caller shared.Caller, teamID, id uuid.UUID) error {
	if err := caller.AuthorizeTeam(teamID); err != nil {
		return err
	}
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		txn, err := repos.Sales().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !txn.OwnedBy(teamID) {
			return shared.NewDomainError(shared.CodeForbidden, "Sale belongs to another team")
		}
		return repos.Sales().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("Sale deleted, stock not restored",
		zap.String("team_id", teamID.String()),
		zap.String("transaction_id", id.String()),
		zap.String("user_id", caller.UserID.String()))
	return nil
}

func (s *SaleService) abort(ctx context.Context, span trace.Span, teamID uuid.UUID, err error) {
	code := ErrorCode(err)
	span.SetStatus(codes.Error, code)
	span.SetAttributes(attribute.String("error.code", code))
	s.observer.SaleAborted(ctx, teamID, code)
}

func (s *SaleService) logAbort(log *zap.Logger, err error) {
	fields := []zap.Field{zap.String("code", ErrorCode(err)), zap.Error(err)}
	var lineErr *LineError
	if errors.As(err, &lineErr) {
		fields = append(fields,
			zap.Int("line_index", lineErr.Index),
			zap.String("batch_id", lineErr.BatchID.String()))
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		log.Debug("Sale rejected", fields...)
		return
	}
	log.Error("Sale commit failed", fields...)
}

// ErrorCode returns the domain error code carried by err, or INTERNAL_ERROR
func ErrorCode(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "CANCELED"
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return "INTERNAL_ERROR"
}
