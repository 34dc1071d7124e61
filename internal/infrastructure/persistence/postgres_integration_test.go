//go:build integration

package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	appsales "github.com/erp/salesledger/internal/application/sales"
	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/erp/salesledger/internal/infrastructure/migration"
	"github.com/erp/salesledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupPostgresDB starts a disposable Postgres, applies the embedded
// migrations and returns a GORM handle.
func setupPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("sales_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(10)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.NewEmbedded(sqlDB, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, m.Up())

	return db
}

func TestPostgres_ConcurrentSalesForLastUnits(t *testing.T) {
	db := setupPostgresDB(t)
	ctx := context.Background()
	teamID := uuid.New()
	caller := shared.NewCaller(uuid.New(), teamID)

	batch := seedBatch(t, db, teamID, 200, 2)
	svc := appsales.NewSaleService(
		NewGormTransactionScope(db),
		NewGormSaleTransactionRepository(db),
		appsales.RetryPolicy{MaxAttempts: 5, BaseDelay: 5 * time.Millisecond, MaxDelay: 50 * time.Millisecond},
	)
	req := appsales.RecordSaleRequest{
		TeamID: teamID,
		Lines:  []appsales.SaleLineRequest{{BatchID: batch.ID, Quantity: 2, UnitPrice: 300}},
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	start := make(chan struct{})
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.RecordSale(ctx, caller, req)
		}(i)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t,
			errors.Is(err, shared.ErrInsufficientStock) || errors.Is(err, shared.ErrConcurrencyConflict),
			"unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	stored, err := NewGormStockBatchRepository(db).FindByID(ctx, batch.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.QuantityRemaining)
	assert.Equal(t, int64(1), countRows(t, db, &models.SaleTransactionModel{}))
}

func TestPostgres_RemainingCheckConstraint(t *testing.T) {
	db := setupPostgresDB(t)
	batch := seedBatch(t, db, uuid.New(), 100, 3)

	err := db.Exec("UPDATE stock_batches SET quantity_remaining = 4 WHERE id = ?", batch.ID).Error
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chk_stock_batches_remaining")
}

func TestPostgres_CrossOrderedSalesDoNotDeadlock(t *testing.T) {
	db := setupPostgresDB(t)
	ctx := context.Background()
	teamID := uuid.New()
	caller := shared.NewCaller(uuid.New(), teamID)

	a := seedBatch(t, db, teamID, 10000, 100)
	b := seedBatch(t, db, teamID, 10000, 100)
	svc := appsales.NewSaleService(
		NewGormTransactionScope(db),
		NewGormSaleTransactionRepository(db),
		appsales.RetryPolicy{MaxAttempts: 10, BaseDelay: 2 * time.Millisecond, MaxDelay: 20 * time.Millisecond},
	)
	orders := [][]uuid.UUID{{a.ID, b.ID}, {b.ID, a.ID}}

	const sales = 8
	var wg sync.WaitGroup
	errs := make([]error, sales)
	start := make(chan struct{})
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			order := orders[i%2]
			<-start
			_, errs[i] = svc.RecordSale(ctx, caller, appsales.RecordSaleRequest{
				TeamID: teamID,
				Lines: []appsales.SaleLineRequest{
					{BatchID: order[0], Quantity: 1, UnitPrice: 150},
					{BatchID: order[1], Quantity: 1, UnitPrice: 150},
				},
			})
		}(i)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict), "unexpected error: %v", err)
	}
	require.Positive(t, succeeded)

	repo := NewGormStockBatchRepository(db)
	for _, id := range []uuid.UUID{a.ID, b.ID} {
		stored, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(100-succeeded), stored.QuantityRemaining)
	}
	assert.Equal(t, int64(succeeded), countRows(t, db, &models.SaleTransactionModel{}))
}
