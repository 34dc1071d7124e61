package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/salesledger/internal/domain/inventory"
	"github.com/erp/salesledger/internal/domain/sales"
	"github.com/erp/salesledger/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var testAcquiredAt = time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

// setupSQLiteDB opens an in-memory sqlite database with the full schema
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDatabase(&config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: ":memory:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db.DB
}

// newMockGormDB returns a postgres-dialect GORM handle backed by sqlmock
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func seedBatch(t *testing.T, db *gorm.DB, teamID uuid.UUID, totalCost, received int64, opts ...inventory.BatchOption) *inventory.StockBatch {
	t.Helper()
	batch, err := inventory.NewStockBatch(teamID, uuid.New(), testAcquiredAt, totalCost, received, opts...)
	require.NoError(t, err)
	require.NoError(t, NewGormStockBatchRepository(db).Create(context.Background(), batch))
	return batch
}

func seedLot(t *testing.T, db *gorm.DB, teamID uuid.UUID, totalCost int64) *inventory.Lot {
	t.Helper()
	lot, err := inventory.NewLot(teamID, "shipment", totalCost, testAcquiredAt)
	require.NoError(t, err)
	require.NoError(t, NewGormLotRepository(db).Create(context.Background(), lot))
	return lot
}

func newTransaction(t *testing.T, teamID uuid.UUID, soldAt time.Time, lines ...sales.SaleLine) *sales.SaleTransaction {
	t.Helper()
	txn, err := sales.NewSaleTransaction(teamID, uuid.New(), soldAt, "", lines, 0, 0)
	require.NoError(t, err)
	return txn
}

func newLine(t *testing.T, batchID uuid.UUID, qty, price int64) sales.SaleLine {
	t.Helper()
	line, err := sales.NewSaleLine(0, batchID, qty, price)
	require.NoError(t, err)
	return line
}
