package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	appsales "github.com/erp/salesledger/internal/application/sales"
	"github.com/erp/salesledger/internal/domain/inventory"
	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func debit(t *testing.T, repos appsales.TransactionalRepositories, id uuid.UUID, qty int64) error {
	t.Helper()
	b, err := repos.Batches().FindByID(context.Background(), id)
	if err != nil {
		return err
	}
	b.QuantityRemaining -= qty
	b.IncrementVersion()
	return repos.Batches().SaveWithLock(context.Background(), b)
}

func TestTransactionScope_CommitAndRollback(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	teamID := uuid.New()
	batch := seedBatch(t, store, teamID, 10)
	scope := NewTransactionScope(store)
	reader := NewStockBatchRepository(store)

	t.Run("error discards buffered writes", func(t *testing.T) {
		boom := errors.New("boom")
		err := scope.Execute(ctx, func(repos appsales.TransactionalRepositories) error {
			require.NoError(t, debit(t, repos, batch.ID, 4))
			require.NoError(t, repos.Sales().Create(ctx, newTransaction(t, teamID, batch.ID, testAcquiredAt)))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := reader.FindByID(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(10), got.QuantityRemaining)
		assert.Empty(t, store.sales)
	})

	t.Run("writes are visible inside and applied on commit", func(t *testing.T) {
		txn := newTransaction(t, teamID, batch.ID, testAcquiredAt)
		err := scope.Execute(ctx, func(repos appsales.TransactionalRepositories) error {
			require.NoError(t, debit(t, repos, batch.ID, 3))
			require.NoError(t, debit(t, repos, batch.ID, 1))

			inside, err := repos.Batches().FindByIDs(ctx, []uuid.UUID{batch.ID})
			require.NoError(t, err)
			assert.Equal(t, int64(6), inside[0].QuantityRemaining)

			outside, err := reader.FindByID(ctx, batch.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(10), outside.QuantityRemaining)

			require.NoError(t, repos.Sales().Create(ctx, txn))
			_, err = repos.Sales().FindByID(ctx, txn.ID)
			return err
		})
		require.NoError(t, err)

		got, err := reader.FindByID(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(6), got.QuantityRemaining)
		assert.Equal(t, 3, got.Version)
		assert.Contains(t, store.sales, txn.ID)
	})

	t.Run("canceled context commits nothing", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		err := scope.Execute(cctx, func(repos appsales.TransactionalRepositories) error {
			err := debit(t, repos, batch.ID, 1)
			cancel()
			return err
		})
		assert.ErrorIs(t, err, context.Canceled)

		got, err := reader.FindByID(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(6), got.QuantityRemaining)
	})
}

func TestTransactionScope_CommitDetectsConcurrentWrite(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	teamID := uuid.New()
	batch := seedBatch(t, store, teamID, 2)
	scope := NewTransactionScope(store)
	txn := newTransaction(t, teamID, batch.ID, testAcquiredAt)

	var innerErr error
	err := scope.Execute(ctx, func(repos appsales.TransactionalRepositories) error {
		require.NoError(t, debit(t, repos, batch.ID, 2))
		require.NoError(t, repos.Sales().Create(ctx, txn))
		// another writer commits between this unit's write and its commit
		innerErr = scope.Execute(ctx, func(other appsales.TransactionalRepositories) error {
			return debit(t, other, batch.ID, 1)
		})
		return nil
	})
	require.NoError(t, innerErr)
	assert.ErrorIs(t, err, shared.ErrOptimisticLockFailed)

	got, err := NewStockBatchRepository(store).FindByID(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.QuantityRemaining)
	assert.NotContains(t, store.sales, txn.ID)

	err = scope.Execute(ctx, func(repos appsales.TransactionalRepositories) error {
		stale := batch.Clone()
		stale.QuantityRemaining = 0
		stale.IncrementVersion()
		return repos.Batches().SaveWithLock(ctx, stale)
	})
	assert.ErrorIs(t, err, shared.ErrOptimisticLockFailed)
}

func TestTransactionScope_DeleteDoesNotRestock(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	teamID := uuid.New()
	batch := seedBatch(t, store, teamID, 24, inventory.WithPackaging(1, 24))
	service := appsales.NewSaleService(NewTransactionScope(store), NewSaleTransactionRepository(store), appsales.DefaultRetryPolicy())
	caller := shared.NewCaller(uuid.New(), teamID)

	resp, err := service.RecordSale(ctx, caller, appsales.RecordSaleRequest{
		TeamID: teamID,
		Lines:  []appsales.SaleLineRequest{{BatchID: batch.ID, Quantity: 3, UnitPrice: 150}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(450), resp.Total)

	require.NoError(t, service.DeleteSale(ctx, caller, teamID, resp.ID))

	got, err := NewStockBatchRepository(store).FindByID(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(21), got.QuantityRemaining)
	_, err = service.GetSale(ctx, caller, teamID, resp.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

// Two sales race for the last two units; exactly one wins and the loser
// observes the debit after retrying.
func TestTransactionScope_ConcurrentSalesForLastUnits(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	teamID := uuid.New()
	batch := seedBatch(t, store, teamID, 2)
	policy := appsales.RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	service := appsales.NewSaleService(NewTransactionScope(store), NewSaleTransactionRepository(store), policy)
	caller := shared.NewCaller(uuid.New(), teamID)

	const workers = 2
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = service.RecordSale(ctx, caller, appsales.RecordSaleRequest{
				TeamID: teamID,
				Lines:  []appsales.SaleLineRequest{{BatchID: batch.ID, Quantity: 2, UnitPrice: 100}},
			})
		}(i)
	}
	close(start)
	wg.Wait()

	var succeeded, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, shared.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, insufficient)

	got, err := NewStockBatchRepository(store).FindByID(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.QuantityRemaining)
	assert.Len(t, store.sales, 1)
}
