package memory

import (
	"context"

	appsales "github.com/erp/salesledger/internal/application/sales"
	"github.com/erp/salesledger/internal/domain/inventory"
	"github.com/erp/salesledger/internal/domain/sales"
	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/google/uuid"
)

// TransactionScope buffers writes and applies them under the store lock when
// fn returns nil. A batch whose stored version moved since it was read fails
// the whole commit with shared.ErrOptimisticLockFailed.
type TransactionScope struct {
	store *Store
}

// NewTransactionScope creates a TransactionScope over the store
func NewTransactionScope(store *Store) *TransactionScope {
	return &TransactionScope{store: store}
}

// Execute runs fn against a fresh unit of work and commits it
func (s *TransactionScope) Execute(ctx context.Context, fn func(repos appsales.TransactionalRepositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	uow := newUnitOfWork(s.store)
	if err := fn(uow); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return uow.commit()
}

type stagedBatch struct {
	expectedVersion int
	batch           inventory.StockBatch
}

// unitOfWork is confined to the goroutine running fn
type unitOfWork struct {
	store   *Store
	batches map[uuid.UUID]*stagedBatch
	order   []uuid.UUID
	creates map[uuid.UUID]sales.SaleTransaction
	deletes map[uuid.UUID]struct{}
}

func newUnitOfWork(store *Store) *unitOfWork {
	return &unitOfWork{
		store:   store,
		batches: make(map[uuid.UUID]*stagedBatch),
		creates: make(map[uuid.UUID]sales.SaleTransaction),
		deletes: make(map[uuid.UUID]struct{}),
	}
}

func (u *unitOfWork) Batches() inventory.StockBatchRepository {
	return &txBatchRepository{uow: u, base: NewStockBatchRepository(u.store)}
}

func (u *unitOfWork) Sales() sales.SaleTransactionRepository {
	return &txSaleRepository{uow: u, base: NewSaleTransactionRepository(u.store)}
}

func (u *unitOfWork) commit() error {
	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range u.order {
		staged := u.batches[id]
		stored, ok := s.batches[id]
		if !ok || stored.Version != staged.expectedVersion {
			return shared.ErrOptimisticLockFailed
		}
	}
	for id := range u.deletes {
		if _, ok := s.sales[id]; !ok {
			return shared.ErrNotFound
		}
	}
	for id := range u.creates {
		if _, exists := s.sales[id]; exists {
			return shared.NewDomainError(shared.CodeInvalidState, "Sale transaction already exists")
		}
	}

	for _, id := range u.order {
		s.batches[id] = u.batches[id].batch
	}
	for id := range u.deletes {
		delete(s.sales, id)
	}
	for id, txn := range u.creates {
		s.sales[id] = txn
	}
	return nil
}

type txBatchRepository struct {
	uow  *unitOfWork
	base *StockBatchRepository
}

func (r *txBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockBatch, error) {
	if staged, ok := r.uow.batches[id]; ok {
		return staged.batch.Clone(), nil
	}
	return r.base.FindByID(ctx, id)
}

func (r *txBatchRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]inventory.StockBatch, error) {
	found, err := r.base.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return r.overlay(found), nil
}

func (r *txBatchRepository) FindByLotIDs(ctx context.Context, lotIDs []uuid.UUID) ([]inventory.StockBatch, error) {
	found, err := r.base.FindByLotIDs(ctx, lotIDs)
	if err != nil {
		return nil, err
	}
	return r.overlay(found), nil
}

func (r *txBatchRepository) overlay(found []inventory.StockBatch) []inventory.StockBatch {
	for i := range found {
		if staged, ok := r.uow.batches[found[i].ID]; ok {
			found[i] = *staged.batch.Clone()
		}
	}
	return found
}

// SaveWithLock stages the write. The version is checked now against what this
// unit of work last saw and again at commit against the store.
func (r *txBatchRepository) SaveWithLock(ctx context.Context, batch *inventory.StockBatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := batch.CheckInvariant(); err != nil {
		return err
	}
	if staged, ok := r.uow.batches[batch.ID]; ok {
		if staged.batch.Version != batch.Version-1 {
			return shared.ErrOptimisticLockFailed
		}
		staged.batch = *batch.Clone()
		return nil
	}

	r.base.store.mu.RLock()
	stored, ok := r.base.store.batches[batch.ID]
	r.base.store.mu.RUnlock()
	if !ok || stored.Version != batch.Version-1 {
		return shared.ErrOptimisticLockFailed
	}
	r.uow.batches[batch.ID] = &stagedBatch{expectedVersion: batch.Version - 1, batch: *batch.Clone()}
	r.uow.order = append(r.uow.order, batch.ID)
	return nil
}

type txSaleRepository struct {
	uow  *unitOfWork
	base *SaleTransactionRepository
}

func (r *txSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.SaleTransaction, error) {
	if _, gone := r.uow.deletes[id]; gone {
		return nil, shared.ErrNotFound
	}
	if txn, ok := r.uow.creates[id]; ok {
		cp := copyTransaction(txn)
		return &cp, nil
	}
	return r.base.FindByID(ctx, id)
}

func (r *txSaleRepository) FindInWindow(ctx context.Context, filter shared.WindowFilter) ([]sales.SaleTransaction, error) {
	found, err := r.base.FindInWindow(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := found[:0]
	for _, txn := range found {
		if _, gone := r.uow.deletes[txn.ID]; !gone {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (r *txSaleRepository) Create(ctx context.Context, txn *sales.SaleTransaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := txn.Verify(); err != nil {
		return err
	}
	if _, dup := r.uow.creates[txn.ID]; dup {
		return shared.NewDomainError(shared.CodeInvalidState, "Sale transaction already exists")
	}
	r.uow.creates[txn.ID] = copyTransaction(*txn)
	return nil
}

func (r *txSaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := r.uow.creates[id]; ok {
		delete(r.uow.creates, id)
		return nil
	}
	if _, err := r.base.FindByID(ctx, id); err != nil {
		return err
	}
	r.uow.deletes[id] = struct{}{}
	return nil
}

var _ appsales.TransactionScope = (*TransactionScope)(nil)
