package memory

import (
	"context"
	"sort"

	"github.com/erp/salesledger/internal/domain/inventory"
	"github.com/erp/salesledger/internal/domain/sales"
	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/google/uuid"
)

// StockBatchRepository reads and writes batches directly against the store
type StockBatchRepository struct {
	store *Store
}

// NewStockBatchRepository creates a StockBatchRepository
func NewStockBatchRepository(store *Store) *StockBatchRepository {
	return &StockBatchRepository{store: store}
}

// FindByID returns shared.ErrNotFound when the batch does not exist
func (r *StockBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockBatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	b, ok := r.store.batches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return b.Clone(), nil
}

// FindByIDs returns the existing batches in the order their ids were first given
func (r *StockBatchRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]inventory.StockBatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]inventory.StockBatch, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if b, ok := r.store.batches[id]; ok {
			out = append(out, *b.Clone())
		}
	}
	return out, nil
}

// FindByLotIDs returns every batch belonging to one of the lots
func (r *StockBatchRepository) FindByLotIDs(ctx context.Context, lotIDs []uuid.UUID) ([]inventory.StockBatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wanted := make(map[uuid.UUID]struct{}, len(lotIDs))
	for _, id := range lotIDs {
		wanted[id] = struct{}{}
	}
	r.store.mu.RLock()
	out := make([]inventory.StockBatch, 0)
	for _, b := range r.store.batches {
		if b.LotID == nil {
			continue
		}
		if _, ok := wanted[*b.LotID]; ok {
			out = append(out, *b.Clone())
		}
	}
	r.store.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return bySoldAt(out[i].AcquiredAt, out[j].AcquiredAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

// SaveWithLock writes the batch if the stored version is batch.Version-1
func (r *StockBatchRepository) SaveWithLock(ctx context.Context, batch *inventory.StockBatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := batch.CheckInvariant(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.batches[batch.ID]
	if !ok || stored.Version != batch.Version-1 {
		return shared.ErrOptimisticLockFailed
	}
	r.store.batches[batch.ID] = *batch.Clone()
	return nil
}

// LotRepository reads lots
type LotRepository struct {
	store *Store
}

// NewLotRepository creates a LotRepository
func NewLotRepository(store *Store) *LotRepository {
	return &LotRepository{store: store}
}

// FindByID returns shared.ErrNotFound when the lot does not exist
func (r *LotRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Lot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	l, ok := r.store.lots[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &l, nil
}

// FindByIDs returns the lots that exist; missing ids are omitted
func (r *LotRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]inventory.Lot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]inventory.Lot, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if l, ok := r.store.lots[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

// SaleTransactionRepository reads and writes sales directly against the store
type SaleTransactionRepository struct {
	store *Store
}

// NewSaleTransactionRepository creates a SaleTransactionRepository
func NewSaleTransactionRepository(store *Store) *SaleTransactionRepository {
	return &SaleTransactionRepository{store: store}
}

// FindByID returns the transaction with lines in index order
func (r *SaleTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.SaleTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	t, ok := r.store.sales[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := copyTransaction(t)
	return &cp, nil
}

// FindInWindow returns the team's transactions sold inside the inclusive window
func (r *SaleTransactionRepository) FindInWindow(ctx context.Context, filter shared.WindowFilter) ([]sales.SaleTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	out := make([]sales.SaleTransaction, 0)
	for _, t := range r.store.sales {
		if t.TeamID == filter.TeamID && filter.Contains(t.SoldAt) {
			out = append(out, copyTransaction(t))
		}
	}
	r.store.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return bySoldAt(out[i].SoldAt, out[j].SoldAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

// Create stores the transaction and its lines
func (r *SaleTransactionRepository) Create(ctx context.Context, txn *sales.SaleTransaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := txn.Verify(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.sales[txn.ID]; exists {
		return shared.NewDomainError(shared.CodeInvalidState, "Sale transaction already exists")
	}
	r.store.sales[txn.ID] = copyTransaction(*txn)
	return nil
}

// Delete removes the transaction and its lines. Stock is not restored.
func (r *SaleTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.sales[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.store.sales, id)
	return nil
}

// LegacySaleRepository reads legacy single-line sales
type LegacySaleRepository struct {
	store *Store
}

// NewLegacySaleRepository creates a LegacySaleRepository
func NewLegacySaleRepository(store *Store) *LegacySaleRepository {
	return &LegacySaleRepository{store: store}
}

// FindInWindow returns the team's legacy records sold inside the inclusive window
func (r *LegacySaleRepository) FindInWindow(ctx context.Context, filter shared.WindowFilter) ([]sales.LegacySaleRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	out := make([]sales.LegacySaleRecord, 0)
	for _, rec := range r.store.legacy {
		if rec.TeamID == filter.TeamID && filter.Contains(rec.SoldAt) {
			out = append(out, rec)
		}
	}
	r.store.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return bySoldAt(out[i].SoldAt, out[j].SoldAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

var (
	_ inventory.StockBatchRepository  = (*StockBatchRepository)(nil)
	_ inventory.LotReader             = (*LotRepository)(nil)
	_ sales.SaleTransactionRepository = (*SaleTransactionRepository)(nil)
	_ sales.LegacySaleReader          = (*LegacySaleRepository)(nil)
)
