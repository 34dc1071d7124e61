// Package memory is an in-process document store for local runs and tests.
// Writes made inside a transaction scope are buffered and validated against
// the stored versions when the scope commits, which gives the same
// all-or-nothing, optimistic semantics as the SQL repositories.
package memory

import (
	"bytes"
	"sort"
	"sync"
	"time"

	"github.com/erp/salesledger/internal/domain/inventory"
	"github.com/erp/salesledger/internal/domain/sales"
	"github.com/google/uuid"
)

// Store holds every document. The zero value is not usable; call NewStore.
type Store struct {
	mu      sync.RWMutex
	lots    map[uuid.UUID]inventory.Lot
	batches map[uuid.UUID]inventory.StockBatch
	sales   map[uuid.UUID]sales.SaleTransaction
	legacy  map[uuid.UUID]sales.LegacySaleRecord
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		lots:    make(map[uuid.UUID]inventory.Lot),
		batches: make(map[uuid.UUID]inventory.StockBatch),
		sales:   make(map[uuid.UUID]sales.SaleTransaction),
		legacy:  make(map[uuid.UUID]sales.LegacySaleRecord),
	}
}

// PutLot inserts or replaces a lot
func (s *Store) PutLot(lot *inventory.Lot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lots[lot.ID] = *lot
}

// PutBatch inserts or replaces a batch
func (s *Store) PutBatch(batch *inventory.StockBatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[batch.ID] = *batch.Clone()
}

// PutLegacySale inserts or replaces a legacy record
func (s *Store) PutLegacySale(record *sales.LegacySaleRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.legacy[record.ID] = *record
}

func copyTransaction(t sales.SaleTransaction) sales.SaleTransaction {
	lines := make([]sales.SaleLine, len(t.Lines))
	copy(lines, t.Lines)
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].LineIndex < lines[j].LineIndex })
	t.Lines = lines
	return t
}

// bySoldAt orders by time then id, matching the SQL repositories
func bySoldAt(at1, at2 time.Time, id1, id2 uuid.UUID) bool {
	if !at1.Equal(at2) {
		return at1.Before(at2)
	}
	return bytes.Compare(id1[:], id2[:]) < 0
}
