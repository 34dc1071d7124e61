package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/salesledger/internal/domain/shared"
)

// entry represents a stored key with expiration
type entry struct {
	expiresAt time.Time
}

// InMemoryIdempotencyStore implements IdempotencyStore using an in-memory map.
// Keys are not shared across process instances.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	entries   map[string]entry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// InMemoryOption configures an InMemoryIdempotencyStore
type InMemoryOption func(*InMemoryIdempotencyStore)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) InMemoryOption {
	return func(s *InMemoryIdempotencyStore) {
		s.now = now
	}
}

// NewInMemoryIdempotencyStore creates a new in-memory idempotency store.
// A background goroutine removes expired keys until Close is called.
func NewInMemoryIdempotencyStore(opts ...InMemoryOption) *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		entries:  make(map[string]entry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(store)
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// MarkProcessed marks a key with a TTL.
// Returns true if the key was newly marked, false if it is still live.
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, exists := s.entries[key]; exists && now.Before(e.expiresAt) {
		return false, nil
	}
	s.entries[key] = entry{expiresAt: now.Add(ttl)}
	return true, nil
}

// IsProcessed checks if a key is still live
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[key]
	if !exists {
		return false, nil
	}
	return s.now().Before(e.expiresAt), nil
}

// Release forgets a key
func (s *InMemoryIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes expired entries from the store
func (s *InMemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Size returns the number of entries in the store
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
