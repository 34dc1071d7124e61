package strategy

import (
	"errors"
	"sync"
	"testing"

	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/erp/salesledger/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock cost strategy for testing
type mockCostStrategy struct {
	strategy.CostModel
}

func newMockCostStrategy(name string) *mockCostStrategy {
	return &mockCostStrategy{
		CostModel: strategy.NewCostModel(strategy.CostMethod(name), "Mock cost strategy"),
	}
}

func (s *mockCostStrategy) UnitCost(strategy.CostInput) decimal.Decimal {
	return decimal.Zero
}

func TestStrategyRegistry_CostStrategies(t *testing.T) {
	t.Run("register and get", func(t *testing.T) {
		r := NewStrategyRegistry()
		require.NoError(t, r.RegisterCostStrategy(newMockCostStrategy("mock")))

		s, err := r.GetCostStrategy("mock")
		require.NoError(t, err)
		assert.Equal(t, "mock", s.Name())
	})

	t.Run("duplicate registration fails", func(t *testing.T) {
		r := NewStrategyRegistry()
		require.NoError(t, r.RegisterCostStrategy(newMockCostStrategy("mock")))

		err := r.RegisterCostStrategy(newMockCostStrategy("mock"))
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("unknown strategy is not found", func(t *testing.T) {
		r := NewStrategyRegistry()

		_, err := r.GetCostStrategy("missing")
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("empty name without default is not found", func(t *testing.T) {
		r := NewStrategyRegistry()

		_, err := r.DefaultCostStrategy()
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("default must be registered", func(t *testing.T) {
		r := NewStrategyRegistry()

		err := r.SetDefaultCostStrategy("missing")
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("lists names sorted", func(t *testing.T) {
		r := NewStrategyRegistry()
		require.NoError(t, r.RegisterCostStrategy(newMockCostStrategy("b")))
		require.NoError(t, r.RegisterCostStrategy(newMockCostStrategy("a")))

		assert.Equal(t, []string{"a", "b"}, r.ListCostStrategies())
	})
}

func TestStrategyRegistry_ConcurrentAccess(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.RegisterCostStrategy(newMockCostStrategy("mock")))
	require.NoError(t, r.SetDefaultCostStrategy("mock"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := r.DefaultCostStrategy()
			assert.NoError(t, err)
			assert.Equal(t, "mock", s.Name())
		}()
	}
	wg.Wait()
}

func TestNewRegistryWithDefaults(t *testing.T) {
	t.Run("selects pooled model", func(t *testing.T) {
		r, err := NewRegistryWithDefaults(strategy.CostMethodLotWeightedAverage)
		require.NoError(t, err)

		s, err := r.DefaultCostStrategy()
		require.NoError(t, err)
		assert.Equal(t, strategy.CostMethodLotWeightedAverage, s.Method())
		assert.Equal(t, []string{"direct_batch", "lot_weighted_average"}, r.ListCostStrategies())
	})

	t.Run("selects direct model", func(t *testing.T) {
		r, err := NewRegistryWithDefaults(strategy.CostMethodDirectBatch)
		require.NoError(t, err)

		s, err := r.DefaultCostStrategy()
		require.NoError(t, err)
		assert.Equal(t, strategy.CostMethodDirectBatch, s.Method())
	})

	t.Run("rejects unknown method", func(t *testing.T) {
		_, err := NewRegistryWithDefaults("fifo")
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}
