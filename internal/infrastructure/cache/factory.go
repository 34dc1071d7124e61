package cache

import (
	"context"
	"fmt"

	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/erp/salesledger/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Idempotency backends
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// IdempotencyStoreFactory creates idempotency stores based on configuration
type IdempotencyStoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	connectRedis          func(context.Context, config.RedisConfig) (shared.IdempotencyStore, error)
}

// IdempotencyStoreFactoryOption is a functional option for configuring the factory
type IdempotencyStoreFactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory store. Default is true.
func WithInMemoryFallback(allow bool) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewIdempotencyStoreFactory creates a new factory
func NewIdempotencyStoreFactory(cfg config.RedisConfig, opts ...IdempotencyStoreFactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		connectRedis: func(ctx context.Context, cfg config.RedisConfig) (shared.IdempotencyStore, error) {
			return NewRedisIdempotencyStore(ctx, cfg)
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateInMemoryStore creates an in-memory idempotency store
func (f *IdempotencyStoreFactory) CreateInMemoryStore() shared.IdempotencyStore {
	return NewInMemoryIdempotencyStore()
}

// CreateStore creates the store named by backend. A redis backend that
// cannot be reached falls back to memory when fallback is allowed.
func (f *IdempotencyStoreFactory) CreateStore(ctx context.Context, backend string) (shared.IdempotencyStore, error) {
	switch backend {
	case BackendMemory, "":
		f.logger.Info("Using in-memory idempotency store")
		return f.CreateInMemoryStore(), nil
	case BackendRedis:
	default:
		return nil, fmt.Errorf("unsupported idempotency backend: %s", backend)
	}

	store, err := f.connectRedis(ctx, f.redisConfig)
	if err == nil {
		f.logger.Info("Using Redis idempotency store", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store; "+
		"duplicate submissions to other instances will not be detected",
		zap.Error(err))
	return f.CreateInMemoryStore(), nil
}
