package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/geneontology/go-api/internal/infrastructure/config"
)

// StoreFactory creates the result cache described by configuration.
type StoreFactory struct {
	cacheConfig           config.CacheConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory cache
// when Redis is unavailable. It overrides cache.allow_in_memory_fallback.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		cacheConfig:           cacheCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: cacheCfg.AllowInMemoryFallback,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateInMemoryStore creates a process-local cache.
func (f *StoreFactory) CreateInMemoryStore() *InMemoryCache {
	return NewInMemoryCache(
		WithInMemoryTTL(f.cacheConfig.TTL),
		WithInMemoryLogger(f.logger.Named("l1_cache")),
	)
}

// CreateTieredStore connects to Redis and puts an in-memory L1 in front of it.
func (f *StoreFactory) CreateTieredStore() (*TieredCache, error) {
	client, err := NewRedisClient(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis result cache: %w", err)
	}

	l2 := &RedisCache{client: client, keyPrefix: DefaultKeyPrefix, ownsClient: true}
	l1 := NewInMemoryCache(
		WithInMemoryTTL(f.cacheConfig.L1TTL),
		WithInMemoryLogger(f.logger.Named("l1_cache")),
	)
	invalidator := NewRedisInvalidator(client, WithInvalidatorLogger(f.logger.Named("cache_invalidation")))

	return NewTieredCache(l1, l2,
		WithL1TTL(f.cacheConfig.L1TTL),
		WithInvalidator(invalidator),
		WithTieredLogger(f.logger.Named("tiered_cache")),
	), nil
}

// CreateStore returns a no-op cache when caching is disabled, a tiered
// Redis cache when Redis is enabled and reachable, and otherwise an
// in-memory cache. When Redis is enabled but unreachable and fallback is not
// allowed, it returns an error.
//
// The invalidation subscription of a tiered store runs until ctx is done.
func (f *StoreFactory) CreateStore(ctx context.Context) (Store, error) {
	if !f.cacheConfig.Enabled {
		f.logger.Info("Result cache disabled")
		return NoopCache{}, nil
	}

	if !f.cacheConfig.RedisEnabled {
		f.logger.Info("Using in-memory result cache")
		return f.CreateInMemoryStore(), nil
	}

	store, err := f.CreateTieredStore()
	if err == nil {
		f.logger.Info("Using Redis result cache",
			zap.String("addr", fmt.Sprintf("%s:%d", f.redisConfig.Host, f.redisConfig.Port)))
		go func() {
			if err := store.StartInvalidationSubscription(ctx); err != nil && ctx.Err() == nil {
				f.logger.Warn("Cache invalidation subscription ended", zap.Error(err))
			}
		}()
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for result cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory result cache. "+
		"Cached results will not be shared between instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryStore(), nil
}
