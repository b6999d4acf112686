package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/geneontology/go-api/internal/infrastructure/config"
)

// unreachableRedis points at a port nothing listens on.
var unreachableRedis = config.RedisConfig{Host: "127.0.0.1", Port: 1}

func TestStoreFactory_CreateStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t.Run("disabled cache is a no-op", func(t *testing.T) {
		f := NewStoreFactory(config.CacheConfig{Enabled: false}, unreachableRedis)
		store, err := f.CreateStore(ctx)
		require.NoError(t, err)
		assert.IsType(t, NoopCache{}, store)
	})

	t.Run("in-memory when redis is off", func(t *testing.T) {
		f := NewStoreFactory(config.CacheConfig{Enabled: true, TTL: time.Hour}, unreachableRedis)
		store, err := f.CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryCache{}, store)
	})

	t.Run("falls back to in-memory when redis is unreachable", func(t *testing.T) {
		f := NewStoreFactory(
			config.CacheConfig{Enabled: true, RedisEnabled: true, AllowInMemoryFallback: true},
			unreachableRedis,
			WithLogger(zap.NewNop()),
		)
		store, err := f.CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryCache{}, store)
	})

	t.Run("errors when fallback is not allowed", func(t *testing.T) {
		f := NewStoreFactory(
			config.CacheConfig{Enabled: true, RedisEnabled: true, AllowInMemoryFallback: true},
			unreachableRedis,
			WithInMemoryFallback(false),
		)
		_, err := f.CreateStore(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Redis required")
	})
}
