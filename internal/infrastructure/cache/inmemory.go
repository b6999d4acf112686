package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/geneontology/go-api/internal/domain/shared"
)

const (
	defaultCleanupInterval = 30 * time.Second
	defaultInMemoryTTL     = 5 * time.Minute
)

// InMemoryCache is a process-local ResultCache. It serves as the L1 tier in
// front of Redis and as the standalone cache when Redis is not configured.
type InMemoryCache struct {
	entries         sync.Map // map[string]*cacheEntry[[]byte]
	defaultTTL      time.Duration
	cleanupInterval time.Duration
	logger          *zap.Logger
	stopCh          chan struct{}
	stopped         int32

	hits   int64
	misses int64
}

// cacheEntry wraps a cached value with expiration time
type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e *cacheEntry[T]) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemoryCacheOption configures an InMemoryCache.
type InMemoryCacheOption func(*InMemoryCache)

// WithInMemoryTTL sets the TTL applied when Set is called with a zero ttl.
func WithInMemoryTTL(ttl time.Duration) InMemoryCacheOption {
	return func(c *InMemoryCache) {
		if ttl > 0 {
			c.defaultTTL = ttl
		}
	}
}

// WithCleanupInterval sets how often expired entries are swept.
func WithCleanupInterval(interval time.Duration) InMemoryCacheOption {
	return func(c *InMemoryCache) {
		if interval > 0 {
			c.cleanupInterval = interval
		}
	}
}

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryCacheOption {
	return func(c *InMemoryCache) {
		c.logger = logger
	}
}

// NewInMemoryCache creates an in-memory cache and starts its cleanup goroutine.
func NewInMemoryCache(opts ...InMemoryCacheOption) *InMemoryCache {
	c := &InMemoryCache{
		defaultTTL:      defaultInMemoryTTL,
		cleanupInterval: defaultCleanupInterval,
		logger:          zap.NewNop(),
		stopCh:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.cleanupExpired()

	return c
}

// Get returns a copy of the cached value for key.
func (c *InMemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if value, ok := c.entries.Load(key); ok {
		entry := value.(*cacheEntry[[]byte])
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			return append([]byte(nil), entry.value...), true, nil
		}
		c.entries.Delete(key)
	}

	atomic.AddInt64(&c.misses, 1)
	return nil, false, nil
}

// Set stores a copy of value under key. A zero ttl uses the default TTL.
func (c *InMemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.entries.Store(key, &cacheEntry[[]byte]{
		value:     append([]byte(nil), value...),
		expiresAt: time.Now().Add(ttl),
	})
	return nil
}

// Delete removes key.
func (c *InMemoryCache) Delete(ctx context.Context, key string) error {
	c.entries.Delete(key)
	return nil
}

// Clear drops every entry.
func (c *InMemoryCache) Clear() {
	c.entries.Range(func(key, _ any) bool {
		c.entries.Delete(key)
		return true
	})
}

// Len returns the number of live entries.
func (c *InMemoryCache) Len() int {
	n := 0
	c.entries.Range(func(_, value any) bool {
		if !value.(*cacheEntry[[]byte]).isExpired() {
			n++
		}
		return true
	})
	return n
}

// Stats returns the hit and miss counters.
func (c *InMemoryCache) Stats() Stats {
	return Stats{
		Hits:    atomic.LoadInt64(&c.hits),
		Misses:  atomic.LoadInt64(&c.misses),
		Entries: int64(c.Len()),
	}
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (c *InMemoryCache) Close() error {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

func (c *InMemoryCache) cleanupExpired() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						c.logger.Error("Panic in cache cleanup", zap.Any("panic", r))
					}
				}()
				removed := 0
				c.entries.Range(func(key, value any) bool {
					if value.(*cacheEntry[[]byte]).isExpired() {
						c.entries.Delete(key)
						removed++
					}
					return true
				})
				if removed > 0 {
					c.logger.Debug("Removed expired cache entries", zap.Int("count", removed))
				}
			}()
		}
	}
}

var _ shared.ResultCache = (*InMemoryCache)(nil)
