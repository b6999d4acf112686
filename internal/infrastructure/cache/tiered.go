package cache

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Invalidator fans L1 invalidations out to other instances.
type Invalidator interface {
	PublishKey(ctx context.Context, key string) error
	Subscribe(ctx context.Context, callback func(InvalidationMessage)) error
	Close() error
}

// TieredCache reads through a local L1 to a shared L2 and back-fills L1 on
// L2 hits. L1 entries live for at most l1TTL.
type TieredCache struct {
	l1          *InMemoryCache
	l2          Store
	invalidator Invalidator
	l1TTL       time.Duration
	logger      *zap.Logger

	l1Hits   int64
	l1Misses int64
	l2Hits   int64
	l2Misses int64
}

// TieredCacheOption configures a TieredCache.
type TieredCacheOption func(*TieredCache)

// WithL1TTL caps how long entries stay in L1.
func WithL1TTL(ttl time.Duration) TieredCacheOption {
	return func(c *TieredCache) {
		if ttl > 0 {
			c.l1TTL = ttl
		}
	}
}

// WithInvalidator publishes deletions so other instances drop their L1 copies.
func WithInvalidator(inv Invalidator) TieredCacheOption {
	return func(c *TieredCache) {
		c.invalidator = inv
	}
}

// WithTieredLogger sets the logger for the cache
func WithTieredLogger(logger *zap.Logger) TieredCacheOption {
	return func(c *TieredCache) {
		c.logger = logger
	}
}

// NewTieredCache combines l1 and l2. The tiered cache owns both and closes
// them on Close.
func NewTieredCache(l1 *InMemoryCache, l2 Store, opts ...TieredCacheOption) *TieredCache {
	c := &TieredCache{
		l1:     l1,
		l2:     l2,
		l1TTL:  defaultInMemoryTTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartInvalidationSubscription drops L1 entries deleted by other instances.
// It blocks until ctx is cancelled, so run it in a goroutine.
func (c *TieredCache) StartInvalidationSubscription(ctx context.Context) error {
	if c.invalidator == nil {
		return nil
	}
	return c.invalidator.Subscribe(ctx, func(msg InvalidationMessage) {
		_ = c.l1.Delete(ctx, msg.Key)
		c.logger.Debug("Invalidated L1 cache entry", zap.String("key", msg.Key))
	})
}

// Get tries L1 then L2, copying L2 hits into L1.
func (c *TieredCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if value, ok, _ := c.l1.Get(ctx, key); ok {
		atomic.AddInt64(&c.l1Hits, 1)
		return value, true, nil
	}
	atomic.AddInt64(&c.l1Misses, 1)

	value, ok, err := c.l2.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		atomic.AddInt64(&c.l2Misses, 1)
		return nil, false, nil
	}
	atomic.AddInt64(&c.l2Hits, 1)

	_ = c.l1.Set(ctx, key, value, c.l1TTL)
	return value, true, nil
}

// Set writes L2 then L1 and tells other instances to drop their L1 copy.
func (c *TieredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.l2.Set(ctx, key, value, ttl); err != nil {
		return err
	}

	l1TTL := c.l1TTL
	if ttl > 0 && ttl < l1TTL {
		l1TTL = ttl
	}
	_ = c.l1.Set(ctx, key, value, l1TTL)

	c.publish(ctx, key)
	return nil
}

// Delete removes key from both tiers and tells other instances to do the same.
func (c *TieredCache) Delete(ctx context.Context, key string) error {
	if err := c.l2.Delete(ctx, key); err != nil {
		return err
	}
	_ = c.l1.Delete(ctx, key)

	c.publish(ctx, key)
	return nil
}

func (c *TieredCache) publish(ctx context.Context, key string) {
	if c.invalidator == nil {
		return
	}
	if err := c.invalidator.PublishKey(ctx, key); err != nil {
		c.logger.Warn("Failed to publish cache invalidation", zap.String("key", key), zap.Error(err))
	}
}

// Stats aggregates hits across both tiers. A miss is counted only when L2
// misses too.
func (c *TieredCache) Stats() Stats {
	l1Hits := atomic.LoadInt64(&c.l1Hits)
	l2Hits := atomic.LoadInt64(&c.l2Hits)
	return Stats{
		Hits:     l1Hits + l2Hits,
		Misses:   atomic.LoadInt64(&c.l2Misses),
		L1Hits:   l1Hits,
		L1Misses: atomic.LoadInt64(&c.l1Misses),
		L2Hits:   l2Hits,
		Entries:  int64(c.l1.Len()),
	}
}

// Close releases the invalidator and both tiers.
func (c *TieredCache) Close() error {
	var lastErr error

	if c.invalidator != nil {
		if err := c.invalidator.Close(); err != nil {
			lastErr = err
		}
	}
	if err := c.l2.Close(); err != nil {
		lastErr = err
	}
	if err := c.l1.Close(); err != nil {
		lastErr = err
	}
	return lastErr
}

var _ Store = (*TieredCache)(nil)
