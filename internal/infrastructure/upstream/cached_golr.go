package upstream

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/geneontology/go-api/internal/domain/shared"
	"github.com/geneontology/go-api/internal/infrastructure/telemetry"
)

type refreshKey struct{}

// WithRefresh marks ctx so that cached searches skip the cache read and
// overwrite the stored result with a fresh one.
func WithRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, refreshKey{}, true)
}

// IsRefresh reports whether ctx was marked by WithRefresh.
func IsRefresh(ctx context.Context) bool {
	refresh, _ := ctx.Value(refreshKey{}).(bool)
	return refresh
}

// CachedSearcher is a read-through cache in front of a Searcher. Cache
// failures are logged and the query falls through to GOlr.
type CachedSearcher struct {
	next    Searcher
	cache   shared.ResultCache
	ttl     time.Duration
	logger  *zap.Logger
	metrics *telemetry.Metrics
}

// NewCachedSearcher wraps next with cache.
func NewCachedSearcher(next Searcher, cache shared.ResultCache, ttl time.Duration, logger *zap.Logger, metrics *telemetry.Metrics) *CachedSearcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSearcher{
		next:    next,
		cache:   cache,
		ttl:     ttl,
		logger:  logger.Named("golr_cache"),
		metrics: metrics,
	}
}

// Search serves q from cache when present, otherwise from GOlr, storing the result.
func (s *CachedSearcher) Search(ctx context.Context, q Query) (Documents, error) {
	key := q.CacheKey()

	if !IsRefresh(ctx) {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		s.metrics.ObserveCacheLookup(ok)
		telemetry.SetAttribute(telemetry.SpanFromContext(ctx), telemetry.SpanAttrCacheHit, ok)
		if ok {
			return Documents(cached), nil
		}
	}

	docs, err := s.next.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, docs, s.ttl); err != nil {
		s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
	return docs, nil
}

var _ Searcher = (*CachedSearcher)(nil)
