package upstream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geneontology/go-api/internal/domain/shared"
	"github.com/geneontology/go-api/internal/infrastructure/telemetry"
)

type countingSearcher struct {
	calls int
	docs  Documents
	err   error
}

func (s *countingSearcher) Search(context.Context, Query) (Documents, error) {
	s.calls++
	return s.docs, s.err
}

type mapCache struct {
	data   map[string][]byte
	getErr error
	setErr error
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

var _ shared.ResultCache = (*mapCache)(nil)

func TestCachedSearcher_ReadThrough(t *testing.T) {
	next := &countingSearcher{docs: Documents(`[{"annotation_class":"GO:0003824"}]`)}
	cache := newMapCache()
	metrics := telemetry.NewMetrics("cachetest")
	s := NewCachedSearcher(next, cache, time.Hour, nil, metrics)
	q := Query{Document: DocumentOntologyClass, Filters: []string{"subset:goslim_agr"}}

	first, err := s.Search(context.Background(), q)
	require.NoError(t, err)
	second, err := s.Search(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first, second)
	assert.Contains(t, cache.data, q.CacheKey())

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	results := map[string]float64{}
	for _, f := range families {
		if f.GetName() != "cachetest_cache_lookups_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			results[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(1), results["hit"])
	assert.Equal(t, float64(1), results["miss"])
}

func TestCachedSearcher_UpstreamErrorIsNotCached(t *testing.T) {
	next := &countingSearcher{err: shared.ErrUpstreamFailed}
	cache := newMapCache()
	s := NewCachedSearcher(next, cache, time.Hour, nil, nil)

	_, err := s.Search(context.Background(), Query{Document: DocumentAnnotation})
	assert.True(t, errors.Is(err, shared.ErrUpstreamFailed))
	assert.Empty(t, cache.data)
}

func TestCachedSearcher_CacheFailuresFallThrough(t *testing.T) {
	next := &countingSearcher{docs: Documents(`[]`)}
	cache := newMapCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	s := NewCachedSearcher(next, cache, time.Hour, nil, nil)

	docs, err := s.Search(context.Background(), Query{Document: DocumentAnnotation})
	require.NoError(t, err)
	assert.Equal(t, 0, docs.Len())
	assert.Equal(t, 1, next.calls)
}

func TestCachedSearcher_RefreshBypassesRead(t *testing.T) {
	next := &countingSearcher{docs: Documents(`[{"v":1}]`)}
	cache := newMapCache()
	s := NewCachedSearcher(next, cache, time.Hour, nil, nil)
	q := Query{Document: DocumentOntologyClass, Filters: []string{"subset:goslim_agr"}}

	_, err := s.Search(context.Background(), q)
	require.NoError(t, err)

	next.docs = Documents(`[{"v":2}]`)
	docs, err := s.Search(WithRefresh(context.Background()), q)
	require.NoError(t, err)
	assert.Equal(t, `[{"v":2}]`, string(docs))
	assert.Equal(t, 2, next.calls)

	docs, err = s.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, `[{"v":2}]`, string(docs), "refreshed result replaces the cached one")
	assert.Equal(t, 2, next.calls)
}
