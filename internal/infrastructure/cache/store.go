// Package cache implements the result caches that sit in front of the
// upstream knowledge services: a process-local L1, a Redis L2, and a tiered
// combination of the two.
package cache

import (
	"context"
	"time"

	"github.com/geneontology/go-api/internal/domain/shared"
)

// Store is a ResultCache that holds resources.
type Store interface {
	shared.ResultCache
	Close() error
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	L1Hits   int64 `json:"l1_hits,omitempty"`
	L1Misses int64 `json:"l1_misses,omitempty"`
	L2Hits   int64 `json:"l2_hits,omitempty"`
	Entries  int64 `json:"entries"`
}

// HitRatio returns Hits / (Hits + Misses), or 0 before any lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// StatsReporter is implemented by stores that track hit rates.
type StatsReporter interface {
	Stats() Stats
}

// NoopCache never stores anything. It is used when caching is disabled.
type NoopCache struct{}

// Get always misses.
func (NoopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards value.
func (NoopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete is a no-op.
func (NoopCache) Delete(context.Context, string) error { return nil }

// Close is a no-op.
func (NoopCache) Close() error { return nil }

var (
	_ Store         = NoopCache{}
	_ Store         = (*InMemoryCache)(nil)
	_ Store         = (*RedisCache)(nil)
	_ StatsReporter = (*InMemoryCache)(nil)
	_ StatsReporter = (*TieredCache)(nil)
)
