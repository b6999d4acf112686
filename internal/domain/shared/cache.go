package shared

import (
	"context"
	"time"
)

// ResultCache stores serialized upstream results keyed by a request fingerprint.
// A miss is reported as (nil, false, nil); errors are reserved for backend failures.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
