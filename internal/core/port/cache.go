package port

import (
	"context"
	"time"
)

// TimeseriesCache stores serialized timeseries query results under a
// generation counter. Bumping the generation after a recompute invalidates
// every previously cached window without enumerating keys.
type TimeseriesCache interface {
	// Generation returns the current cache generation (zero when unset).
	Generation(ctx context.Context) (int64, error)
	// BumpGeneration increments and returns the cache generation.
	BumpGeneration(ctx context.Context) (int64, error)
	// Get fetches a cached payload; found is false on a miss.
	Get(ctx context.Context, key string) (payload []byte, found bool, err error)
	// Set stores a payload with the provided TTL.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}
