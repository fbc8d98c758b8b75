package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stephaneglaugier91/daulingo/internal/core/port"
)

const (
	generationKey  = "daulingo:ts:generation"
	entryKeyPrefix = "daulingo:ts:entry"
)

// TimeseriesCache stores serialized timeseries query results under a
// generation counter. Bumping the generation after a recompute orphans every
// existing entry; orphans expire through their TTL.
type TimeseriesCache struct {
	client *redis.Client
}

// NewTimeseriesCache constructs a cache using the provided Redis client.
func NewTimeseriesCache(client *redis.Client) *TimeseriesCache {
	return &TimeseriesCache{client: client}
}

// Generation returns the current cache generation, zero when never bumped.
func (c *TimeseriesCache) Generation(ctx context.Context) (int64, error) {
	generation, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation: %w", err)
	}
	return generation, nil
}

// BumpGeneration advances the generation counter and returns the new value.
func (c *TimeseriesCache) BumpGeneration(ctx context.Context) (int64, error) {
	generation, err := c.client.Incr(ctx, generationKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr generation: %w", err)
	}
	return generation, nil
}

// Get returns the cached payload for key; found is false on a miss.
func (c *TimeseriesCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := c.client.Get(ctx, c.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get entry: %w", err)
	}
	return payload, true, nil
}

// Set stores the payload under key with the given TTL.
func (c *TimeseriesCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.entryKey(key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set entry: %w", err)
	}
	return nil
}

func (c *TimeseriesCache) entryKey(key string) string {
	return fmt.Sprintf("%s:%s", entryKeyPrefix, key)
}

var _ port.TimeseriesCache = (*TimeseriesCache)(nil)
