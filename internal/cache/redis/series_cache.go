package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/klinechart/internal/domain"
)

// SeriesCache keeps encoded /api/series responses keyed by snapshot digest,
// so repeated requests for an unchanged snapshot skip the transform.
type SeriesCache struct {
	c   *Client
	rdb *redis.Client
	ttl time.Duration
}

// NewSeriesCache creates a SeriesCache whose entries expire after ttl.
func NewSeriesCache(c *Client, ttl time.Duration) *SeriesCache {
	return &SeriesCache{c: c, rdb: c.Underlying(), ttl: ttl}
}

// Get returns the cached body or domain.ErrNotFound.
func (sc *SeriesCache) Get(ctx context.Context, digest string) ([]byte, error) {
	b, err := sc.rdb.Get(ctx, sc.c.Key("series", digest)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get series %s: %w", digest, err)
	}
	return b, nil
}

// Set stores body under digest.
func (sc *SeriesCache) Set(ctx context.Context, digest string, body []byte) error {
	if err := sc.rdb.Set(ctx, sc.c.Key("series", digest), body, sc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set series %s: %w", digest, err)
	}
	return nil
}

var _ domain.SeriesCache = (*SeriesCache)(nil)
