package domain

import (
	"context"
	"io"
	"time"
)

// SnapshotStore persists the single kline snapshot. Save overwrites whatever
// was stored before.
type SnapshotStore interface {
	Save(ctx context.Context, body []byte) error
	Load(ctx context.Context) ([]byte, error)
	Location() string
}

// BlobWriter uploads data to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// BlobReader retrieves data from object storage.
type BlobReader interface {
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SeriesCache caches encoded series responses by snapshot digest.
type SeriesCache interface {
	Get(ctx context.Context, digest string) ([]byte, error)
	Set(ctx context.Context, digest string, body []byte) error
}
