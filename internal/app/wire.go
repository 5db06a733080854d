package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/alanyoungcy/klinechart/internal/blob/s3"
	"github.com/alanyoungcy/klinechart/internal/cache/redis"
	"github.com/alanyoungcy/klinechart/internal/chart"
	"github.com/alanyoungcy/klinechart/internal/config"
	"github.com/alanyoungcy/klinechart/internal/domain"
	"github.com/alanyoungcy/klinechart/internal/platform/mexc"
	"github.com/alanyoungcy/klinechart/internal/snapshot"
)

// Dependencies bundles what the modes need. It is constructed by Wire and
// torn down by the returned cleanup function.
type Dependencies struct {
	Store domain.SnapshotStore
	MEXC  *mexc.Client
	Chart chart.Config

	// Redis-backed; nil when redis is disabled.
	LockManager domain.LockManager
	RateLimiter domain.RateLimiter
	SeriesCache domain.SeriesCache
}

// needsRedis reports whether any component in mode can use Redis.
func needsRedis(cfg *config.Config) bool {
	return cfg.Redis.Enabled && cfg.Mode != "render"
}

// Wire constructs the concrete implementations from cfg and returns them
// together with a cleanup function that releases them.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		MEXC: mexc.NewClient(cfg.Fetch.Endpoint, cfg.Fetch.Timeout.Duration),
	}

	chartCfg, err := cfg.Chart.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("wire: %w", err)
	}
	deps.Chart = chartCfg

	// --- Snapshot store ---
	switch cfg.Snapshot.Backend {
	case "s3":
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })
		deps.Store = s3blob.NewSnapshotStore(s3Client, cfg.Snapshot.Key, cfg.Snapshot.MultipartThreshold)
	default:
		deps.Store = snapshot.NewFileStore(cfg.Snapshot.Path)
	}

	// --- Redis ---
	if needsRedis(cfg) {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
			KeyPrefix:  cfg.Redis.KeyPrefix,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.LockManager = redis.NewLockManager(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.SeriesCache = redis.NewSeriesCache(redisClient, cfg.Redis.SeriesCacheTTL.Duration)
	}

	logger.InfoContext(ctx, "dependencies wired",
		slog.String("component", "wire"),
		slog.String("snapshot", deps.Store.Location()),
		slog.Bool("redis", deps.LockManager != nil),
		slog.String("profile", string(deps.Chart.Profile)),
	)
	return deps, cleanup, nil
}
