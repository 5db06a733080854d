package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/klinechart/internal/domain"
	"github.com/alanyoungcy/klinechart/internal/platform/mexc"
)

// KlineClient is the part of the exchange client the fetcher needs.
type KlineClient interface {
	FetchKlines(ctx context.Context, req mexc.KlineRequest) (domain.Snapshot, error)
}

// FetcherConfig configures a Fetcher. Locks may be nil, in which case no
// cross-process exclusion is attempted.
type FetcherConfig struct {
	Client  KlineClient
	Store   domain.SnapshotStore
	Locks   domain.LockManager
	LockTTL time.Duration
	Request mexc.KlineRequest
	Logger  *slog.Logger
}

// Fetcher performs the one-shot fetch-and-persist of a snapshot.
type Fetcher struct {
	client  KlineClient
	store   domain.SnapshotStore
	locks   domain.LockManager
	lockTTL time.Duration
	req     mexc.KlineRequest
	logger  *slog.Logger
}

// NewFetcher creates a Fetcher from cfg.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client:  cfg.Client,
		store:   cfg.Store,
		locks:   cfg.Locks,
		lockTTL: ttl,
		req:     cfg.Request,
		logger:  logger.With(slog.String("component", "fetcher")),
	}
}

// Fetch issues the configured request once and, only if the response
// envelope is valid, writes the pretty-printed body over the stored
// snapshot. Nothing is written on failure.
func (f *Fetcher) Fetch(ctx context.Context) (domain.Snapshot, error) {
	if f.locks != nil {
		unlock, err := f.locks.Acquire(ctx, "snapshot:"+f.req.Symbol, f.lockTTL)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("snapshot: fetch: %w", err)
		}
		defer unlock()
	}

	f.logger.InfoContext(ctx, "fetching klines",
		slog.String("symbol", f.req.Symbol),
		slog.String("interval", f.req.Interval),
		slog.Time("start", f.req.Start),
		slog.Time("end", f.req.End),
	)

	snap, err := f.client.FetchKlines(ctx, f.req)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("snapshot: fetch: %w", err)
	}

	if err := snap.Data.Validate(); err != nil {
		// Persisted verbatim anyway; loading will reject it.
		f.logger.WarnContext(ctx, "kline columns are inconsistent",
			slog.String("error", err.Error()),
		)
	}

	body, err := Pretty(snap.Raw)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("snapshot: fetch: %w", err)
	}
	if err := f.store.Save(ctx, body); err != nil {
		return domain.Snapshot{}, fmt.Errorf("snapshot: fetch: %w", err)
	}

	f.logger.InfoContext(ctx, "snapshot written",
		slog.String("location", f.store.Location()),
		slog.Int("klines", snap.Data.Len()),
		slog.Int("bytes", len(body)),
	)
	return snap, nil
}
