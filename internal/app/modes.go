package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/klinechart/internal/platform/mexc"
	"github.com/alanyoungcy/klinechart/internal/render"
	"github.com/alanyoungcy/klinechart/internal/server"
	"github.com/alanyoungcy/klinechart/internal/server/handler"
	"github.com/alanyoungcy/klinechart/internal/server/ws"
	"github.com/alanyoungcy/klinechart/internal/snapshot"
)

const tooltipPath = "/ws/tooltip"

// FetchMode downloads the snapshot once and returns.
func (a *App) FetchMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting fetch mode")
	if _, err := a.newFetcher(deps).Fetch(ctx); err != nil {
		return fmt.Errorf("fetch mode: %w", err)
	}
	return nil
}

// RenderMode loads the stored snapshot and writes a static page to
// render.output. The page computes its tooltip locally.
func (a *App) RenderMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting render mode")

	panels, err := render.Build(ctx, deps.Store, deps.Chart)
	if err != nil {
		return fmt.Errorf("render mode: %w", err)
	}
	opts := a.pageOptions(deps, "")
	if err := render.WriteFile(a.cfg.Render.Output, opts, panels); err != nil {
		return fmt.Errorf("render mode: %w", err)
	}

	a.logger.InfoContext(ctx, "page written",
		slog.String("output", a.cfg.Render.Output),
		slog.Int("panels", len(panels)),
		slog.String("profile", string(deps.Chart.Profile)),
	)
	return nil
}

// ServeMode runs the HTTP server and tooltip hub until ctx is cancelled.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps)
	return g.Wait()
}

// FullMode fetches the snapshot once and then serves it. A failed fetch
// stops the mode before the server starts.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	fetched := make(chan struct{})

	g.Go(func() error {
		if _, err := a.newFetcher(deps).Fetch(ctx); err != nil {
			return fmt.Errorf("full mode: %w", err)
		}
		close(fetched)
		return nil
	})

	g.Go(func() error {
		select {
		case <-ctx.Done():
			return nil
		case <-fetched:
		}
		a.startHTTPServer(ctx, g, deps)
		return nil
	})

	return g.Wait()
}

func (a *App) newFetcher(deps *Dependencies) *snapshot.Fetcher {
	return snapshot.NewFetcher(snapshot.FetcherConfig{
		Client:  deps.MEXC,
		Store:   deps.Store,
		Locks:   deps.LockManager,
		LockTTL: a.cfg.Fetch.LockTTL.Duration,
		Request: mexc.KlineRequest{
			Symbol:   a.cfg.Fetch.Symbol,
			Interval: a.cfg.Fetch.Interval,
			Start:    a.cfg.Fetch.Start,
			End:      a.cfg.Fetch.End,
		},
		Logger: a.logger,
	})
}

func (a *App) pageOptions(deps *Dependencies, tooltip string) render.Options {
	return render.Options{
		Title:       a.cfg.Render.Title,
		EngineURL:   a.cfg.Render.EngineURL,
		Bounds:      deps.Chart.Bounds,
		TimeFormat:  deps.Chart.TimeFormat,
		TooltipPath: tooltip,
	}
}

// startHTTPServer adds the server, the tooltip hub and the graceful
// shutdown watcher to g.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	chartH := handler.NewChartHandler(deps.Store, deps.Chart, a.pageOptions(deps, tooltipPath), deps.SeriesCache, a.logger)
	hub := ws.NewHub(chartH.Panels, deps.Chart, a.logger)
	health := handler.NewHealthHandler(a.cfg.Mode, deps.Store.Location(), hub.SessionCount, a.logger)

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
		Compress:    a.cfg.Server.Compress,
	}, server.Handlers{Health: health, Chart: chartH}, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return hub.Run(ctx)
	})

	g.Go(func() error {
		a.logger.InfoContext(ctx, "HTTP server listening",
			slog.Int("port", a.cfg.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", a.cfg.Server.Port)),
		)
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		timeout := a.cfg.Server.ShutdownTimeout.Duration
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
