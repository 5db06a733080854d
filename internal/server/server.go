package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/alanyoungcy/klinechart/internal/domain"
	"github.com/alanyoungcy/klinechart/internal/server/handler"
	"github.com/alanyoungcy/klinechart/internal/server/middleware"
	"github.com/alanyoungcy/klinechart/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	// APIKey guards the /api data routes; empty disables auth.
	APIKey string
	// RateLimit is the per-IP request budget per RateWindow. Zero disables
	// limiting.
	RateLimit  int
	RateWindow time.Duration
	Compress   bool
}

// Handlers aggregates the HTTP handlers.
type Handlers struct {
	Health *handler.HealthHandler
	Chart  *handler.ChartHandler
}

// Server serves the chart page, its JSON API and the tooltip websocket.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers all routes and builds the middleware chain. hub and
// limiter may be nil.
func NewServer(cfg Config, h Handlers, hub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("component", "server"))
	mux := http.NewServeMux()
	auth := middleware.Auth(cfg.APIKey)

	mux.HandleFunc("GET /{$}", h.Chart.Page)
	mux.HandleFunc("GET /api/health", h.Health.HealthCheck)
	mux.Handle("GET /api/snapshot", auth(http.HandlerFunc(h.Chart.Snapshot)))
	mux.Handle("GET /api/series", auth(http.HandlerFunc(h.Chart.Series)))
	mux.Handle("GET /api/chart", auth(http.HandlerFunc(h.Chart.Chart)))
	if hub != nil {
		mux.HandleFunc("GET /ws/tooltip", hub.HandleTooltip)
	}

	var root http.Handler = mux
	if cfg.Compress {
		root = middleware.Zstd(root)
	}
	if limiter != nil && cfg.RateLimit > 0 {
		root = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow, logger)(root)
	}
	root = middleware.Logging(logger)(root)
	root = middleware.CORS(cfg.CORSOrigins)(root)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           root,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the root handler including middleware.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start listens on the configured port and blocks until shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("server: starting", slog.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: serve: %w", err)
	}
	return nil
}

// Shutdown waits for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
