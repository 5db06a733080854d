package handler

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/alanyoungcy/klinechart/internal/chart"
	"github.com/alanyoungcy/klinechart/internal/domain"
	"github.com/alanyoungcy/klinechart/internal/render"
	"github.com/alanyoungcy/klinechart/internal/series"
	"github.com/alanyoungcy/klinechart/internal/snapshot"
)

// ChartHandler serves the chart page and its data. The snapshot is read on
// every request.
type ChartHandler struct {
	store  domain.SnapshotStore
	cfg    chart.Config
	page   render.Options
	cache  domain.SeriesCache
	logger *slog.Logger
}

// NewChartHandler creates a ChartHandler. cache may be nil.
func NewChartHandler(store domain.SnapshotStore, cfg chart.Config, page render.Options, cache domain.SeriesCache, logger *slog.Logger) *ChartHandler {
	return &ChartHandler{
		store:  store,
		cfg:    cfg,
		page:   page,
		cache:  cache,
		logger: logHandler(logger, "chart"),
	}
}

// Panels loads the snapshot and lays it out for the configured profile.
func (h *ChartHandler) Panels(ctx context.Context) ([]chart.Panel, error) {
	return render.Build(ctx, h.store, h.cfg)
}

// Page renders the HTML chart page.
// GET /
func (h *ChartHandler) Page(w http.ResponseWriter, r *http.Request) {
	panels, err := h.Panels(r.Context())
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.Page(w, h.page, panels); err != nil {
		h.logger.ErrorContext(r.Context(), "render page", slog.String("error", err.Error()))
	}
}

// Snapshot returns the stored snapshot bytes unchanged.
// GET /api/snapshot
func (h *ChartHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	raw, err := h.store.Load(r.Context())
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	etag := ETag(raw)
	w.Header().Set("ETag", etag)
	if notModified(r, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeBody(w, http.StatusOK, "application/json; charset=utf-8", raw)
}

// Series returns the transformed row series. The ETag is the blake2b-256
// digest of the snapshot bytes.
// GET /api/series
func (h *ChartHandler) Series(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, err := snapshot.Load(ctx, h.store)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}

	etag := ETag(snap.Raw)
	w.Header().Set("ETag", etag)
	if notModified(r, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	body, err := h.seriesBody(ctx, strings.Trim(etag, `"`), snap)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeBody(w, http.StatusOK, "application/json; charset=utf-8", body)
}

func (h *ChartHandler) seriesBody(ctx context.Context, digest string, snap domain.Snapshot) ([]byte, error) {
	if h.cache != nil {
		body, err := h.cache.Get(ctx, digest)
		if err == nil {
			return body, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			h.logger.WarnContext(ctx, "series cache get", slog.String("error", err.Error()))
		}
	}

	s, err := series.Transform(snap)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("handler: encode series: %w", err)
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, digest, body); err != nil {
			h.logger.WarnContext(ctx, "series cache set", slog.String("error", err.Error()))
		}
	}
	return body, nil
}

// Chart returns the panel descriptions.
// GET /api/chart
func (h *ChartHandler) Chart(w http.ResponseWriter, r *http.Request) {
	panels, err := h.Panels(r.Context())
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"profile": h.cfg.Profile,
		"panels":  panels,
	})
}

// ETag returns the quoted hex blake2b-256 digest of body.
func ETag(body []byte) string {
	sum := blake2b.Sum256(body)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// notModified evaluates If-None-Match against etag.
func notModified(r *http.Request, etag string) bool {
	header := r.Header.Get("If-None-Match")
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
