package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	mode     string
	location string
	sessions func() int
	logger   *slog.Logger
}

// NewHealthHandler reports mode and snapshot location. sessions may be nil.
func NewHealthHandler(mode, location string, sessions func() int, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{mode: mode, location: location, sessions: sessions, logger: logHandler(logger, "health")}
}

// HealthCheck reports liveness.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"mode":      h.mode,
		"snapshot":  h.location,
	}
	if h.sessions != nil {
		body["tooltip_sessions"] = h.sessions()
	}
	writeJSON(w, http.StatusOK, body)
}
