// Package ws serves crosshair tooltip sessions over WebSocket. Each session
// owns one chart.Tooltip; the page sends crosshair events and receives the
// resulting views.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/klinechart/internal/chart"
	"github.com/alanyoungcy/klinechart/internal/server/handler"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// PanelSource yields the panels currently on the page.
type PanelSource func(ctx context.Context) ([]chart.Panel, error)

// Hub tracks open tooltip sessions and closes them on shutdown.
type Hub struct {
	panels PanelSource
	cfg    chart.Config
	logger *slog.Logger

	mu         sync.RWMutex
	sessions   map[*session]bool
	register   chan *session
	unregister chan *session
	done       chan struct{}
}

type session struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	tip  *chart.Tooltip
	send chan []byte
	quit chan struct{}
	log  *slog.Logger
}

// NewHub creates a Hub. Run must be started before sessions are accepted.
func NewHub(panels PanelSource, cfg chart.Config, logger *slog.Logger) *Hub {
	return &Hub{
		panels:     panels,
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "ws")),
		sessions:   make(map[*session]bool),
		register:   make(chan *session),
		unregister: make(chan *session),
		done:       make(chan struct{}),
	}
}

// Run owns session registration until ctx is cancelled, then closes every
// session.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for s := range h.sessions {
				close(s.quit)
				delete(h.sessions, s)
			}
			h.mu.Unlock()
			return ctx.Err()

		case s := <-h.register:
			h.mu.Lock()
			h.sessions[s] = true
			h.mu.Unlock()
			s.log.Info("ws: tooltip session opened", slog.Int("sessions", h.SessionCount()))

		case s := <-h.unregister:
			h.mu.Lock()
			if h.sessions[s] {
				delete(h.sessions, s)
				close(s.quit)
			}
			h.mu.Unlock()
			s.log.Info("ws: tooltip session closed", slog.Int("sessions", h.SessionCount()))
		}
	}
}

// SessionCount returns the number of open sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// HandleTooltip upgrades to a tooltip session for the panel named in the
// query.
// GET /ws/tooltip?panel=<container id>
func (h *Hub) HandleTooltip(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("panel")
	if id == "" {
		http.Error(w, "panel is required", http.StatusBadRequest)
		return
	}
	panels, err := h.panels(r.Context())
	if err != nil {
		h.logger.WarnContext(r.Context(), "ws: load panels", slog.String("error", err.Error()))
		http.Error(w, http.StatusText(handler.StatusFor(err)), handler.StatusFor(err))
		return
	}
	panel, ok := chart.Find(panels, id)
	if !ok {
		http.Error(w, "unknown panel "+id, http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws: upgrade failed", slog.String("error", err.Error()))
		return
	}

	sid := uuid.NewString()
	s := &session{
		id:   sid,
		hub:  h,
		conn: conn,
		tip:  chart.NewTooltip(h.cfg, panel),
		send: make(chan []byte, sendBufferSize),
		quit: make(chan struct{}),
		log:  h.logger.With(slog.String("session", sid), slog.String("panel", id)),
	}

	select {
	case h.register <- s:
	case <-h.done:
		conn.Close()
		return
	}

	go s.writePump()
	go s.readPump()
}

// readPump feeds crosshair events through the session's tooltip.
func (s *session) readPump() {
	defer func() {
		select {
		case s.hub.unregister <- s:
		case <-s.hub.done:
		}
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("ws: unexpected close", slog.String("error", err.Error()))
			}
			return
		}

		var evt chart.CrosshairEvent
		if err := json.Unmarshal(msg, &evt); err != nil {
			s.log.Debug("ws: bad crosshair event", slog.String("error", err.Error()))
			continue
		}
		view, err := json.Marshal(s.tip.Move(evt))
		if err != nil {
			continue
		}

		select {
		case s.send <- view:
		case <-s.quit:
			return
		default:
			s.log.Warn("ws: dropping tooltip view for slow client")
		}
	}
}

// writePump writes views and keepalive pings.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.quit:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
