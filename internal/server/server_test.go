package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/klinechart/internal/chart"
	"github.com/alanyoungcy/klinechart/internal/domain"
	"github.com/alanyoungcy/klinechart/internal/render"
	"github.com/alanyoungcy/klinechart/internal/server/handler"
	"github.com/alanyoungcy/klinechart/internal/server/ws"
	"github.com/alanyoungcy/klinechart/internal/snapshot"
)

const body = `{
  "success": true,
  "code": 0,
  "data": {
    "open": [0.2841, 0.285],
    "high": [0.29, 0.3],
    "low": [0.28, 0.27],
    "close": [0.285, 0.271],
    "realOpen": [0.2842, 0.286],
    "realHigh": [0.291, 0.301],
    "realLow": [0.281, 0.271],
    "realClose": [0.286, 0.272],
    "vol": [1234567, 42],
    "time": [1739416500, 1739416560]
  }
}`

type fixture struct {
	url   string
	store *snapshot.FileStore
	hub   *ws.Hub
}

type options struct {
	cfg     Config
	limiter domain.RateLimiter
	cache   domain.SeriesCache
	raw     string
}

func newFixture(t *testing.T, o options) fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := snapshot.NewFileStore(filepath.Join(t.TempDir(), "data.json"))
	if o.raw != "" {
		require.NoError(t, store.Save(context.Background(), []byte(o.raw)))
	}

	cc := chart.DefaultConfig(chart.ProfileDual)
	ch := handler.NewChartHandler(store, cc, render.Options{TooltipPath: "/ws/tooltip"}, o.cache, logger)
	hub := ws.NewHub(ch.Panels, cc, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(done)
	}()

	srv := NewServer(o.cfg, Handlers{
		Health: handler.NewHealthHandler("serve", store.Location(), hub.SessionCount, logger),
		Chart:  ch,
	}, hub, o.limiter, logger)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-done
	})
	return fixture{url: ts.URL, store: store, hub: hub}
}

func get(t *testing.T, url string, header map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	f := newFixture(t, options{})
	resp := get(t, f.url+"/api/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "ok", got["status"])
	assert.Equal(t, "serve", got["mode"])
	assert.EqualValues(t, 0, got["tooltip_sessions"])
}

func TestPage(t *testing.T) {
	f := newFixture(t, options{raw: body})
	resp := get(t, f.url+"/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	html, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(html), `<div id="chart-1" class="chart">`)
	assert.Contains(t, string(html), `<div id="chart-2" class="chart">`)

	assert.Equal(t, http.StatusNotFound, get(t, f.url+"/nope", nil).StatusCode)
}

func TestSeries_ETag(t *testing.T) {
	f := newFixture(t, options{raw: body})

	resp := get(t, f.url+"/api/series", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	var s domain.Series
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	require.Len(t, s.Candles, 2)
	require.Len(t, s.RealCandles, 2)
	assert.Equal(t, int64(1739416560), s.Volume[1].Time)

	again := get(t, f.url+"/api/series", map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, again.StatusCode)

	other := get(t, f.url+"/api/series", map[string]string{"If-None-Match": `"stale"`})
	assert.Equal(t, http.StatusOK, other.StatusCode)
}

func TestSnapshot_Raw(t *testing.T) {
	f := newFixture(t, options{raw: body})
	resp := get(t, f.url+"/api/snapshot", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
	assert.Equal(t, handler.ETag([]byte(body)), resp.Header.Get("ETag"))
}

func TestChart_Panels(t *testing.T) {
	f := newFixture(t, options{raw: body})
	resp := get(t, f.url+"/api/chart", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Profile string        `json:"profile"`
		Panels  []chart.Panel `json:"panels"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "dual", got.Profile)
	require.Len(t, got.Panels, 2)
	assert.Equal(t, chart.TimeRange{From: 1739412900, To: 1739422260}, got.Panels[0].VisibleRange)
}

func TestErrors_StatusMapping(t *testing.T) {
	missing := newFixture(t, options{})
	assert.Equal(t, http.StatusNotFound, get(t, missing.url+"/api/series", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, get(t, missing.url+"/api/snapshot", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, get(t, missing.url+"/", nil).StatusCode)

	short := strings.Replace(body, `"vol": [1234567, 42]`, `"vol": [1234567]`, 1)
	bad := newFixture(t, options{raw: short})
	assert.Equal(t, http.StatusUnprocessableEntity, get(t, bad.url+"/api/series", nil).StatusCode)
	assert.Equal(t, http.StatusUnprocessableEntity, get(t, bad.url+"/api/chart", nil).StatusCode)

	unordered := strings.Replace(body, `"time": [1739416500, 1739416560]`, `"time": [1739416560, 1739416500]`, 1)
	bad2 := newFixture(t, options{raw: unordered})
	assert.Equal(t, http.StatusUnprocessableEntity, get(t, bad2.url+"/api/series", nil).StatusCode)
}

func TestAuth(t *testing.T) {
	f := newFixture(t, options{raw: body, cfg: Config{APIKey: "secret"}})

	assert.Equal(t, http.StatusUnauthorized, get(t, f.url+"/api/series", nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, get(t, f.url+"/api/series", map[string]string{"X-API-Key": "wrong"}).StatusCode)
	assert.Equal(t, http.StatusOK, get(t, f.url+"/api/series", map[string]string{"Authorization": "Bearer secret"}).StatusCode)
	assert.Equal(t, http.StatusOK, get(t, f.url+"/api/health", nil).StatusCode)
	assert.Equal(t, http.StatusOK, get(t, f.url+"/", nil).StatusCode)
}

func TestZstd(t *testing.T) {
	f := newFixture(t, options{raw: body, cfg: Config{Compress: true}})

	resp := get(t, f.url+"/api/snapshot", map[string]string{"Accept-Encoding": "zstd"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "zstd", resp.Header.Get("Content-Encoding"))

	compressed, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	dec, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer dec.Close()
	plain, err := dec.DecodeAll(compressed, nil)
	require.NoError(t, err)
	assert.Equal(t, body, string(plain))

	nm := get(t, f.url+"/api/snapshot", map[string]string{"Accept-Encoding": "zstd", "If-None-Match": resp.Header.Get("ETag")})
	assert.Equal(t, http.StatusNotModified, nm.StatusCode)
	assert.Empty(t, nm.Header.Get("Content-Encoding"))
}

type countingLimiter struct {
	mu    sync.Mutex
	seen  map[string]int
	limit int
}

func (l *countingLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen[key]++
	return l.seen[key] <= limit, nil
}

func TestRateLimit(t *testing.T) {
	lim := &countingLimiter{seen: map[string]int{}}
	f := newFixture(t, options{raw: body, limiter: lim, cfg: Config{RateLimit: 2, RateWindow: time.Minute}})

	assert.Equal(t, http.StatusOK, get(t, f.url+"/api/health", nil).StatusCode)
	assert.Equal(t, http.StatusOK, get(t, f.url+"/api/health", nil).StatusCode)
	resp := get(t, f.url+"/api/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))

	assert.Equal(t, http.StatusOK, get(t, f.url+"/api/health", map[string]string{"X-Forwarded-For": "10.0.0.9"}).StatusCode)
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	hits int
}

func (c *memCache) Get(_ context.Context, digest string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[digest]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c.hits++
	return b, nil
}

func (c *memCache) Set(_ context.Context, digest string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[digest] = body
	return nil
}

func TestSeries_Cache(t *testing.T) {
	cache := &memCache{data: map[string][]byte{}}
	f := newFixture(t, options{raw: body, cache: cache})

	first, err := io.ReadAll(get(t, f.url+"/api/series", nil).Body)
	require.NoError(t, err)
	second, err := io.ReadAll(get(t, f.url+"/api/series", nil).Body)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.hits)
	assert.Len(t, cache.data, 1)
}

func wsURL(base, panel string) string {
	return "ws" + strings.TrimPrefix(base, "http") + "/ws/tooltip?panel=" + panel
}

func TestTooltipSession(t *testing.T) {
	f := newFixture(t, options{raw: body})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(f.url, chart.ContainerSecondary), nil)
	require.NoError(t, err)
	defer conn.Close()

	ts := int64(1739416500)
	rect := chart.Rect{Left: 0, Top: 0, Right: 800, Bottom: 600, Width: 800, Height: 600}

	require.NoError(t, conn.WriteJSON(chart.CrosshairEvent{Time: &ts, X: 100, Y: 100, Rect: rect}))
	var view chart.View
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&view))
	assert.Equal(t, chart.Visible, view.State)
	assert.Equal(t, "0.2841", view.Open)
	assert.Equal(t, "1,234,567", view.Volume)
	assert.Equal(t, 115.0, view.Left)

	require.NoError(t, conn.WriteJSON(chart.CrosshairEvent{X: 100, Y: 100, Rect: rect}))
	require.NoError(t, conn.ReadJSON(&view))
	assert.Equal(t, chart.Hidden, view.State)

	assert.Eventually(t, func() bool { return f.hub.SessionCount() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestTooltipSession_RealPanel(t *testing.T) {
	f := newFixture(t, options{raw: body})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(f.url, chart.ContainerPrimary), nil)
	require.NoError(t, err)
	defer conn.Close()

	ts := int64(1739416500)
	require.NoError(t, conn.WriteJSON(chart.CrosshairEvent{Time: &ts, X: 10, Y: 10, Rect: chart.Rect{Right: 800, Bottom: 600, Width: 800, Height: 600}}))
	var view chart.View
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&view))
	assert.Equal(t, "0.2842", view.Open)
	assert.Equal(t, "0.291", view.High)
}

func TestTooltipSession_Rejects(t *testing.T) {
	f := newFixture(t, options{raw: body})

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(f.url, "chart-9"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(f.url, "http")+"/ws/tooltip", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
