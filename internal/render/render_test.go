package render

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/klinechart/internal/chart"
	"github.com/alanyoungcy/klinechart/internal/domain"
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

func writeSnapshot(t *testing.T, raw string) domain.SnapshotStore {
	t.Helper()
	store := snapshot.NewFileStore(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, store.Save(context.Background(), []byte(raw)))
	return store
}

func TestBuild_Dual(t *testing.T) {
	panels, err := Build(context.Background(), writeSnapshot(t, body), chart.DefaultConfig(chart.ProfileDual))
	require.NoError(t, err)
	require.Len(t, panels, 2)
	assert.Equal(t, 0.2842, panels[0].Candle.Data[0].Open)
	assert.Equal(t, 0.2841, panels[1].Candle.Data[0].Open)
}

func TestBuild_Errors(t *testing.T) {
	missing := snapshot.NewFileStore(filepath.Join(t.TempDir(), "none.json"))
	_, err := Build(context.Background(), missing, chart.DefaultConfig(chart.ProfileSingle))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	short := strings.Replace(body, `"vol": [1234567, 42]`, `"vol": [1234567]`, 1)
	_, err = Build(context.Background(), writeSnapshot(t, short), chart.DefaultConfig(chart.ProfileSingle))
	assert.ErrorIs(t, err, domain.ErrColumnLength)
}

func TestPage_Content(t *testing.T) {
	panels, err := Build(context.Background(), writeSnapshot(t, body), chart.DefaultConfig(chart.ProfileDual))
	require.NoError(t, err)

	var buf bytes.Buffer
	err = Page(&buf, Options{Bounds: chart.BoundsClientRect, TimeFormat: chart.TimeFormatUTC, TooltipPath: "/ws/tooltip"}, panels)
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, `<div id="chart-1" class="chart">`)
	assert.Contains(t, html, `<div id="chart-2" class="chart">`)
	assert.Contains(t, html, DefaultEngineURL)
	assert.Contains(t, html, `"containerId":"chart-1"`)
	assert.Contains(t, html, `"priceScaleId":"unused"`)
	assert.Contains(t, html, "window.klinechart = { dispose: dispose }")
	assert.Contains(t, html, "removeEventListener('resize', onResize)")
	// The local tooltip prints raw prices; axis precision is not applied.
	assert.Contains(t, html, "open: String(c.open)")
	assert.NotContains(t, html, "toFixed(")
}

func TestPage_StackedPanelsShareContainer(t *testing.T) {
	cfg := chart.DefaultConfig(chart.ProfileSingle)
	p := chart.Initialize(cfg, chart.Input{ContainerID: "chart-1"})

	var buf bytes.Buffer
	require.NoError(t, Page(&buf, Options{}, []chart.Panel{p, p}))
	assert.Equal(t, 1, strings.Count(buf.String(), `<div id="chart-1"`))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "index.html")
	require.NoError(t, WriteFile(path, Options{Title: "THE/USDT"}, nil))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(got), "<title>THE/USDT</title>")
}
