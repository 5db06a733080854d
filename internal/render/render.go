// Package render turns chart panels into a self-contained HTML page.
package render

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"io"

	"github.com/alanyoungcy/klinechart/internal/atomicfile"
	"github.com/alanyoungcy/klinechart/internal/chart"
	"github.com/alanyoungcy/klinechart/internal/domain"
	"github.com/alanyoungcy/klinechart/internal/series"
	"github.com/alanyoungcy/klinechart/internal/snapshot"
)

// DefaultEngineURL is the lightweight-charts standalone build.
const DefaultEngineURL = "https://unpkg.com/lightweight-charts@5.0.7/dist/lightweight-charts.standalone.production.js"

//go:embed page.html.tmpl
var pageTemplate string

var page = template.Must(template.New("page").Parse(pageTemplate))

// Options controls page generation.
type Options struct {
	Title      string
	EngineURL  string
	Bounds     chart.Bounds
	TimeFormat chart.TimeFormat
	// TooltipPath is the websocket path of the tooltip session. Empty means
	// the page computes the tooltip itself.
	TooltipPath string
}

type pageData struct {
	Options
	Containers []string
	Panels     []chart.Panel
}

// Page writes the HTML document for panels to w.
func Page(w io.Writer, opts Options, panels []chart.Panel) error {
	if opts.EngineURL == "" {
		opts.EngineURL = DefaultEngineURL
	}
	if opts.Title == "" {
		opts.Title = "klinechart"
	}
	data := pageData{Options: opts, Containers: containers(panels), Panels: panels}
	if data.Panels == nil {
		data.Panels = []chart.Panel{}
	}
	if err := page.Execute(w, data); err != nil {
		return fmt.Errorf("render: page: %w", err)
	}
	return nil
}

// WriteFile renders the page into path, replacing it atomically.
func WriteFile(path string, opts Options, panels []chart.Panel) error {
	var buf bytes.Buffer
	if err := Page(&buf, opts, panels); err != nil {
		return err
	}
	if err := atomicfile.Write(path, buf.Bytes()); err != nil {
		return fmt.Errorf("render: write file: %w", err)
	}
	return nil
}

// Build loads the stored snapshot, transforms it and lays out the panels
// for cfg.
func Build(ctx context.Context, store domain.SnapshotStore, cfg chart.Config) ([]chart.Panel, error) {
	snap, err := snapshot.Load(ctx, store)
	if err != nil {
		return nil, err
	}
	s, err := series.Transform(snap)
	if err != nil {
		return nil, err
	}
	panels, err := chart.Panels(cfg, s)
	if err != nil {
		return nil, fmt.Errorf("render: build: %w", err)
	}
	return panels, nil
}

func containers(panels []chart.Panel) []string {
	seen := make(map[string]bool, len(panels))
	var out []string
	for _, p := range panels {
		if seen[p.ContainerID] {
			continue
		}
		seen[p.ContainerID] = true
		out = append(out, p.ContainerID)
	}
	return out
}
