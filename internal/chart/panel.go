package chart

import (
	"errors"
	"fmt"

	"github.com/alanyoungcy/klinechart/internal/domain"
)

// Container ids the page provides.
const (
	ContainerPrimary   = "chart-1"
	ContainerSecondary = "chart-2"
)

// ErrNoRealPrices is returned when the dual profile is requested for a
// snapshot without real price columns.
var ErrNoRealPrices = errors.New("chart: dual profile requires real price columns")

// crosshairModeNormal is the engine's CrosshairMode.Normal.
const crosshairModeNormal = 0

// Input is what Initialize draws into one container.
type Input struct {
	ContainerID string
	Candles     []domain.CandlePoint
	Volume      []domain.VolumePoint
	// Secondary holds real-price candles. When set it is the plotted candle
	// series and the panel is marked Real.
	Secondary []domain.CandlePoint
	Legend    string
}

// Panel is the complete description of one chart instance. The page glue
// passes the option blocks to the engine unchanged.
type Panel struct {
	ContainerID  string          `json:"containerId"`
	Legend       string          `json:"legend,omitempty"`
	Real         bool            `json:"real"`
	Options      ChartOptions    `json:"options"`
	Candle       CandleSeries    `json:"candle"`
	Volume       VolumeSeries    `json:"volume"`
	Markers      []Marker        `json:"markers"`
	Highlight    HighlightSeries `json:"highlight"`
	VisibleRange TimeRange       `json:"visibleRange"`
	Tooltip      TooltipSize     `json:"tooltip"`
}

type ChartOptions struct {
	Layout          LayoutOptions     `json:"layout"`
	RightPriceScale PriceScaleOptions `json:"rightPriceScale"`
	Grid            GridOptions       `json:"grid"`
	Crosshair       CrosshairOptions  `json:"crosshair"`
	TimeScale       TimeScaleOptions  `json:"timeScale"`
}

type LayoutOptions struct {
	TextColor  string     `json:"textColor"`
	Background Background `json:"background"`
}

type Background struct {
	Type  string `json:"type"`
	Color string `json:"color"`
}

type PriceScaleOptions struct {
	TextColor   string `json:"textColor"`
	BorderColor string `json:"borderColor"`
}

type GridOptions struct {
	VertLines LineColor `json:"vertLines"`
	HorzLines LineColor `json:"horzLines"`
}

type LineColor struct {
	Color string `json:"color"`
}

type CrosshairOptions struct {
	Mode     int           `json:"mode"`
	VertLine CrosshairLine `json:"vertLine"`
	HorzLine CrosshairLine `json:"horzLine"`
}

type CrosshairLine struct {
	Color                string `json:"color"`
	LabelBackgroundColor string `json:"labelBackgroundColor"`
	Width                int    `json:"width"`
}

type TimeScaleOptions struct {
	BorderColor string `json:"borderColor"`
	TimeVisible bool   `json:"timeVisible"`
}

type SeriesPriceFormat struct {
	Type      string  `json:"type"`
	Precision int     `json:"precision,omitempty"`
	MinMove   float64 `json:"minMove,omitempty"`
}

type CandleOptions struct {
	UpColor          string            `json:"upColor"`
	DownColor        string            `json:"downColor"`
	WickUpColor      string            `json:"wickUpColor"`
	WickDownColor    string            `json:"wickDownColor"`
	BorderVisible    bool              `json:"borderVisible"`
	PriceLineVisible bool              `json:"priceLineVisible"`
	PriceFormat      SeriesPriceFormat `json:"priceFormat"`
}

type CandleSeries struct {
	Options      CandleOptions        `json:"options"`
	ScaleMargins Margins              `json:"scaleMargins"`
	Data         []domain.CandlePoint `json:"data"`
}

type VolumeOptions struct {
	PriceScaleID string            `json:"priceScaleId"`
	Color        string            `json:"color"`
	PriceFormat  SeriesPriceFormat `json:"priceFormat"`
}

type VolumeSeries struct {
	Options      VolumeOptions        `json:"options"`
	ScaleMargins Margins              `json:"scaleMargins"`
	Data         []domain.VolumePoint `json:"data"`
}

type AreaOptions struct {
	PriceScaleID string `json:"priceScaleId"`
	TopColor     string `json:"topColor"`
	BottomColor  string `json:"bottomColor"`
	LineColor    string `json:"lineColor"`
	LineWidth    int    `json:"lineWidth"`
}

// HighlightSeries is the band overlay. Autoscale is always false; the glue
// installs a null autoscale provider for it.
type HighlightSeries struct {
	Options   AreaOptions `json:"options"`
	Autoscale bool        `json:"autoscale"`
	Data      []AreaPoint `json:"data"`
}

// Initialize builds the chart description for one container. It has no
// side effects; two calls for the same container yield two independent
// panels, which the page stacks.
func Initialize(cfg Config, in Input) Panel {
	t := cfg.Theme
	crosshair := CrosshairLine{Color: t.CrosshairLine, LabelBackgroundColor: t.CrosshairLabel, Width: 1}

	candles := in.Candles
	if in.Secondary != nil {
		candles = in.Secondary
	}

	return Panel{
		ContainerID: in.ContainerID,
		Legend:      in.Legend,
		Real:        in.Secondary != nil,
		Options: ChartOptions{
			Layout:          LayoutOptions{TextColor: t.Text, Background: Background{Type: "solid", Color: t.Background}},
			RightPriceScale: PriceScaleOptions{TextColor: t.Text, BorderColor: t.Primary},
			Grid:            GridOptions{VertLines: LineColor{t.Grid}, HorzLines: LineColor{t.Grid}},
			Crosshair:       CrosshairOptions{Mode: crosshairModeNormal, VertLine: crosshair, HorzLine: crosshair},
			TimeScale:       TimeScaleOptions{BorderColor: t.Border, TimeVisible: true},
		},
		Candle: CandleSeries{
			Options: CandleOptions{
				UpColor:       t.Up,
				DownColor:     t.Down,
				WickUpColor:   t.Up,
				WickDownColor: t.Down,
				PriceFormat: SeriesPriceFormat{
					Type:      "price",
					Precision: cfg.PriceFormat.Precision,
					MinMove:   cfg.PriceFormat.MinMove,
				},
			},
			ScaleMargins: cfg.CandleMargins,
			Data:         candles,
		},
		Volume: VolumeSeries{
			Options: VolumeOptions{
				PriceScaleID: "",
				Color:        t.Primary,
				PriceFormat:  SeriesPriceFormat{Type: "volume"},
			},
			ScaleMargins: cfg.VolumeMargins,
			Data:         in.Volume,
		},
		Markers: cfg.Markers(),
		Highlight: HighlightSeries{
			Options: AreaOptions{
				PriceScaleID: "unused",
				TopColor:     t.Highlight,
				BottomColor:  t.Highlight,
				LineColor:    "transparent",
				LineWidth:    1,
			},
			Data: cfg.highlightData(),
		},
		VisibleRange: cfg.VisibleRange(),
		Tooltip:      cfg.Tooltip,
	}
}

// Panels lays out the series according to the configured profile.
func Panels(cfg Config, s domain.Series) ([]Panel, error) {
	switch cfg.Profile {
	case ProfileDual:
		if s.RealCandles == nil {
			return nil, ErrNoRealPrices
		}
		return []Panel{
			Initialize(cfg, Input{
				ContainerID: ContainerPrimary,
				Candles:     s.Candles,
				Volume:      s.Volume,
				Secondary:   s.RealCandles,
				Legend:      cfg.Legend + ` ("REAL")`,
			}),
			Initialize(cfg, Input{
				ContainerID: ContainerSecondary,
				Candles:     s.Candles,
				Volume:      s.Volume,
				Legend:      cfg.Legend,
			}),
		}, nil
	case ProfileSingle:
		return []Panel{
			Initialize(cfg, Input{
				ContainerID: ContainerPrimary,
				Candles:     s.Candles,
				Volume:      s.Volume,
				Legend:      cfg.Legend,
			}),
		}, nil
	default:
		return nil, fmt.Errorf("chart: unknown profile %q", cfg.Profile)
	}
}

// Find returns the panel bound to the container id.
func Find(panels []Panel, containerID string) (Panel, bool) {
	for _, p := range panels {
		if p.ContainerID == containerID {
			return p, true
		}
	}
	return Panel{}, false
}
