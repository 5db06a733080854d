// Package chart builds chart descriptions for the lightweight-charts engine
// and implements the crosshair tooltip that accompanies them.
package chart

import (
	"fmt"
	"strings"
	"time"
)

// Profile selects the chart layout preset.
type Profile string

const (
	// ProfileSingle renders one chart with nominal candles.
	ProfileSingle Profile = "single"
	// ProfileDual renders real-price candles in chart-1 and nominal candles
	// in chart-2.
	ProfileDual Profile = "dual"
)

// TimeFormat selects how the tooltip prints the hovered bucket time.
type TimeFormat string

const (
	TimeFormatUTC   TimeFormat = "utc"   // 02.01.06 15:04 in UTC
	TimeFormatLocal TimeFormat = "local" // 15:04 02.01.06 in Config.Location
)

// Bounds selects the coordinate system the tooltip checks the pointer in.
type Bounds string

const (
	// BoundsClientRect checks client coordinates against the container's
	// bounding rectangle. The horizontal flip limit is the rectangle width
	// and the vertical one its bottom edge.
	BoundsClientRect Bounds = "client_rect"
	// BoundsLocalPoint checks container-local coordinates against
	// [0,W]x[0,H].
	BoundsLocalPoint Bounds = "local_point"
)

// Theme is the fixed colour palette.
type Theme struct {
	Primary        string
	Up             string
	Down           string
	Grid           string
	Background     string
	Text           string
	Border         string
	CrosshairLine  string
	CrosshairLabel string
	Highlight      string
}

// Margins are price scale margins as fractions of the pane height.
type Margins struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// PriceFormat controls the candle price axis and tooltip precision.
type PriceFormat struct {
	Precision int
	MinMove   float64
}

// TooltipSize is the tooltip panel geometry in pixels.
type TooltipSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Margin float64 `json:"margin"`
}

// Config parameterises Initialize and the tooltip.
type Config struct {
	Theme         Theme
	CandleMargins Margins
	VolumeMargins Margins

	MarkerTimestamps [2]int64
	MarkerLabels     [2]string

	HighlightRadiusSeconds     int64
	VisibleRangePaddingSeconds int64

	Profile    Profile
	TimeFormat TimeFormat
	Location   *time.Location
	Bounds     Bounds

	PriceFormat PriceFormat
	Tooltip     TooltipSize

	// Legend is the instrument label, e.g. "THE/USDT".
	Legend string
}

// DefaultTheme returns the dark palette.
func DefaultTheme() Theme {
	return Theme{
		Primary:        "rgba(249, 213, 83, 1)",
		Up:             "#00E979",
		Down:           "#E90054",
		Grid:           "#111",
		Background:     "black",
		Text:           "white",
		Border:         "#F9D553",
		CrosshairLine:  "rgba(249, 213, 83, 0.7)",
		CrosshairLabel: "rgba(249, 213, 83, 0.8)",
		Highlight:      "rgba(255, 0, 0, 0.2)",
	}
}

// DefaultConfig returns the preset for the given profile. An unknown profile
// falls back to single.
func DefaultConfig(p Profile) Config {
	cfg := Config{
		Theme:                      DefaultTheme(),
		CandleMargins:              Margins{Top: 0.1, Bottom: 0.4},
		VolumeMargins:              Margins{Top: 0.7, Bottom: 0},
		MarkerTimestamps:           [2]int64{1739416500, 1739418660},
		MarkerLabels:               [2]string{"OPEN", "LIQUIDATION"},
		HighlightRadiusSeconds:     5 * 60,
		VisibleRangePaddingSeconds: 60 * 60,
		Profile:                    ProfileSingle,
		TimeFormat:                 TimeFormatUTC,
		Location:                   time.UTC,
		Bounds:                     BoundsClientRect,
		PriceFormat:                PriceFormat{Precision: 3, MinMove: 0.001},
		Tooltip:                    TooltipSize{Width: 140, Height: 98, Margin: 15},
		Legend:                     "THE/USDT",
	}
	if p == ProfileDual {
		cfg.Profile = ProfileDual
		cfg.CandleMargins.Bottom = 0.6
	}
	return cfg
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []string

	switch c.Profile {
	case ProfileSingle, ProfileDual:
	default:
		errs = append(errs, fmt.Sprintf("profile %q must be single or dual", c.Profile))
	}
	switch c.TimeFormat {
	case TimeFormatUTC:
	case TimeFormatLocal:
		if c.Location == nil {
			errs = append(errs, "time format local requires a location")
		}
	default:
		errs = append(errs, fmt.Sprintf("time format %q must be utc or local", c.TimeFormat))
	}
	switch c.Bounds {
	case BoundsClientRect, BoundsLocalPoint:
	default:
		errs = append(errs, fmt.Sprintf("bounds %q must be client_rect or local_point", c.Bounds))
	}

	if c.MarkerTimestamps[0] > c.MarkerTimestamps[1] {
		errs = append(errs, fmt.Sprintf("marker timestamps out of order: %d > %d", c.MarkerTimestamps[0], c.MarkerTimestamps[1]))
	}
	if c.HighlightRadiusSeconds < 0 {
		errs = append(errs, "highlight radius must be >= 0")
	}
	if c.VisibleRangePaddingSeconds < 0 {
		errs = append(errs, "visible range padding must be >= 0")
	}
	if c.PriceFormat.Precision < 0 || c.PriceFormat.Precision > 12 {
		errs = append(errs, fmt.Sprintf("price precision %d out of range 0..12", c.PriceFormat.Precision))
	}
	if c.PriceFormat.MinMove <= 0 {
		errs = append(errs, "price min move must be > 0")
	}
	if c.Tooltip.Width <= 0 || c.Tooltip.Height <= 0 || c.Tooltip.Margin < 0 {
		errs = append(errs, fmt.Sprintf("tooltip geometry %+v invalid", c.Tooltip))
	}

	if len(errs) > 0 {
		return fmt.Errorf("chart: invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}
