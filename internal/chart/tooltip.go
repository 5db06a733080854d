package chart

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/alanyoungcy/klinechart/internal/domain"
	"github.com/alanyoungcy/klinechart/internal/series"
)

// State is the tooltip visibility.
type State int

const (
	Hidden State = iota
	Visible
)

func (s State) String() string {
	if s == Visible {
		return "VISIBLE"
	}
	return "HIDDEN"
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a state name; anything but VISIBLE is Hidden.
func (s *State) UnmarshalText(b []byte) error {
	*s = Hidden
	if string(b) == "VISIBLE" {
		*s = Visible
	}
	return nil
}

// Rect is a container's bounding rectangle in client coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CrosshairEvent is one crosshair move as reported by the page. Time is nil
// when no bucket is hovered. X and Y are client coordinates for
// BoundsClientRect and container-local ones for BoundsLocalPoint.
type CrosshairEvent struct {
	Time *int64  `json:"time,omitempty"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Rect Rect    `json:"rect"`
}

// View is what the page shows after a move. Content fields are empty when
// hidden.
type View struct {
	State  State   `json:"state"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Time   string  `json:"time,omitempty"`
	Open   string  `json:"open,omitempty"`
	High   string  `json:"high,omitempty"`
	Low    string  `json:"low,omitempty"`
	Close  string  `json:"close,omitempty"`
	Volume string  `json:"volume,omitempty"`
}

// Tooltip tracks the crosshair over one panel. It is not safe for
// concurrent use; each session owns one.
type Tooltip struct {
	cfg     Config
	rows    domain.Series
	state   State
	printer *message.Printer
}

// NewTooltip binds a tooltip to the series drawn in a panel.
func NewTooltip(cfg Config, p Panel) *Tooltip {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	cfg.Location = loc
	return &Tooltip{
		cfg:     cfg,
		rows:    domain.Series{Candles: p.Candle.Data, Volume: p.Volume.Data},
		printer: message.NewPrinter(language.AmericanEnglish),
	}
}

// State returns the state after the last Move.
func (t *Tooltip) State() State { return t.state }

// Move applies a crosshair event and returns the resulting view.
func (t *Tooltip) Move(evt CrosshairEvent) View {
	if evt.Time == nil || !t.inside(evt) {
		t.state = Hidden
		return View{State: Hidden}
	}
	i, ok := series.Index(t.rows, *evt.Time)
	if !ok {
		t.state = Hidden
		return View{State: Hidden}
	}

	limitX, limitY := t.limits(evt.Rect)
	left, top := Place(evt.X, evt.Y, limitX, limitY, t.cfg.Tooltip)

	c := t.rows.Candles[i]
	v := View{
		State: Visible,
		Left:  left,
		Top:   top,
		Time:  FormatTime(*evt.Time, t.cfg.TimeFormat, t.cfg.Location),
		Open:  t.price(c.Open),
		High:  t.price(c.High),
		Low:   t.price(c.Low),
		Close: t.price(c.Close),
	}
	if i < len(t.rows.Volume) {
		v.Volume = t.printer.Sprint(number.Decimal(t.rows.Volume[i].Value, number.MaxFractionDigits(3)))
	}
	t.state = Visible
	return v
}

func (t *Tooltip) inside(evt CrosshairEvent) bool {
	r := evt.Rect
	if t.cfg.Bounds == BoundsLocalPoint {
		return evt.X >= 0 && evt.X <= r.Width && evt.Y >= 0 && evt.Y <= r.Height
	}
	return evt.X >= r.Left && evt.X <= r.Right && evt.Y >= r.Top && evt.Y <= r.Bottom
}

func (t *Tooltip) limits(r Rect) (float64, float64) {
	if t.cfg.Bounds == BoundsLocalPoint {
		return r.Width, r.Height
	}
	return r.Width, r.Bottom
}

// price prints the shortest decimal that round-trips v. The axis precision
// does not apply here.
func (t *Tooltip) price(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// Place computes the panel's top-left corner. On each axis the panel sits
// margin pixels past the pointer and flips to the other side when it would
// cross the limit.
func Place(px, py, limitX, limitY float64, size TooltipSize) (left, top float64) {
	left = px + size.Margin
	if px+size.Margin+size.Width > limitX {
		left = px - size.Margin - size.Width
	}
	top = py + size.Margin
	if py+size.Margin+size.Height > limitY {
		top = py - size.Margin - size.Height
	}
	return left, top
}

// FormatTime prints epoch seconds in the tooltip's time format.
func FormatTime(ts int64, f TimeFormat, loc *time.Location) string {
	if f == TimeFormatLocal {
		if loc == nil {
			loc = time.Local
		}
		return time.Unix(ts, 0).In(loc).Format("15:04 02.01.06")
	}
	return time.Unix(ts, 0).UTC().Format("02.01.06 15:04")
}
