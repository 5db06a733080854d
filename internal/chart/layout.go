package chart

// TimeRange is a closed interval of epoch seconds.
type TimeRange struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// Marker is a series marker in the engine's format.
type Marker struct {
	Time     int64  `json:"time"`
	Position string `json:"position"`
	Color    string `json:"color"`
	Shape    string `json:"shape"`
	Text     string `json:"text"`
}

// AreaPoint is one row of the highlight area series.
type AreaPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// VisibleRange is the initial zoom window around the two incidents.
func (c Config) VisibleRange() TimeRange {
	return TimeRange{
		From: c.MarkerTimestamps[0] - c.VisibleRangePaddingSeconds,
		To:   c.MarkerTimestamps[1] + c.VisibleRangePaddingSeconds,
	}
}

// HighlightBand is the span of the translucent region-of-interest overlay.
func (c Config) HighlightBand() TimeRange {
	return TimeRange{
		From: c.MarkerTimestamps[0] - c.HighlightRadiusSeconds,
		To:   c.MarkerTimestamps[1] + c.HighlightRadiusSeconds,
	}
}

// Markers returns the incident markers, one per configured timestamp.
func (c Config) Markers() []Marker {
	out := make([]Marker, 0, len(c.MarkerTimestamps))
	for i, ts := range c.MarkerTimestamps {
		out = append(out, Marker{
			Time:     ts,
			Position: "aboveBar",
			Color:    c.Theme.Primary,
			Shape:    "arrowDown",
			Text:     c.MarkerLabels[i],
		})
	}
	return out
}

func (c Config) highlightData() []AreaPoint {
	band := c.HighlightBand()
	return []AreaPoint{
		{Time: band.From, Value: 1},
		{Time: band.To, Value: 1},
	}
}
