package domain

// CandlePoint is one row of a candlestick series. Field names follow the
// chart engine's row format.
type CandlePoint struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// VolumePoint is one row of the volume histogram.
type VolumePoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// Series is the row-oriented form of a snapshot. RealCandles is nil when the
// snapshot carries no real price columns.
type Series struct {
	Candles     []CandlePoint `json:"candles"`
	RealCandles []CandlePoint `json:"realCandles,omitempty"`
	Volume      []VolumePoint `json:"volume"`
}

// Len returns the number of rows.
func (s Series) Len() int { return len(s.Candles) }
