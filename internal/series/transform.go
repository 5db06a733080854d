// Package series turns the column-oriented kline payload into the
// row-oriented series the chart engine consumes.
package series

import (
	"fmt"
	"sort"

	"github.com/alanyoungcy/klinechart/internal/domain"
)

// Transform zips the snapshot columns index by index. Every output row at
// index i carries Data.Time[i]. Times pass through as raw epoch seconds.
func Transform(snap domain.Snapshot) (domain.Series, error) {
	data := snap.Data
	if err := data.Validate(); err != nil {
		return domain.Series{}, fmt.Errorf("series: transform: %w", err)
	}

	n := data.Len()
	out := domain.Series{
		Candles: make([]domain.CandlePoint, n),
		Volume:  make([]domain.VolumePoint, n),
	}
	if data.HasReal() {
		out.RealCandles = make([]domain.CandlePoint, n)
	}

	for i := 0; i < n; i++ {
		t := data.Time[i]
		out.Candles[i] = domain.CandlePoint{
			Time:  t,
			Open:  data.Open[i],
			High:  data.High[i],
			Low:   data.Low[i],
			Close: data.Close[i],
		}
		if out.RealCandles != nil {
			out.RealCandles[i] = domain.CandlePoint{
				Time:  t,
				Open:  data.RealOpen[i],
				High:  data.RealHigh[i],
				Low:   data.RealLow[i],
				Close: data.RealClose[i],
			}
		}
		out.Volume[i] = domain.VolumePoint{Time: t, Value: data.Vol[i]}
	}
	return out, nil
}

// Index finds the row whose time equals t. Rows are sorted by time, which
// Transform guarantees.
func Index(s domain.Series, t int64) (int, bool) {
	i := sort.Search(len(s.Candles), func(i int) bool { return s.Candles[i].Time >= t })
	if i < len(s.Candles) && s.Candles[i].Time == t {
		return i, true
	}
	return 0, false
}
