package series

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/klinechart/internal/domain"
)

func sample(n int, withReal bool) domain.KlineData {
	d := domain.KlineData{}
	for i := 0; i < n; i++ {
		f := float64(i)
		d.Time = append(d.Time, 1739416440+int64(i)*60)
		d.Open = append(d.Open, 1+f)
		d.High = append(d.High, 2+f)
		d.Low = append(d.Low, 0.5+f)
		d.Close = append(d.Close, 1.5+f)
		d.Vol = append(d.Vol, 100*f)
		if withReal {
			d.RealOpen = append(d.RealOpen, 1.01+f)
			d.RealHigh = append(d.RealHigh, 2.01+f)
			d.RealLow = append(d.RealLow, 0.51+f)
			d.RealClose = append(d.RealClose, 1.51+f)
		}
	}
	return d
}

func snap(d domain.KlineData) domain.Snapshot {
	return domain.Snapshot{Success: true, Data: d}
}

func TestTransform_AlignsTime(t *testing.T) {
	for _, n := range []int{0, 1, 7, 960} {
		data := sample(n, true)
		s, err := Transform(domain.Snapshot{Success: true, Data: data})
		require.NoError(t, err)

		require.Len(t, s.Candles, n)
		require.Len(t, s.RealCandles, n)
		require.Len(t, s.Volume, n)
		for i := 0; i < n; i++ {
			assert.Equal(t, data.Time[i], s.Candles[i].Time)
			assert.Equal(t, data.Time[i], s.RealCandles[i].Time)
			assert.Equal(t, data.Time[i], s.Volume[i].Time)
		}
	}
}

func TestTransform_Values(t *testing.T) {
	s, err := Transform(snap(sample(3, true)))
	require.NoError(t, err)

	assert.Equal(t, domain.CandlePoint{Time: 1739416560, Open: 3, High: 4, Low: 2.5, Close: 3.5}, s.Candles[2])
	assert.Equal(t, domain.CandlePoint{Time: 1739416560, Open: 3.01, High: 4.01, Low: 2.51, Close: 3.51}, s.RealCandles[2])
	assert.Equal(t, domain.VolumePoint{Time: 1739416560, Value: 200}, s.Volume[2])
}

func TestTransform_NoRealColumns(t *testing.T) {
	s, err := Transform(snap(sample(4, false)))
	require.NoError(t, err)
	assert.Nil(t, s.RealCandles)
	assert.Equal(t, 4, s.Len())
}

func TestTransform_ShortColumn(t *testing.T) {
	data := sample(5, false)
	data.Vol = data.Vol[:4]

	_, err := Transform(domain.Snapshot{Success: true, Data: data})
	require.ErrorIs(t, err, domain.ErrColumnLength)
}

func TestIndex(t *testing.T) {
	s, err := Transform(snap(sample(10, false)))
	require.NoError(t, err)

	i, ok := Index(s, 1739416440+5*60)
	require.True(t, ok)
	assert.Equal(t, 5, i)

	_, ok = Index(s, 1739416441)
	assert.False(t, ok)
	_, ok = Index(s, 1)
	assert.False(t, ok)
	_, ok = Index(domain.Series{}, 1739416440)
	assert.False(t, ok)
}
