package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{
  "success": true,
  "code": 0,
  "data": {
    "time": [1739416440, 1739416500, 1739416560],
    "open": [0.2841, 0.2852, 0.2849],
    "close": [0.2852, 0.2849, 0.2911],
    "high": [0.2855, 0.2861, 0.2923],
    "low": [0.2838, 0.2841, 0.2847],
    "vol": [120394, 98211, 404112],
    "amount": [34212.5, 27981.2, 117220.9],
    "realOpen": [0.2842, 0.2851, 0.285],
    "realClose": [0.2851, 0.285, 0.291],
    "realHigh": [0.2856, 0.286, 0.2922],
    "realLow": [0.2839, 0.2842, 0.2848]
  }
}`

func TestDecodeSnapshot(t *testing.T) {
	s, err := DecodeSnapshot([]byte(okBody))
	require.NoError(t, err)

	assert.True(t, s.Success)
	assert.Equal(t, 0, s.Code)
	assert.Equal(t, 3, s.Data.Len())
	assert.True(t, s.Data.HasReal())
	assert.Equal(t, []byte(okBody), s.Raw)
	require.NoError(t, s.CheckEnvelope())
	require.NoError(t, s.Data.Validate())
}

func TestCheckEnvelope(t *testing.T) {
	cases := []struct {
		name    string
		success bool
		code    int
	}{
		{"not successful", false, 0},
		{"non-zero code", true, 600},
		{"both wrong", false, 1002},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Snapshot{Success: tc.success, Code: tc.code}.CheckEnvelope()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrAPIContract))
		})
	}
}

func TestValidate_ColumnLength(t *testing.T) {
	d := KlineData{
		Open:  []float64{1, 2},
		High:  []float64{1, 2},
		Low:   []float64{1},
		Close: []float64{1, 2},
		Vol:   []float64{5, 6},
		Time:  []int64{60, 120},
	}
	err := d.Validate()
	require.ErrorIs(t, err, ErrColumnLength)
	assert.Contains(t, err.Error(), "low")
}

func TestValidate_PartialRealColumns(t *testing.T) {
	d := KlineData{
		Open:     []float64{1},
		High:     []float64{1},
		Low:      []float64{1},
		Close:    []float64{1},
		Vol:      []float64{1},
		RealOpen: []float64{1},
		Time:     []int64{60},
	}
	err := d.Validate()
	require.ErrorIs(t, err, ErrColumnLength)
	assert.Contains(t, err.Error(), "realHigh")
}

func TestValidate_TimeOrder(t *testing.T) {
	d := KlineData{
		Open:  []float64{1, 2, 3},
		High:  []float64{1, 2, 3},
		Low:   []float64{1, 2, 3},
		Close: []float64{1, 2, 3},
		Vol:   []float64{1, 2, 3},
		Time:  []int64{60, 120, 120},
	}
	require.ErrorIs(t, d.Validate(), ErrTimeOrder)
}

func TestValidate_Empty(t *testing.T) {
	require.NoError(t, KlineData{}.Validate())
}
