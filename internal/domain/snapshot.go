package domain

import (
	"encoding/json"
	"fmt"
)

// Snapshot is the kline response envelope exactly as the exchange returned it.
// Raw holds the undecoded body; it is what gets persisted.
type Snapshot struct {
	Success bool      `json:"success"`
	Code    int       `json:"code"`
	Data    KlineData `json:"data"`

	Raw []byte `json:"-"`
}

// KlineData is the column-oriented kline payload. Index i of every column
// refers to the same time bucket.
type KlineData struct {
	Open      []float64 `json:"open"`
	High      []float64 `json:"high"`
	Low       []float64 `json:"low"`
	Close     []float64 `json:"close"`
	RealOpen  []float64 `json:"realOpen,omitempty"`
	RealHigh  []float64 `json:"realHigh,omitempty"`
	RealLow   []float64 `json:"realLow,omitempty"`
	RealClose []float64 `json:"realClose,omitempty"`
	Vol       []float64 `json:"vol"`
	Amount    []float64 `json:"amount,omitempty"`
	Time      []int64   `json:"time"`
}

// DecodeSnapshot parses a raw kline body. It does not validate the envelope
// or the columns; see CheckEnvelope and KlineData.Validate.
func DecodeSnapshot(raw []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return Snapshot{}, fmt.Errorf("domain: decode snapshot: %w", err)
	}
	s.Raw = raw
	return s, nil
}

// CheckEnvelope reports ErrAPIContract unless the body carries success=true
// and code=0.
func (s Snapshot) CheckEnvelope() error {
	if !s.Success || s.Code != 0 {
		return fmt.Errorf("%w: success=%t code=%d", ErrAPIContract, s.Success, s.Code)
	}
	return nil
}

// Len returns the number of time buckets.
func (d KlineData) Len() int { return len(d.Time) }

// HasReal reports whether any of the "real" price columns is present.
func (d KlineData) HasReal() bool {
	return d.RealOpen != nil || d.RealHigh != nil || d.RealLow != nil || d.RealClose != nil
}

// Validate checks that every column has the length of the time column and
// that time is strictly increasing. The real price columns are all-or-none;
// amount is optional.
func (d KlineData) Validate() error {
	n := d.Len()

	required := []column{
		{"open", d.Open},
		{"high", d.High},
		{"low", d.Low},
		{"close", d.Close},
		{"vol", d.Vol},
	}
	if d.HasReal() {
		required = append(required,
			column{"realOpen", d.RealOpen},
			column{"realHigh", d.RealHigh},
			column{"realLow", d.RealLow},
			column{"realClose", d.RealClose},
		)
	}
	for _, c := range required {
		if len(c.values) != n {
			return fmt.Errorf("%w: %s has %d values, time has %d", ErrColumnLength, c.name, len(c.values), n)
		}
	}
	if d.Amount != nil && len(d.Amount) != n {
		return fmt.Errorf("%w: amount has %d values, time has %d", ErrColumnLength, len(d.Amount), n)
	}

	for i := 1; i < n; i++ {
		if d.Time[i] <= d.Time[i-1] {
			return fmt.Errorf("%w: time[%d]=%d after time[%d]=%d", ErrTimeOrder, i, d.Time[i], i-1, d.Time[i-1])
		}
	}
	return nil
}

type column struct {
	name   string
	values []float64
}
