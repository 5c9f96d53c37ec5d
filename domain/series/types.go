package series

import (
	"ratewatch/domain/core"
)

// Bucket identifies a geographic count bucket (a simplified postcode: the
// trailing two characters of the full postcode dropped, spaces removed, so
// co-located addresses share a label).
type Bucket string

// String returns the string representation
func (b Bucket) String() string {
	return string(b)
}

// Trace is a rolling rate estimate paired with the times the estimates are
// for. Times ascend; the first window of the source series carries no
// estimate, so a Trace is shorter than the series it came from.
type Trace struct {
	Times []float64 `json:"times"`
	Rates []float64 `json:"rates"`
}

// Len returns the number of rate/time pairs
func (t Trace) Len() int {
	return len(t.Rates)
}

// Validate checks the pairing invariant
func (t Trace) Validate() error {
	if len(t.Times) != len(t.Rates) {
		return core.NewShapeMismatchError("trace times vs rates", len(t.Times), len(t.Rates))
	}
	return nil
}

// CountMatrix is a batch of monthly count series: one row per bucket, one
// column per month of the extraction period. Gap months are zero-filled by
// the producer, so every row is a complete series.
type CountMatrix struct {
	Buckets     []Bucket    `json:"buckets"`
	Counts      [][]float64 `json:"counts"`
	PeriodStart string      `json:"period_start"` // YYYY-MM-DD
	PeriodEnd   string      `json:"period_end"`   // YYYY-MM-DD
}

// Validate checks the matrix is rectangular and labeled consistently
func (m *CountMatrix) Validate() error {
	if len(m.Buckets) != len(m.Counts) {
		return core.NewShapeMismatchError("matrix buckets vs rows", len(m.Buckets), len(m.Counts))
	}
	if len(m.Counts) == 0 {
		return nil
	}
	width := len(m.Counts[0])
	for i, row := range m.Counts {
		if len(row) != width {
			return core.NewShapeMismatchError("matrix row width", width, len(m.Counts[i]))
		}
	}
	return nil
}

// Months returns the number of monthly time steps per row
func (m *CountMatrix) Months() int {
	if len(m.Counts) == 0 {
		return 0
	}
	return len(m.Counts[0])
}

// Row returns the count series for a bucket
func (m *CountMatrix) Row(b Bucket) ([]float64, bool) {
	for i, label := range m.Buckets {
		if label == b {
			return m.Counts[i], true
		}
	}
	return nil, false
}
