package core

import (
	"encoding/json"
	"math"
	"time"
)

// Series is a time-indexed numeric series with explicit missing values.
// Every transform in the analysis pipeline consumes and produces Series of
// equal length so that downstream consumers can detect gaps by index.
// Timestamps are strictly increasing; there is one value slot per timestamp.
//
// Missing is a first-class state, not a NaN sentinel: arithmetic on a missing
// entry yields a missing entry, never a silent zero. Setting a non-finite
// value marks the entry missing, so NaN/Inf cannot leak through a Series.
type Series struct {
	times  []time.Time
	values []float64
	valid  []bool
}

// NewSeries creates a series over the given timestamps with every entry
// missing.
func NewSeries(times []time.Time) *Series {
	ts := make([]time.Time, len(times))
	copy(ts, times)
	return &Series{
		times:  ts,
		values: make([]float64, len(times)),
		valid:  make([]bool, len(times)),
	}
}

// SeriesFromValues creates a series with one valid value per timestamp.
// times and values must have equal length.
func SeriesFromValues(times []time.Time, values []float64) *Series {
	s := NewSeries(times)
	for i, v := range values {
		s.Set(i, v)
	}
	return s
}

// Len returns the number of entries, missing ones included.
func (s *Series) Len() int {
	return len(s.times)
}

// Time returns the timestamp at index i.
func (s *Series) Time(i int) time.Time {
	return s.times[i]
}

// At returns the value at index i and whether it is present.
func (s *Series) At(i int) (float64, bool) {
	if !s.valid[i] {
		return 0, false
	}
	return s.values[i], true
}

// Valid reports whether the entry at index i is present.
func (s *Series) Valid(i int) bool {
	return s.valid[i]
}

// Set stores a value at index i. Non-finite values mark the entry missing.
func (s *Series) Set(i int, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		s.values[i] = 0
		s.valid[i] = false
		return
	}
	s.values[i] = v
	s.valid[i] = true
}

// Clear marks the entry at index i missing.
func (s *Series) Clear(i int) {
	s.values[i] = 0
	s.valid[i] = false
}

// Times returns a copy of the timestamps.
func (s *Series) Times() []time.Time {
	ts := make([]time.Time, len(s.times))
	copy(ts, s.times)
	return ts
}

// ValidCount returns the number of present entries.
func (s *Series) ValidCount() int {
	n := 0
	for _, ok := range s.valid {
		if ok {
			n++
		}
	}
	return n
}

// Mean returns the mean over the present entries. The second return value is
// false when the series has no present entries.
func (s *Series) Mean() (float64, bool) {
	var sum float64
	n := 0
	for i, ok := range s.valid {
		if ok {
			sum += s.values[i]
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Clone returns an independent copy of the series.
func (s *Series) Clone() *Series {
	c := NewSeries(s.times)
	copy(c.values, s.values)
	copy(c.valid, s.valid)
	return c
}

// seriesJSON is the wire representation: missing entries encode as null.
type seriesJSON struct {
	Times  []time.Time `json:"times"`
	Values []*float64  `json:"values"`
}

// MarshalJSON encodes the series with null for missing entries.
func (s *Series) MarshalJSON() ([]byte, error) {
	out := seriesJSON{
		Times:  s.times,
		Values: make([]*float64, len(s.values)),
	}
	for i := range s.values {
		if s.valid[i] {
			v := s.values[i]
			out.Values[i] = &v
		}
	}
	return json.Marshal(out)
}
