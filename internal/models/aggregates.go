package models

import (
	"encoding/json"
	"math"
)

// CorrelationMatrix is a square Pearson correlation matrix over Features.
//
// Values[i][j] is NaN when the correlation is undefined (fewer than two rows or a constant column).
// The diagonal is always 1.0.
type CorrelationMatrix struct {
	Features []Feature
	Values   [][]float64
}

// Size returns the number of features on each axis.
func (m *CorrelationMatrix) Size() int {
	if m == nil {
		return 0
	}
	return len(m.Features)
}

// At returns the correlation between features i and j.
func (m *CorrelationMatrix) At(i, j int) float64 {
	return m.Values[i][j]
}

// Masked reports whether cell (i, j) lies in the strict upper triangle and is hidden on display.
func (m *CorrelationMatrix) Masked(i, j int) bool {
	return j > i
}

// Lookup returns the correlation between two named features.
func (m *CorrelationMatrix) Lookup(a, b Feature) (float64, bool) {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 {
		return math.NaN(), false
	}
	return m.Values[i][j], true
}

func (m *CorrelationMatrix) index(f Feature) int {
	for i, known := range m.Features {
		if known == f {
			return i
		}
	}
	return -1
}

// MarshalJSON encodes undefined (NaN) cells as null.
func (m *CorrelationMatrix) MarshalJSON() ([]byte, error) {
	values := make([][]*float64, len(m.Values))
	for i, row := range m.Values {
		values[i] = make([]*float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			v := v
			values[i][j] = &v
		}
	}

	return json.Marshal(struct {
		Features []Feature    `json:"features"`
		Values   [][]*float64 `json:"values"`
	}{m.Features, values})
}

// Bin is one histogram bucket covering [Min, Max). The last bin of a histogram is closed on the right.
type Bin struct {
	Min    float64  `json:"min"`
	Max    float64  `json:"max"`
	Count  int      `json:"count"`
	Tracks []string `json:"tracks"` // names of the tracks in this bin
}

// Histogram is the binned distribution of one feature across a table.
type Histogram struct {
	Feature Feature   `json:"feature"`
	Title   string    `json:"title"`
	Label   string    `json:"label"` // x-axis label
	Min     float64   `json:"min"`
	Max     float64   `json:"max"`
	Width   float64   `json:"width"` // 0 for a single-value distribution
	Bins    []Bin     `json:"bins"`
	Values  []float64 `json:"values"` // per-row values, in row order
	Labels  []string  `json:"labels"` // per-row hover labels (track names)
}

// Total returns the number of values counted across all bins.
func (h *Histogram) Total() int {
	total := 0
	for _, b := range h.Bins {
		total += b.Count
	}
	return total
}

// MaxCount returns the largest bin count.
func (h *Histogram) MaxCount() int {
	highest := 0
	for _, b := range h.Bins {
		highest = max(highest, b.Count)
	}
	return highest
}

// HistogramSet maps each analysed feature to its histogram.
type HistogramSet map[Feature]*Histogram

// Get returns the histogram for f.
func (s HistogramSet) Get(f Feature) (*Histogram, bool) {
	h, ok := s[f]
	return h, ok && h != nil
}
