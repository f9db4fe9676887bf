package tasks

import (
	"fmt"
	"math"

	"github.com/desertthunder/tunescope/internal/models"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// HistogramBins is the number of equal-width bins per feature histogram.
const HistogramBins = 20

// BuildCorrelation computes Pearson correlation between every pair of [models.AnalysisFeatures].
//
// The lower triangle is computed and mirrored, so the matrix is exactly symmetric.
// Pairs are NaN when the table has fewer than two rows or either column is constant.
func BuildCorrelation(t *models.Table) *models.CorrelationMatrix {
	features := append([]models.Feature(nil), models.AnalysisFeatures...)
	n := len(features)

	columns := make([][]float64, n)
	constant := make([]bool, n)
	for i, f := range features {
		columns[i] = t.Column(f)
		constant[i] = isConstant(columns[i])
	}

	values := make([][]float64, n)
	for i := range values {
		values[i] = make([]float64, n)
	}

	for i := range n {
		values[i][i] = 1
		for j := range i {
			v := math.NaN()
			if t.Len() >= 2 && !constant[i] && !constant[j] {
				v = clampUnit(stat.Correlation(columns[i], columns[j], nil))
			}
			values[i][j] = v
			values[j][i] = v
		}
	}

	return &models.CorrelationMatrix{Features: features, Values: values}
}

// BuildHistograms bins every analysis feature of the table into [HistogramBins] bins.
func BuildHistograms(t *models.Table) models.HistogramSet {
	set := make(models.HistogramSet, len(models.AnalysisFeatures))
	for _, f := range models.AnalysisFeatures {
		set[f] = BuildHistogram(t, f, HistogramBins)
	}
	return set
}

// HistogramTitle returns the display title for a feature histogram.
func HistogramTitle(f models.Feature) string {
	return fmt.Sprintf("Distribution of %s in Top 50 Songs", f.Title())
}

// BuildHistogram partitions the values of f into nbins equal-width bins over their observed range.
//
// The last bin is closed on the right. When every value is equal the histogram has a single
// zero-width bin holding all of them. An empty table yields no bins.
func BuildHistogram(t *models.Table, f models.Feature, nbins int) *models.Histogram {
	if nbins < 1 {
		nbins = HistogramBins
	}

	values := t.Column(f)
	labels := t.TrackNames()
	h := &models.Histogram{
		Feature: f,
		Title:   HistogramTitle(f),
		Label:   f.Title(),
		Values:  values,
		Labels:  labels,
		Bins:    []models.Bin{},
	}

	if len(values) == 0 {
		return h
	}

	lo, hi := floats.Min(values), floats.Max(values)
	h.Min, h.Max = lo, hi

	if lo == hi {
		h.Bins = append(h.Bins, models.Bin{
			Min:    lo,
			Max:    hi,
			Count:  len(values),
			Tracks: append([]string(nil), labels...),
		})
		return h
	}

	edges := floats.Span(make([]float64, nbins+1), lo, hi)
	edges[0], edges[nbins] = lo, hi
	h.Width = (hi - lo) / float64(nbins)

	bins := make([]models.Bin, nbins)
	for i := range bins {
		bins[i] = models.Bin{Min: edges[i], Max: edges[i+1], Tracks: []string{}}
	}

	for k, v := range values {
		idx := binIndex(edges, v, h.Width)
		bins[idx].Count++
		bins[idx].Tracks = append(bins[idx].Tracks, labels[k])
	}

	h.Bins = bins
	return h
}

// binIndex locates v among edges, correcting the estimate from width against the actual edge values.
func binIndex(edges []float64, v, width float64) int {
	last := len(edges) - 2
	idx := int((v - edges[0]) / width)
	idx = max(0, min(idx, last))

	for idx > 0 && v < edges[idx] {
		idx--
	}
	for idx < last && v >= edges[idx+1] {
		idx++
	}
	return idx
}

func isConstant(values []float64) bool {
	if len(values) == 0 {
		return true
	}
	return floats.Min(values) == floats.Max(values)
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	return math.Max(-1, math.Min(1, v))
}
