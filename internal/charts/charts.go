// package charts renders correlation heatmaps and feature histograms as images
package charts

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/desertthunder/tunescope/internal/models"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
)

// Default image sizes.
const (
	HeatmapWidth    = 7 * vg.Inch
	HeatmapHeight   = 6 * vg.Inch
	HistogramWidth  = 7 * vg.Inch
	HistogramHeight = 4.5 * vg.Inch
)

// HistogramColor is the bar fill of every histogram (#2B9A45).
var HistogramColor = color.RGBA{R: 0x2B, G: 0x9A, B: 0x45, A: 0xFF}

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to plot")

// lowerTriangle adapts a correlation matrix to [plotter.GridXYZ].
//
// Grid row r shows matrix row n-1-r so the first feature sits at the top.
// Masked and undefined cells are NaN.
type lowerTriangle struct {
	m *models.CorrelationMatrix
}

func (g lowerTriangle) Dims() (c, r int) { n := g.m.Size(); return n, n }
func (g lowerTriangle) X(c int) float64  { return float64(c) }
func (g lowerTriangle) Y(r int) float64  { return float64(r) }
func (g lowerTriangle) Min() float64     { return -1 }
func (g lowerTriangle) Max() float64     { return 1 }

func (g lowerTriangle) Z(c, r int) float64 {
	i := g.m.Size() - 1 - r
	if g.m.Masked(i, c) {
		return math.NaN()
	}
	return g.m.At(i, c)
}

// Heatmap builds an annotated lower-triangle heatmap with a PiYG diverging palette over [-1, 1].
func Heatmap(m *models.CorrelationMatrix) (*plot.Plot, error) {
	if m.Size() == 0 {
		return nil, ErrNoData
	}

	pal, err := brewer.GetPalette(brewer.TypeDiverging, "PiYG", 11)
	if err != nil {
		return nil, fmt.Errorf("failed to load palette: %w", err)
	}

	grid := lowerTriangle{m: m}
	hm := plotter.NewHeatMap(grid, pal)
	hm.Min, hm.Max = -1, 1
	hm.NaN = color.Transparent

	p := plot.New()
	p.Title.Text = "Correlation of Audio Features"
	p.Add(hm)

	n := m.Size()
	xTicks := make([]plot.Tick, n)
	yTicks := make([]plot.Tick, n)
	for i, f := range m.Features {
		xTicks[i] = plot.Tick{Value: float64(i), Label: f.Title()}
		yTicks[i] = plot.Tick{Value: float64(n - 1 - i), Label: f.Title()}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xTicks)
	p.Y.Tick.Marker = plot.ConstantTicks(yTicks)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter

	var points plotter.XYs
	var annotations []string
	for r := range n {
		for c := range n {
			z := grid.Z(c, r)
			if math.IsNaN(z) {
				continue
			}
			points = append(points, plotter.XY{X: float64(c), Y: float64(r)})
			annotations = append(annotations, fmt.Sprintf("%.2f", z))
		}
	}

	if len(points) > 0 {
		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: points, Labels: annotations})
		if err != nil {
			return nil, fmt.Errorf("failed to annotate heatmap: %w", err)
		}
		for i := range labels.TextStyle {
			labels.TextStyle[i].XAlign = text.XCenter
			labels.TextStyle[i].YAlign = text.YCenter
		}
		p.Add(labels)
	}

	return p, nil
}

// Histogram builds a bar chart of the histogram's bins.
//
// A single zero-width bin is widened slightly around its value so it stays visible.
func Histogram(h *models.Histogram) (*plot.Plot, error) {
	if h == nil {
		return nil, ErrNoData
	}

	p := plot.New()
	p.Title.Text = h.Title
	p.X.Label.Text = h.Label
	p.Y.Label.Text = "Count"

	if len(h.Bins) == 0 {
		return p, nil
	}

	bins := make([]plotter.HistogramBin, len(h.Bins))
	for i, b := range h.Bins {
		lo, hi := b.Min, b.Max
		if lo == hi {
			pad := math.Max(math.Abs(lo)*0.01, 0.005)
			lo, hi = lo-pad, hi+pad
		}
		bins[i] = plotter.HistogramBin{Min: lo, Max: hi, Weight: float64(b.Count)}
	}

	bars := &plotter.Histogram{
		Bins:      bins,
		Width:     bins[0].Max - bins[0].Min,
		FillColor: HistogramColor,
		LineStyle: plotter.DefaultLineStyle,
	}
	p.Add(bars)
	p.Y.Min = 0

	return p, nil
}

// WritePNG renders p as a PNG image of the given size.
func WritePNG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("failed to create png renderer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write png: %w", err)
	}
	return nil
}

// HeatmapPNG renders the correlation heatmap at its default size.
func HeatmapPNG(w io.Writer, m *models.CorrelationMatrix) error {
	p, err := Heatmap(m)
	if err != nil {
		return err
	}
	return WritePNG(w, p, HeatmapWidth, HeatmapHeight)
}

// HistogramPNG renders a feature histogram at its default size.
func HistogramPNG(w io.Writer, h *models.Histogram) error {
	p, err := Histogram(h)
	if err != nil {
		return err
	}
	return WritePNG(w, p, HistogramWidth, HistogramHeight)
}
