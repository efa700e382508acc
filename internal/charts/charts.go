// Package charts renders the dashboard figures as PNG images with gonum/plot.
package charts

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/crimescope/pkg/errors"
)

// Options are shared by every chart.
type Options struct {
	Title  string
	XLabel string
	YLabel string
	Width  vg.Length
	Height vg.Length
	// ValueFormat, when set, prints each bar's value with this verb.
	ValueFormat string
}

var (
	primary   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	secondary = color.RGBA{R: 174, G: 199, B: 232, A: 255}
)

func newPlot(opts Options) *plot.Plot {
	p := plot.New()
	p.Title.Text = opts.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	return p
}

func render(p *plot.Plot, opts Options) ([]byte, error) {
	w, h := opts.Width, opts.Height
	if w == 0 {
		w = 8 * vg.Inch
	}
	if h == 0 {
		h = 4 * vg.Inch
	}
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, errors.Wrap(err, "png canvas")
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	return buf.Bytes(), nil
}

func finite(values []float64) plotter.Values {
	out := make(plotter.Values, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// Histogram bins the finite values.
func Histogram(opts Options, values []float64, bins int) ([]byte, error) {
	vals := finite(values)
	if len(vals) == 0 {
		return nil, errors.NewModelError("charts.Histogram", "no finite values", errors.ErrEmptyData)
	}
	if bins <= 0 {
		bins = 30
	}
	p := newPlot(opts)
	h, err := plotter.NewHist(vals, bins)
	if err != nil {
		return nil, errors.Wrap(err, "histogram")
	}
	h.FillColor = primary
	h.LineStyle.Width = vg.Length(0)
	p.Add(h)
	if opts.YLabel == "" {
		p.Y.Label.Text = "count"
	}
	return render(p, opts)
}

// Bars draws one bar per label. Horizontal bars list labels on the Y axis.
// highlight, when in range, is drawn in the secondary color.
func Bars(opts Options, labels []string, values []float64, horizontal bool, highlight int) ([]byte, error) {
	if len(values) == 0 {
		return nil, errors.NewModelError("charts.Bars", "no bars", errors.ErrEmptyData)
	}
	if len(labels) != len(values) {
		return nil, errors.NewDimensionError("charts.Bars", len(values), len(labels), 0)
	}
	p := newPlot(opts)

	vals := make(plotter.Values, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		vals[i] = v
	}

	width := vg.Points(20)
	bars, err := plotter.NewBarChart(vals, width)
	if err != nil {
		return nil, errors.Wrap(err, "bar chart")
	}
	bars.Color = primary
	bars.LineStyle.Width = vg.Length(0)
	bars.Horizontal = horizontal
	p.Add(bars)

	if highlight >= 0 && highlight < len(vals) {
		hl := make(plotter.Values, len(vals))
		hl[highlight] = vals[highlight]
		over, err := plotter.NewBarChart(hl, width)
		if err != nil {
			return nil, errors.Wrap(err, "highlight bar")
		}
		over.Color = secondary
		over.LineStyle.Width = vg.Length(0)
		over.Horizontal = horizontal
		p.Add(over)
	}

	if horizontal {
		p.NominalY(labels...)
	} else {
		p.NominalX(labels...)
	}

	if opts.ValueFormat != "" {
		xys := make(plotter.XYs, len(vals))
		text := make([]string, len(vals))
		for i, v := range vals {
			if horizontal {
				xys[i] = plotter.XY{X: v, Y: float64(i)}
			} else {
				xys[i] = plotter.XY{X: float64(i), Y: v}
			}
			text[i] = fmt.Sprintf(opts.ValueFormat, v)
		}
		lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: text})
		if err != nil {
			return nil, errors.Wrap(err, "bar labels")
		}
		for i := range lbl.TextStyle {
			lbl.TextStyle[i].XAlign = draw.XCenter
		}
		p.Add(lbl)
	}
	return render(p, opts)
}

// Line draws y against x with point markers.
func Line(opts Options, xs, ys []float64) ([]byte, error) {
	if len(xs) == 0 {
		return nil, errors.NewModelError("charts.Line", "no points", errors.ErrEmptyData)
	}
	if len(xs) != len(ys) {
		return nil, errors.NewDimensionError("charts.Line", len(xs), len(ys), 0)
	}
	pts := make(plotter.XYs, 0, len(xs))
	for i := range xs {
		if math.IsNaN(ys[i]) || math.IsNaN(xs[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[i], Y: ys[i]})
	}
	if len(pts) == 0 {
		return nil, errors.NewModelError("charts.Line", "no finite points", errors.ErrEmptyData)
	}
	p := newPlot(opts)
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, errors.Wrap(err, "line")
	}
	line.Color = primary
	line.Width = vg.Points(2)
	points.GlyphStyle.Color = primary
	p.Add(plotter.NewGrid(), line, points)
	return render(p, opts)
}

// grid adapts a square matrix to plotter.GridXYZ. Row 0 is drawn at the top.
type grid struct {
	values [][]float64
}

func (g grid) Dims() (c, r int)   { return len(g.values), len(g.values) }
func (g grid) Z(c, r int) float64 { return g.values[len(g.values)-1-r][c] }
func (g grid) X(c int) float64    { return float64(c) }
func (g grid) Y(r int) float64    { return float64(r) }

// Heatmap draws a correlation matrix on a blue-red scale from -1 to 1 and
// prints each cell's value.
func Heatmap(opts Options, names []string, values [][]float64) ([]byte, error) {
	n := len(names)
	if n == 0 {
		return nil, errors.NewModelError("charts.Heatmap", "no columns", errors.ErrEmptyData)
	}
	if len(values) != n {
		return nil, errors.NewDimensionError("charts.Heatmap", n, len(values), 0)
	}
	for _, row := range values {
		if len(row) != n {
			return nil, errors.NewDimensionError("charts.Heatmap", n, len(row), 1)
		}
	}

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)
	hm := plotter.NewHeatMap(grid{values: values}, cmap.Palette(255))
	hm.Min, hm.Max = -1, 1
	hm.NaN = color.Gray{Y: 200}

	p := newPlot(opts)
	p.Add(hm)

	xys := make(plotter.XYs, 0, n*n)
	text := make([]string, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			xys = append(xys, plotter.XY{X: float64(j), Y: float64(n - 1 - i)})
			text = append(text, fmt.Sprintf("%.2f", values[i][j]))
		}
	}
	lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: text})
	if err != nil {
		return nil, errors.Wrap(err, "cell labels")
	}
	for i := range lbl.TextStyle {
		lbl.TextStyle[i].XAlign = draw.XCenter
		lbl.TextStyle[i].YAlign = draw.YCenter
		lbl.TextStyle[i].Font.Size = vg.Points(7)
	}
	p.Add(lbl)

	yNames := make([]string, n)
	for i, name := range names {
		yNames[n-1-i] = name
	}
	p.NominalX(names...)
	p.NominalY(yNames...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight

	if opts.Width == 0 {
		opts.Width = 10 * vg.Inch
	}
	if opts.Height == 0 {
		opts.Height = 9 * vg.Inch
	}
	return render(p, opts)
}
