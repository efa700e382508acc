package charts

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/crimescope/pkg/errors"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func assertPNG(t *testing.T, b []byte, err error) {
	t.Helper()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, pngMagic), "not a PNG")
}

func TestHistogram(t *testing.T) {
	b, err := Histogram(Options{Title: "victims", XLabel: "vitimas_totais"},
		[]float64{1, 2, 2, 3, 3, 3, math.NaN(), 10}, 5)
	assertPNG(t, b, err)
}

func TestBars(t *testing.T) {
	tests := []struct {
		name       string
		horizontal bool
		highlight  int
		format     string
	}{
		{"vertical", false, -1, ""},
		{"horizontal", true, -1, ""},
		{"highlight with labels", false, 1, "%.4f"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Bars(Options{Title: tt.name, ValueFormat: tt.format},
				[]string{"DF", "GO", "MG"}, []float64{5665, 1977, 234}, tt.horizontal, tt.highlight)
			assertPNG(t, b, err)
		})
	}
}

func TestLine(t *testing.T) {
	b, err := Line(Options{Title: "by year"}, []float64{2019, 2020, 2021}, []float64{2617, 2612, 2647})
	assertPNG(t, b, err)
}

func TestHeatmap(t *testing.T) {
	b, err := Heatmap(Options{Title: "correlation"}, []string{"a", "b", "c"}, [][]float64{
		{1, 0.5, -0.2},
		{0.5, 1, math.NaN()},
		{-0.2, math.NaN(), 1},
	})
	assertPNG(t, b, err)
}

func TestChartErrors(t *testing.T) {
	_, err := Histogram(Options{}, []float64{math.NaN()}, 10)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))

	_, err = Bars(Options{}, []string{"a"}, []float64{1, 2}, false, -1)
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	_, err = Line(Options{}, nil, nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))

	_, err = Heatmap(Options{}, []string{"a", "b"}, [][]float64{{1, 0}})
	assert.True(t, errors.As(err, &dimErr))
}
