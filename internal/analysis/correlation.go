package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/crimescope/internal/dataset"
	"github.com/YuminosukeSato/crimescope/internal/features"
)

// CorrelationMatrix is a symmetric Pearson matrix over Columns.
type CorrelationMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// Rounded returns a copy with every value rounded to decimals places.
func (m *CorrelationMatrix) Rounded(decimals int) *CorrelationMatrix {
	p := math.Pow(10, float64(decimals))
	out := &CorrelationMatrix{Columns: m.Columns, Values: make([][]float64, len(m.Values))}
	for i, row := range m.Values {
		out.Values[i] = make([]float64, len(row))
		for j, v := range row {
			out.Values[i][j] = math.Round(v*p) / p
		}
	}
	return out
}

// Correlation computes pairwise Pearson correlations. Each pair uses the rows
// where both values are present; fewer than two such rows or a constant
// column gives NaN. Columns absent from frame are skipped.
func Correlation(frame *dataset.Frame, cols []string) *CorrelationMatrix {
	var names []string
	var data [][]float64
	for _, c := range cols {
		if v, ok := frame.Numeric(c); ok {
			names = append(names, c)
			data = append(data, v)
		}
	}

	m := &CorrelationMatrix{Columns: names, Values: make([][]float64, len(names))}
	for i := range names {
		m.Values[i] = make([]float64, len(names))
	}
	for i := range names {
		for j := i; j < len(names); j++ {
			r := pairwisePearson(data[i], data[j])
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m
}

func pairwisePearson(a, b []float64) float64 {
	var x, y []float64
	for k := range a {
		if math.IsNaN(a[k]) || math.IsNaN(b[k]) {
			continue
		}
		x = append(x, a[k])
		y = append(y, b[k])
	}
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

// CorrelationPreset names one of the two correlation views.
type CorrelationPreset string

const (
	// PresetEconomicCrime correlates GDP components and population with the
	// victim counts.
	PresetEconomicCrime CorrelationPreset = "economic"
	// PresetGDPRates correlates per-capita GDP with the per-100k rates.
	PresetGDPRates CorrelationPreset = "rates"
)

// Title is the chart heading for the preset.
func (p CorrelationPreset) Title() string {
	if p == PresetGDPRates {
		return "GDP per capita × crime rates (per 100k inhabitants)"
	}
	return "Economic indicators × crime"
}

// PresetColumns lists the columns correlated by preset.
func PresetColumns(p CorrelationPreset) []string {
	if p == PresetGDPRates {
		var cols []string
		for _, c := range dataset.CrimeColumns {
			cols = append(cols, features.RateColumn(c))
		}
		return append(cols, dataset.ColGDPPerCapita)
	}
	cols := append([]string(nil), dataset.EconomicColumns...)
	cols = append(cols, dataset.ColHabitants)
	return append(cols, dataset.CrimeColumns...)
}
