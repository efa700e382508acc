package analysis

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/crimescope/internal/dataset"
	"github.com/YuminosukeSato/crimescope/internal/features"
)

// Group is one aggregated bar or point.
type Group struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// SumBy sums valueCol per distinct keyCol and sorts descending by sum. NaN
// values count as zero.
func SumBy(frame *dataset.Frame, keyCol, valueCol string) []Group {
	keys, ok := frame.Text(keyCol)
	values, okV := frame.Numeric(valueCol)
	if !ok || !okV {
		return nil
	}
	sums := make(map[string]float64)
	var order []string
	for i, k := range keys {
		if _, seen := sums[k]; !seen {
			order = append(order, k)
			sums[k] = 0
		}
		if !math.IsNaN(values[i]) {
			sums[k] += values[i]
		}
	}
	out := make([]Group, len(order))
	for i, k := range order {
		out[i] = Group{Key: k, Value: sums[k]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

// YearPoint is one year of a temporal series.
type YearPoint struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// SumByYear sums col per year, ordered by year.
func SumByYear(frame *dataset.Frame, col string) []YearPoint {
	years, ok := frame.Numeric(dataset.ColYear)
	values, okV := frame.Numeric(col)
	if !ok || !okV {
		return nil
	}
	sums := make(map[int]float64)
	for i, y := range years {
		if math.IsNaN(y) {
			continue
		}
		year := int(y)
		if _, seen := sums[year]; !seen {
			sums[year] = 0
		}
		if !math.IsNaN(values[i]) {
			sums[year] += values[i]
		}
	}
	out := make([]YearPoint, 0, len(sums))
	for y, v := range sums {
		out = append(out, YearPoint{Year: y, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// MeanRates averages every per-100k rate column, skipping NaN, and sorts
// ascending.
func MeanRates(frame *dataset.Frame) []Group {
	var out []Group
	for _, col := range features.RateColumns(frame) {
		values, _ := frame.Numeric(col)
		d := Describe(values)
		if d.Count == 0 {
			continue
		}
		out = append(out, Group{Key: col, Value: d.Mean})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}
