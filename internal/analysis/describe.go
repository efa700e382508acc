// Package analysis computes the exploratory statistics shown on the EDA page.
package analysis

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// Description mirrors a pandas describe() of one numeric column.
type Description struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Q25   float64 `json:"25%"`
	Q50   float64 `json:"50%"`
	Q75   float64 `json:"75%"`
	Max   float64 `json:"max"`
}

// Rows returns the statistics as label/value pairs in display order.
func (d Description) Rows() []Stat {
	return []Stat{
		{"count", float64(d.Count)},
		{"mean", d.Mean},
		{"std", d.Std},
		{"min", d.Min},
		{"25%", d.Q25},
		{"50%", d.Q50},
		{"75%", d.Q75},
		{"max", d.Max},
	}
}

// Stat is one labelled value.
type Stat struct {
	Label string
	Value float64
}

// Describe skips NaN values. With no values every statistic except Count is
// NaN; with one value Std is NaN, as the sample deviation is undefined.
func Describe(values []float64) Description {
	data := make(stats.Float64Data, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			data = append(data, v)
		}
	}
	nan := math.NaN()
	d := Description{Count: len(data), Mean: nan, Std: nan, Min: nan, Q25: nan, Q50: nan, Q75: nan, Max: nan}
	if len(data) == 0 {
		return d
	}

	d.Mean, _ = data.Mean()
	d.Min, _ = data.Min()
	d.Max, _ = data.Max()
	if len(data) > 1 {
		d.Std, _ = data.StandardDeviationSample()
	}

	sorted := append(stats.Float64Data(nil), data...)
	sort.Float64s(sorted)
	d.Q25 = quantile(sorted, 0.25)
	d.Q50 = quantile(sorted, 0.50)
	d.Q75 = quantile(sorted, 0.75)
	return d
}

// quantile interpolates linearly between closest ranks, the default used by
// pandas and numpy. sorted must be ascending and non-empty.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
