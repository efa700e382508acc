// Package features derives model inputs and per-capita rates from a
// dataset.Frame.
package features

import (
	"math"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/crimescope/internal/dataset"
	"github.com/YuminosukeSato/crimescope/pkg/errors"
	"github.com/YuminosukeSato/crimescope/preprocessing"
)

// RateColumn names the per-100k rate column derived from a crime column.
func RateColumn(crime string) string {
	return crime + dataset.RateSuffix
}

// AddRatesPer100k adds <crime>_por100mil = crime / Total_Habitantes * 100000
// for every crime column present. Nothing is added without a population
// column. Zero or missing population yields NaN.
func AddRatesPer100k(frame *dataset.Frame) error {
	habitants, ok := frame.Numeric(dataset.ColHabitants)
	if !ok {
		return nil
	}
	for _, crime := range dataset.CrimeColumns {
		counts, ok := frame.Numeric(crime)
		if !ok {
			continue
		}
		rates := make([]float64, len(counts))
		for i, c := range counts {
			if habitants[i] == 0 || math.IsNaN(habitants[i]) {
				rates[i] = math.NaN()
				continue
			}
			rates[i] = c / habitants[i] * 100000
		}
		if err := frame.SetNumeric(RateColumn(crime), rates); err != nil {
			return err
		}
	}
	return nil
}

// RateColumns lists the rate columns present in frame, in crime order.
func RateColumns(frame *dataset.Frame) []string {
	var out []string
	for _, crime := range dataset.CrimeColumns {
		if name := RateColumn(crime); frame.HasColumn(name) {
			out = append(out, name)
		}
	}
	return out
}

// FeatureSelector picks the model input columns.
type FeatureSelector struct {
	Features []string
}

// NewFeatureSelector returns a selector over features, or over
// dataset.DefaultFeatures when none are given.
func NewFeatureSelector(features ...string) *FeatureSelector {
	if len(features) == 0 {
		features = append([]string(nil), dataset.DefaultFeatures...)
	}
	return &FeatureSelector{Features: features}
}

// Matrix stacks the selected columns into an n×len(Features) matrix.
func (s *FeatureSelector) Matrix(frame *dataset.Frame) (*mat.Dense, error) {
	var missing []string
	cols := make([][]float64, len(s.Features))
	for j, name := range s.Features {
		v, ok := frame.Numeric(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		cols[j] = v
	}
	if len(missing) > 0 {
		return nil, errors.NewDatasetError(frame.Source(), missing, nil)
	}
	n := frame.Len()
	if n == 0 {
		return nil, errors.NewDatasetError(frame.Source(), nil, errors.ErrEmptyData)
	}
	X := mat.NewDense(n, len(s.Features), nil)
	for j, col := range cols {
		for i, v := range col {
			X.Set(i, j, v)
		}
	}
	return X, nil
}

// Prepared is the modeling view of a frame.
type Prepared struct {
	X        *mat.Dense
	Y        *mat.Dense
	Features []string
	Target   string
	// Imputer holds the fitted feature medians.
	Imputer *preprocessing.MedianImputer
}

// PrepareForModeling imputes missing feature and target values with column
// medians and returns the default features and target. A feature or target
// with no observed value is an error.
func PrepareForModeling(frame *dataset.Frame, target string) (*Prepared, error) {
	if target == "" {
		target = dataset.DefaultTarget
	}
	selector := NewFeatureSelector()
	X, err := selector.Matrix(frame)
	if err != nil {
		return nil, err
	}
	yAll, ok := frame.Numeric(target)
	if !ok {
		return nil, errors.NewDatasetError(frame.Source(), []string{target}, nil)
	}

	imputer := preprocessing.NewMedianImputer()
	Ximp, err := imputer.FitTransform(X)
	if err != nil {
		return nil, errors.Wrap(err, "impute features")
	}
	for j, m := range imputer.Statistics {
		if math.IsNaN(m) {
			return nil, errors.NewValueError("PrepareForModeling",
				"feature "+selector.Features[j]+" has no observed values")
		}
	}

	// the target is imputed the same way the features are
	yMedian := preprocessing.NewMedianImputer()
	yImp, err := yMedian.FitTransform(mat.NewDense(len(yAll), 1, append([]float64(nil), yAll...)))
	if err != nil {
		return nil, errors.Wrap(err, "impute target")
	}
	if math.IsNaN(yMedian.Statistics[0]) {
		return nil, errors.NewValueError("PrepareForModeling", "target "+target+" has no observed values")
	}

	return &Prepared{
		X:        mat.DenseCopyOf(Ximp),
		Y:        mat.DenseCopyOf(yImp),
		Features: selector.Features,
		Target:   target,
		Imputer:  imputer,
	}, nil
}

// CrimeLabel turns a crime column into a display label:
// "vitimas_homicidio_doloso" becomes "Homicidio Doloso".
func CrimeLabel(col string) string {
	words := strings.Fields(strings.ReplaceAll(strings.TrimPrefix(col, "vitimas_"), "_", " "))
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
