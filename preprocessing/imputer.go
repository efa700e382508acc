package preprocessing

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/crimescope/core/model"
	"github.com/YuminosukeSato/crimescope/pkg/errors"
)

// MedianImputer replaces NaN cells with the median of the observed values in
// the same column. The fitted medians travel with the model bundle so that
// prediction inputs are imputed the same way as training data.
type MedianImputer struct {
	model.BaseEstimator

	// Statistics holds one median per column.
	Statistics []float64
	NFeatures  int
}

// NewMedianImputer creates an unfitted MedianImputer.
func NewMedianImputer() *MedianImputer {
	return &MedianImputer{}
}

// Fit computes the per-column medians ignoring NaN. A column with no observed
// value keeps NaN as its statistic and raises a DataConversionWarning.
func (m *MedianImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MedianImputer.Fit", "empty data", errors.ErrEmptyData)
	}

	m.NFeatures = c
	m.Statistics = make([]float64, c)
	for j := 0; j < c; j++ {
		observed := make(stats.Float64Data, 0, r)
		for i := 0; i < r; i++ {
			if v := X.At(i, j); !isMissing(v) {
				observed = append(observed, v)
			}
		}
		if len(observed) == 0 {
			m.Statistics[j] = math.NaN()
			errors.Warn(errors.NewDataConversionWarning(fmt.Sprintf("column %d", j), r, "no observed values, left missing"))
			continue
		}
		median, err := observed.Median()
		if err != nil {
			return errors.Wrapf(err, "MedianImputer.Fit: column %d", j)
		}
		m.Statistics[j] = median
	}

	m.SetFitted()
	return nil
}

// Transform returns a copy of X with NaN cells replaced.
func (m *MedianImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MedianImputer", "Transform")
	}
	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MedianImputer.Transform", m.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		if math.IsNaN(v) {
			return m.Statistics[j]
		}
		return v
	}, X)
	return result, nil
}

// FitTransform fits on X and returns the imputed X.
func (m *MedianImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// GetParams returns the imputer's configuration.
func (m *MedianImputer) GetParams() map[string]interface{} {
	return map[string]interface{}{"strategy": "median"}
}
