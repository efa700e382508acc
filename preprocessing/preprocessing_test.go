package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/crimescope/core/model"
	"github.com/YuminosukeSato/crimescope/pkg/errors"
)

var (
	_ model.Transformer = (*StandardScaler)(nil)
	_ model.Transformer = (*MedianImputer)(nil)
)

func TestStandardScaler_FitTransform(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 10,
		3, 10,
		4, 10,
	})

	scaler := NewStandardScalerDefault()
	out, err := scaler.FitTransform(X)
	require.NoError(t, err)

	assert.InDelta(t, 2.5, scaler.Mean[0], 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), scaler.Scale[0], 1e-12)
	// constant column keeps unit scale
	assert.Equal(t, 1.0, scaler.Scale[1])

	var sum float64
	for i := 0; i < 4; i++ {
		sum += out.At(i, 0)
		assert.Equal(t, 0.0, out.At(i, 1))
	}
	assert.InDelta(t, 0, sum, 1e-12)

	back, err := scaler.InverseTransform(out)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-12))
}

func TestStandardScaler_Errors(t *testing.T) {
	scaler := NewStandardScalerDefault()

	_, err := scaler.Transform(mat.NewDense(1, 1, []float64{1}))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	require.NoError(t, scaler.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))
	_, err = scaler.Transform(mat.NewDense(1, 3, nil))
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))
}

func TestMedianImputer(t *testing.T) {
	nan := math.NaN()
	X := mat.NewDense(5, 2, []float64{
		1, nan,
		nan, 4,
		3, 2,
		5, nan,
		7, 8,
	})

	imp := NewMedianImputer()
	out, err := imp.FitTransform(X)
	require.NoError(t, err)

	assert.Equal(t, []float64{4, 4}, imp.Statistics)
	assert.Equal(t, 4.0, out.At(1, 0))
	assert.Equal(t, 4.0, out.At(0, 1))
	assert.Equal(t, 4.0, out.At(3, 1))
	assert.Equal(t, 7.0, out.At(4, 0))
	// input untouched
	assert.True(t, math.IsNaN(X.At(1, 0)))
}

func TestMedianImputer_AllMissingColumn(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	nan := math.NaN()
	imp := NewMedianImputer()
	out, err := imp.FitTransform(mat.NewDense(2, 2, []float64{1, nan, 2, nan}))
	require.NoError(t, err)

	assert.True(t, math.IsNaN(out.At(0, 1)))
	assert.Equal(t, 1.0, out.At(0, 0))
	assert.Len(t, warnings, 1)
}

func TestMedianImputer_NotFitted(t *testing.T) {
	_, err := NewMedianImputer().Transform(mat.NewDense(1, 1, []float64{1}))
	assert.Error(t, err)
}

func TestPipelineWithPreprocessing(t *testing.T) {
	nan := math.NaN()
	X := mat.NewDense(3, 1, []float64{1, nan, 3})

	steps := []model.Transformer{NewMedianImputer(), NewStandardScalerDefault()}
	cur := mat.Matrix(X)
	for _, s := range steps {
		var err error
		cur, err = s.FitTransform(cur)
		require.NoError(t, err)
	}
	assert.InDelta(t, 0, cur.At(1, 0), 1e-12)
}
