package linear

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/crimescope/core/model"
	"github.com/YuminosukeSato/crimescope/pkg/errors"
)

var _ model.Regressor = (*LinearRegression)(nil)

func TestLinearRegression_ExactFit(t *testing.T) {
	// y = 3 + 2*x0 - x1
	X := mat.NewDense(5, 2, []float64{
		1, 0,
		2, 1,
		3, 5,
		4, 2,
		5, 3,
	})
	y := mat.NewDense(5, 1, nil)
	for i := 0; i < 5; i++ {
		y.Set(i, 0, 3+2*X.At(i, 0)-X.At(i, 1))
	}

	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))

	assert.InDelta(t, 3.0, lr.Intercept, 1e-9)
	assert.InDeltaSlice(t, []float64{2, -1}, lr.Coefficients(), 1e-9)

	pred, err := lr.Predict(mat.NewDense(1, 2, []float64{10, 4}))
	require.NoError(t, err)
	assert.InDelta(t, 19.0, pred.At(0, 0), 1e-9)
}

func TestLinearRegression_NoIntercept(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{2, 4, 6})

	lr := NewLinearRegression(WithFitIntercept(false))
	require.NoError(t, lr.Fit(X, y))
	assert.Equal(t, 0.0, lr.Intercept)
	assert.InDelta(t, 2.0, lr.Weights[0], 1e-9)
}

func TestLinearRegression_CollinearFeatures(t *testing.T) {
	// second column duplicates the first
	X := mat.NewDense(4, 2, []float64{
		1, 1,
		2, 2,
		3, 3,
		4, 4,
	})
	y := mat.NewDense(4, 1, []float64{3, 5, 7, 9})

	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))
	assert.Equal(t, 1, lr.Rank)
	// minimum-norm solution splits the slope evenly
	assert.InDeltaSlice(t, []float64{1, 1}, lr.Weights, 1e-9)

	pred, err := lr.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		assert.InDelta(t, y.At(i, 0), pred.At(i, 0), 1e-9)
	}
}

func TestLinearRegression_Errors(t *testing.T) {
	lr := NewLinearRegression()

	_, err := lr.Predict(mat.NewDense(1, 1, []float64{1}))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	err = lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(2, 1, []float64{1, 2}))
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))

	err = lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(3, 2, nil))
	assert.Error(t, err)

	// constant feature has no usable direction
	err = lr.Fit(mat.NewDense(3, 1, []float64{5, 5, 5}), mat.NewDense(3, 1, []float64{1, 2, 3}))
	assert.True(t, errors.Is(err, errors.ErrSingularMatrix))
}

func TestLinearRegression_PredictDimensionMismatch(t *testing.T) {
	X, y := createBenchmarkData(50, 3)
	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))

	_, err := lr.Predict(mat.NewDense(2, 4, nil))
	assert.Error(t, err)
}

func TestLinearRegression_ParallelPathMatchesSequential(t *testing.T) {
	X, y := createBenchmarkData(2500, 4)
	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))

	// true weights are 0.5, 1.0, 1.5, 2.0 with intercept 1
	assert.InDeltaSlice(t, []float64{0.5, 1.0, 1.5, 2.0}, lr.Weights, 0.01)
	assert.InDelta(t, 1.0, lr.Intercept, 0.01)
}

func TestLinearRegression_GobRoundTrip(t *testing.T) {
	X, y := createBenchmarkData(30, 2)
	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))

	path := t.TempDir() + "/lr.gob"
	require.NoError(t, model.SaveModel(lr, path))

	var loaded LinearRegression
	require.NoError(t, model.LoadModel(&loaded, path))
	assert.True(t, loaded.IsFitted())

	want, err := lr.Predict(X)
	require.NoError(t, err)
	got, err := loaded.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(want, got, 1e-12))
}
