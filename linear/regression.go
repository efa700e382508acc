// Package linear implements ordinary least squares regression.
package linear

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/crimescope/core/model"
	"github.com/YuminosukeSato/crimescope/core/parallel"
	"github.com/YuminosukeSato/crimescope/pkg/errors"
)

// parallelThreshold is the row count above which centring runs in parallel.
const parallelThreshold = 1000

// LinearRegression fits y = X·w + b by least squares.
//
// The system is solved through an SVD of the centred design matrix, so
// collinear features yield the minimum-norm solution instead of failing.
type LinearRegression struct {
	model.BaseEstimator

	Weights      []float64
	Intercept    float64
	NFeatures    int
	Rank         int
	FitIntercept bool
	Rcond        float64
}

// NewLinearRegression creates a LinearRegression that fits an intercept.
//
//	lr := linear.NewLinearRegression()
//	if err := lr.Fit(X, y); err != nil { ... }
func NewLinearRegression(opts ...Option) *LinearRegression {
	lr := &LinearRegression{FitIntercept: true, Rcond: 1e-12}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit learns the weights and intercept.
func (lr *LinearRegression) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "LinearRegression.Fit")

	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("LinearRegression.Fit", "y must be a column vector")
	}

	xMean := make([]float64, c)
	var yMean float64
	if lr.FitIntercept {
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				xMean[j] += X.At(i, j)
			}
			yMean += y.At(i, 0)
		}
		for j := range xMean {
			xMean[j] /= float64(r)
		}
		yMean /= float64(r)
	}

	Xc := mat.NewDense(r, c, nil)
	yc := mat.NewDense(r, 1, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < c; j++ {
				Xc.Set(i, j, X.At(i, j)-xMean[j])
			}
			yc.Set(i, 0, y.At(i, 0)-yMean)
		}
	})

	var svd mat.SVD
	if ok := svd.Factorize(Xc, mat.SVDThin); !ok {
		return errors.NewModelError("LinearRegression.Fit", "SVD did not converge", errors.ErrSingularMatrix)
	}
	rank := svd.Rank(lr.Rcond)
	if rank == 0 {
		return errors.NewModelError("LinearRegression.Fit", "rank-deficient design matrix", errors.ErrSingularMatrix)
	}

	var w mat.Dense
	svd.SolveTo(&w, yc, rank)

	lr.Weights = make([]float64, c)
	for j := 0; j < c; j++ {
		lr.Weights[j] = w.At(j, 0)
	}
	if err := errors.CheckNumericalStability("LinearRegression.Fit", lr.Weights, 0); err != nil {
		return err
	}

	lr.Intercept = yMean
	for j := 0; j < c; j++ {
		lr.Intercept -= xMean[j] * lr.Weights[j]
	}
	lr.NFeatures = c
	lr.Rank = rank
	lr.SetFitted()
	return nil
}

// Predict returns X·w + b as an n×1 column.
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LinearRegression", "Predict")
	}
	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, errors.NewDimensionError("LinearRegression.Predict", lr.NFeatures, c, 1)
	}

	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred := lr.Intercept
		for j := 0; j < c; j++ {
			pred += X.At(i, j) * lr.Weights[j]
		}
		predictions.Set(i, 0, pred)
	}
	return predictions, nil
}

// Coefficients returns a copy of the learned weights.
func (lr *LinearRegression) Coefficients() []float64 {
	if lr.Weights == nil {
		return nil
	}
	out := make([]float64, len(lr.Weights))
	copy(out, lr.Weights)
	return out
}

// GetParams returns the model's hyperparameters.
func (lr *LinearRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"fit_intercept": lr.FitIntercept,
		"rcond":         lr.Rcond,
	}
}

func (lr *LinearRegression) String() string {
	if !lr.IsFitted() {
		return fmt.Sprintf("LinearRegression(fit_intercept=%t)", lr.FitIntercept)
	}
	return fmt.Sprintf("LinearRegression(fit_intercept=%t, n_features=%d, rank=%d)",
		lr.FitIntercept, lr.NFeatures, lr.Rank)
}
