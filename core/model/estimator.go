// Package model defines the estimator contracts shared by the regression
// models, the preprocessing transformers and the training pipeline.
package model

import "gonum.org/v1/gonum/mat"

// Fitter learns from a feature matrix X (n_samples × n_features) and a
// target column y (n_samples × 1).
type Fitter interface {
	Fit(X, y mat.Matrix) error
}

// Predictor produces an n_samples × 1 column of predictions.
type Predictor interface {
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Regressor is a fittable model that predicts a continuous target.
type Regressor interface {
	Fitter
	Predictor
	IsFitted() bool
}

// Factory builds a fresh, unfitted Regressor. Cross-validation calls it once
// per fold so that folds never share fitted state.
type Factory func() Regressor

// ParameterGetter exposes hyperparameters for display and logging.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}
