package model

import "gonum.org/v1/gonum/mat"

// Transformer learns column statistics from X and applies them.
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	FitTransform(X mat.Matrix) (mat.Matrix, error)
	IsFitted() bool
}
