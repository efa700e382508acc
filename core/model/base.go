package model

// EstimatorState tracks whether an estimator has been fitted.
type EstimatorState int

const (
	// NotFitted is the zero state.
	NotFitted EstimatorState = iota
	// Fitted is set by a successful Fit.
	Fitted
)

// BaseEstimator is embedded by every estimator and transformer.
//
// State is exported so that it survives gob encoding; a bundle decoded from
// disk must still report IsFitted.
type BaseEstimator struct {
	State EstimatorState
}

// IsFitted reports whether Fit has completed.
func (e *BaseEstimator) IsFitted() bool {
	return e.State == Fitted
}

// SetFitted marks the estimator as fitted.
func (e *BaseEstimator) SetFitted() {
	e.State = Fitted
}

// Reset returns the estimator to the unfitted state.
func (e *BaseEstimator) Reset() {
	e.State = NotFitted
}
