package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/crimescope/pkg/errors"
)

// Pipeline chains transformers in front of a final regressor. Fit fits each
// step on the output of the previous one; Predict replays the fitted steps.
type Pipeline struct {
	BaseEstimator
	Steps     []Transformer
	Estimator Regressor
}

// NewPipeline builds a Pipeline ending in est.
func NewPipeline(est Regressor, steps ...Transformer) *Pipeline {
	return &Pipeline{Steps: steps, Estimator: est}
}

// Fit fits every step and then the estimator.
func (p *Pipeline) Fit(X, y mat.Matrix) error {
	if p.Estimator == nil {
		return errors.NewValueError("Pipeline.Fit", "no final estimator")
	}
	cur := X
	for _, step := range p.Steps {
		out, err := step.FitTransform(cur)
		if err != nil {
			return errors.Wrap(err, "Pipeline.Fit")
		}
		cur = out
	}
	if err := p.Estimator.Fit(cur, y); err != nil {
		return err
	}
	p.SetFitted()
	return nil
}

// Predict transforms X through the fitted steps and predicts.
func (p *Pipeline) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "Predict")
	}
	cur := X
	for _, step := range p.Steps {
		out, err := step.Transform(cur)
		if err != nil {
			return nil, errors.Wrap(err, "Pipeline.Predict")
		}
		cur = out
	}
	return p.Estimator.Predict(cur)
}

// GetParams returns the final estimator's parameters when it exposes them.
func (p *Pipeline) GetParams() map[string]interface{} {
	if pg, ok := p.Estimator.(ParameterGetter); ok {
		return pg.GetParams()
	}
	return map[string]interface{}{}
}
