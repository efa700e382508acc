package prediction

import (
	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/crimescope/internal/dataset"
	"github.com/YuminosukeSato/crimescope/pkg/errors"
)

// SensitivityPoints is the number of values swept.
const SensitivityPoints = 50

// SensitivityVariables are the inputs that can be swept.
var SensitivityVariables = []string{
	dataset.ColHabitants,
	dataset.ColGDPPerCapita,
	"vl_industria",
	"vl_servicos",
}

// Curve is the prediction as one input varies and the rest stay fixed.
type Curve struct {
	Variable    string    `json:"variable"`
	Values      []float64 `json:"values"`
	Predictions []float64 `json:"predictions"`
}

// SweepRange returns the swept interval for variable: fixed ranges for
// population and GDP per capita, zero to three times the base otherwise.
func SweepRange(variable string, base Input) (lo, hi float64, err error) {
	switch variable {
	case dataset.ColHabitants:
		return 10000, 500000, nil
	case dataset.ColGDPPerCapita:
		return 10000, 100000, nil
	case "vl_industria", "vl_servicos":
		v, _ := base.Get(variable)
		return 0, 3 * v, nil
	}
	return 0, 0, errors.NewValidationError("variable", "not a sensitivity variable", variable)
}

// Sensitivity predicts SensitivityPoints evenly spaced values of variable.
// The base input is not range-checked so that every swept point is scored.
func Sensitivity(m Model, features []string, base Input, variable string) (*Curve, error) {
	if m == nil {
		return nil, errors.ErrModelNotFound
	}
	lo, hi, err := SweepRange(variable, base)
	if err != nil {
		return nil, err
	}
	values := floats.Span(make([]float64, SensitivityPoints), lo, hi)

	rows := make([][]float64, len(values))
	for i, v := range values {
		row, err := base.With(variable, v).Row(features)
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}
	preds, err := m.PredictRows(rows)
	if err != nil {
		return nil, err
	}
	return &Curve{Variable: variable, Values: values, Predictions: preds}, nil
}
