// Package prediction scores a single hypothetical municipality against the
// trained model and sweeps one input to show how the prediction responds.
package prediction

import (
	"math"

	"github.com/YuminosukeSato/crimescope/internal/dataset"
	"github.com/YuminosukeSato/crimescope/pkg/errors"
)

// Model is the part of a trained bundle prediction needs.
type Model interface {
	PredictRows(rows [][]float64) ([]float64, error)
}

// Bound is an inclusive input range with the form's default value.
type Bound struct {
	Min, Max, Default, Step float64
}

// Bounds holds the accepted range per feature column.
var Bounds = map[string]Bound{
	dataset.ColHabitants:    {Min: 1000, Max: 3000000, Default: 50000, Step: 1000},
	dataset.ColGDPPerCapita: {Min: 5000, Max: 150000, Default: 25000, Step: 1000},
	"vl_agropecuaria":       {Min: 0, Max: 10000000, Default: 50000, Step: 10000},
	"vl_industria":          {Min: 0, Max: 50000000, Default: 100000, Step: 10000},
	"vl_servicos":           {Min: 0, Max: 100000000, Default: 300000, Step: 10000},
}

// Input describes one municipality. Monetary values are in thousands of
// reais except GDP per capita, which is in reais.
type Input struct {
	TotalHabitantes float64 `json:"Total_Habitantes" form:"Total_Habitantes"`
	PIBPerCapita    float64 `json:"vl_pib_per_capta" form:"vl_pib_per_capta"`
	Agropecuaria    float64 `json:"vl_agropecuaria" form:"vl_agropecuaria"`
	Industria       float64 `json:"vl_industria" form:"vl_industria"`
	Servicos        float64 `json:"vl_servicos" form:"vl_servicos"`
}

// DefaultInput is the form's initial state.
func DefaultInput() Input {
	return Input{
		TotalHabitantes: Bounds[dataset.ColHabitants].Default,
		PIBPerCapita:    Bounds[dataset.ColGDPPerCapita].Default,
		Agropecuaria:    Bounds["vl_agropecuaria"].Default,
		Industria:       Bounds["vl_industria"].Default,
		Servicos:        Bounds["vl_servicos"].Default,
	}
}

// Get returns the value of a feature column.
func (in Input) Get(col string) (float64, bool) {
	switch col {
	case dataset.ColHabitants:
		return in.TotalHabitantes, true
	case dataset.ColGDPPerCapita:
		return in.PIBPerCapita, true
	case "vl_agropecuaria":
		return in.Agropecuaria, true
	case "vl_industria":
		return in.Industria, true
	case "vl_servicos":
		return in.Servicos, true
	}
	return 0, false
}

// With returns a copy with col set to v.
func (in Input) With(col string, v float64) Input {
	switch col {
	case dataset.ColHabitants:
		in.TotalHabitantes = v
	case dataset.ColGDPPerCapita:
		in.PIBPerCapita = v
	case "vl_agropecuaria":
		in.Agropecuaria = v
	case "vl_industria":
		in.Industria = v
	case "vl_servicos":
		in.Servicos = v
	}
	return in
}

// Validate checks every field against Bounds.
func (in Input) Validate() error {
	for _, col := range dataset.DefaultFeatures {
		v, _ := in.Get(col)
		b := Bounds[col]
		if math.IsNaN(v) || v < b.Min || v > b.Max {
			return errors.NewValidationError(col, "out of range", v)
		}
	}
	return nil
}

// Row orders the input by features.
func (in Input) Row(features []string) ([]float64, error) {
	row := make([]float64, len(features))
	for i, col := range features {
		v, ok := in.Get(col)
		if !ok {
			return nil, errors.NewValidationError("features", "unknown model feature "+col, col)
		}
		row[i] = v
	}
	return row, nil
}

// Risk levels by victims per 100k inhabitants.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// RiskLevel classifies a rate: below 50 is low, below 100 medium.
func RiskLevel(ratePer100k float64) string {
	switch {
	case ratePer100k < 50:
		return RiskLow
	case ratePer100k < 100:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// Result is a scored input.
type Result struct {
	Input       Input   `json:"input"`
	Victims     float64 `json:"predicted_victims"`
	RatePer100k float64 `json:"rate_per_100k"`
	Risk        string  `json:"risk_level"`
	DatasetMean float64 `json:"dataset_mean"`
	DiffPercent float64 `json:"diff_percent"`
}

// Above reports whether the prediction exceeds the dataset mean.
func (r Result) Above() bool { return r.DiffPercent > 0 }

// Predict scores in with m. features is the model's column order and
// datasetMean the mean of the target over the whole dataset.
func Predict(m Model, features []string, in Input, datasetMean float64) (*Result, error) {
	if m == nil {
		return nil, errors.ErrModelNotFound
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	row, err := in.Row(features)
	if err != nil {
		return nil, err
	}
	preds, err := m.PredictRows([][]float64{row})
	if err != nil {
		return nil, err
	}
	victims := preds[0]
	rate := victims / in.TotalHabitantes * 100000

	return &Result{
		Input:       in,
		Victims:     victims,
		RatePer100k: rate,
		Risk:        RiskLevel(rate),
		DatasetMean: datasetMean,
		DiffPercent: errors.SafeDivide(victims-datasetMean, datasetMean) * 100,
	}, nil
}
