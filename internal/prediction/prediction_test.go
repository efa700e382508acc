package prediction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/crimescope/internal/dataset"
	"github.com/YuminosukeSato/crimescope/pkg/errors"
)

// perCapitaModel predicts victims = habitants / 1000 + industry / 100000.
type perCapitaModel struct {
	calls int
}

func (m *perCapitaModel) PredictRows(rows [][]float64) ([]float64, error) {
	m.calls++
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r[0]/1000 + r[3]/100000
	}
	return out, nil
}

var features = dataset.DefaultFeatures

func TestDefaultInputIsValid(t *testing.T) {
	in := DefaultInput()
	assert.NoError(t, in.Validate())
	assert.Equal(t, 50000.0, in.TotalHabitantes)
	assert.Equal(t, 25000.0, in.PIBPerCapita)
	assert.Equal(t, 300000.0, in.Servicos)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      Input
		wantErr bool
	}{
		{"default", DefaultInput(), false},
		{"lower bounds", Input{TotalHabitantes: 1000, PIBPerCapita: 5000}, false},
		{"too few habitants", DefaultInput().With(dataset.ColHabitants, 999), true},
		{"gdp per capita too high", DefaultInput().With(dataset.ColGDPPerCapita, 150001), true},
		{"negative agro", DefaultInput().With("vl_agropecuaria", -1), true},
		{"services too high", DefaultInput().With("vl_servicos", 1e9), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.wantErr {
				var vErr *errors.ValidationError
				assert.True(t, errors.As(err, &vErr), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRiskLevel(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{0, RiskLow},
		{49.99, RiskLow},
		{50, RiskMedium},
		{99.9, RiskMedium},
		{100, RiskHigh},
		{350, RiskHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RiskLevel(tt.rate), "rate %v", tt.rate)
	}
}

func TestPredict(t *testing.T) {
	m := &perCapitaModel{}

	res, err := Predict(m, features, DefaultInput(), 40)
	require.NoError(t, err)

	// 50000/1000 + 100000/100000
	assert.InDelta(t, 51.0, res.Victims, 1e-9)
	assert.InDelta(t, 102.0, res.RatePer100k, 1e-9)
	assert.Equal(t, RiskHigh, res.Risk)
	assert.InDelta(t, 27.5, res.DiffPercent, 1e-9)
	assert.True(t, res.Above())
}

func TestPredict_BelowMean(t *testing.T) {
	res, err := Predict(&perCapitaModel{}, features, DefaultInput(), 102)
	require.NoError(t, err)
	assert.InDelta(t, -50.0, res.DiffPercent, 1e-9)
	assert.False(t, res.Above())
}

func TestPredict_Errors(t *testing.T) {
	_, err := Predict(nil, features, DefaultInput(), 1)
	assert.True(t, errors.Is(err, errors.ErrModelNotFound))

	_, err = Predict(&perCapitaModel{}, features, DefaultInput().With(dataset.ColHabitants, 0), 1)
	assert.Error(t, err)

	_, err = Predict(&perCapitaModel{}, []string{"unknown"}, DefaultInput(), 1)
	assert.Error(t, err)
}

func TestSensitivity(t *testing.T) {
	tests := []struct {
		variable string
		lo, hi   float64
	}{
		{dataset.ColHabitants, 10000, 500000},
		{dataset.ColGDPPerCapita, 10000, 100000},
		{"vl_industria", 0, 300000},
		{"vl_servicos", 0, 900000},
	}
	for _, tt := range tests {
		t.Run(tt.variable, func(t *testing.T) {
			m := &perCapitaModel{}
			curve, err := Sensitivity(m, features, DefaultInput(), tt.variable)
			require.NoError(t, err)

			require.Len(t, curve.Values, SensitivityPoints)
			require.Len(t, curve.Predictions, SensitivityPoints)
			assert.Equal(t, tt.lo, curve.Values[0])
			assert.InDelta(t, tt.hi, curve.Values[SensitivityPoints-1], 1e-6)
			assert.Equal(t, 1, m.calls, "sweep should be a single batch")
		})
	}
}

func TestSensitivity_Habitants(t *testing.T) {
	curve, err := Sensitivity(&perCapitaModel{}, features, DefaultInput(), dataset.ColHabitants)
	require.NoError(t, err)

	step := (500000.0 - 10000.0) / float64(SensitivityPoints-1)
	assert.InDelta(t, 10000+step, curve.Values[1], 1e-6)
	assert.InDelta(t, curve.Values[1]/1000+1, curve.Predictions[1], 1e-9)
}

func TestSensitivity_UnknownVariable(t *testing.T) {
	_, err := Sensitivity(&perCapitaModel{}, features, DefaultInput(), "vl_agropecuaria")
	var vErr *errors.ValidationError
	assert.True(t, errors.As(err, &vErr))
}
