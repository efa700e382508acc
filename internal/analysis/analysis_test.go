package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/crimescope/internal/dataset"
	"github.com/YuminosukeSato/crimescope/internal/features"
)

const samplePath = "../../testdata/pib-ocorrencias-sample.csv"

func loadSample(t *testing.T) *dataset.Frame {
	t.Helper()
	frame, err := dataset.Load(samplePath)
	require.NoError(t, err)
	require.NoError(t, features.AddRatesPer100k(frame))
	return frame
}

func TestDescribe(t *testing.T) {
	d := Describe([]float64{1, 2, 3, 4, math.NaN()})

	assert.Equal(t, 4, d.Count)
	assert.InDelta(t, 2.5, d.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), d.Std, 1e-12)
	assert.Equal(t, 1.0, d.Min)
	assert.InDelta(t, 1.75, d.Q25, 1e-12)
	assert.InDelta(t, 2.5, d.Q50, 1e-12)
	assert.InDelta(t, 3.25, d.Q75, 1e-12)
	assert.Equal(t, 4.0, d.Max)
	assert.Len(t, d.Rows(), 8)
}

func TestDescribe_Degenerate(t *testing.T) {
	empty := Describe([]float64{math.NaN()})
	assert.Equal(t, 0, empty.Count)
	assert.True(t, math.IsNaN(empty.Mean))
	assert.True(t, math.IsNaN(empty.Max))

	single := Describe([]float64{7})
	assert.Equal(t, 7.0, single.Mean)
	assert.Equal(t, 7.0, single.Q25)
	assert.True(t, math.IsNaN(single.Std))
}

func TestCorrelation(t *testing.T) {
	frame := dataset.NewFrame(4)
	require.NoError(t, frame.SetNumeric("a", []float64{1, 2, 3, 4}))
	require.NoError(t, frame.SetNumeric("b", []float64{2, 4, 6, 8}))
	require.NoError(t, frame.SetNumeric("c", []float64{4, 3, math.NaN(), 1}))

	m := Correlation(frame, []string{"a", "b", "c", "missing"})

	require.Equal(t, []string{"a", "b", "c"}, m.Columns)
	assert.InDelta(t, 1.0, m.Values[0][0], 1e-12)
	assert.InDelta(t, 1.0, m.Values[0][1], 1e-12)
	assert.InDelta(t, -1.0, m.Values[0][2], 1e-12)
	assert.Equal(t, m.Values[2][0], m.Values[0][2])
}

func TestCorrelationMatrix_Rounded(t *testing.T) {
	m := &CorrelationMatrix{Columns: []string{"x"}, Values: [][]float64{{0.12345}}}
	assert.Equal(t, 0.12, m.Rounded(2).Values[0][0])
	assert.Equal(t, 0.12345, m.Values[0][0])
}

func TestPresetColumns(t *testing.T) {
	economic := PresetColumns(PresetEconomicCrime)
	assert.Len(t, economic, len(dataset.EconomicColumns)+1+len(dataset.CrimeColumns))
	assert.Contains(t, economic, dataset.ColHabitants)

	rates := PresetColumns(PresetGDPRates)
	assert.Len(t, rates, len(dataset.CrimeColumns)+1)
	assert.Equal(t, dataset.ColGDPPerCapita, rates[len(rates)-1])

	frame := loadSample(t)
	m := Correlation(frame, rates)
	assert.Equal(t, rates, m.Columns)
}

func TestSumBy(t *testing.T) {
	frame := loadSample(t)

	got := SumBy(frame, dataset.ColUF, dataset.ColTotalVictims)

	require.Len(t, got, 3)
	assert.Equal(t, Group{Key: "DF", Value: 5665}, got[0])
	assert.Equal(t, Group{Key: "GO", Value: 1977}, got[1])
	assert.Equal(t, Group{Key: "MG", Value: 234}, got[2])
	assert.Nil(t, SumBy(frame, "nope", dataset.ColTotalVictims))
}

func TestSumByYear(t *testing.T) {
	frame := loadSample(t)

	got := SumByYear(frame, dataset.ColTotalVictims)

	assert.Equal(t, []YearPoint{
		{Year: 2019, Value: 2617},
		{Year: 2020, Value: 2612},
		{Year: 2021, Value: 2647},
	}, got)
}

func TestMeanRates(t *testing.T) {
	frame := loadSample(t)

	got := MeanRates(frame)

	require.Len(t, got, len(dataset.CrimeColumns))
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].Value, got[i].Value)
	}
	assert.Equal(t, features.RateColumn(dataset.ColTotalVictims), got[len(got)-1].Key)
}
