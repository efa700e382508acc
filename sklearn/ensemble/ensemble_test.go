package ensemble

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/crimescope/core/model"
	"github.com/YuminosukeSato/crimescope/metrics"
)

var (
	_ model.Regressor = (*RandomForestRegressor)(nil)
	_ model.Regressor = (*GradientBoostingRegressor)(nil)
)

// makeData builds y = 3*x0 + sin(x1) + noise on a fixed seed.
func makeData(n int) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(7, 7))
	X := mat.NewDense(n, 3, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x0 := rng.Float64() * 10
		x1 := rng.Float64() * 6
		X.Set(i, 0, x0)
		X.Set(i, 1, x1)
		X.Set(i, 2, rng.Float64())
		y.Set(i, 0, 3*x0+math.Sin(x1)+(rng.Float64()-0.5)*0.1)
	}
	return X, y
}

func TestRandomForest_FitsSignal(t *testing.T) {
	X, y := makeData(200)

	rf := NewRandomForestRegressor(
		WithNEstimators(30),
		WithForestMaxDepth(10),
		WithForestRandomState(42),
	)
	require.NoError(t, rf.Fit(X, y))
	assert.Len(t, rf.Estimators, 30)

	pred, err := rf.Predict(X)
	require.NoError(t, err)
	r2, err := metrics.R2ScoreMatrix(y, pred)
	require.NoError(t, err)
	assert.Greater(t, r2, 0.95)

	imp := rf.GetFeatureImportances()
	require.Len(t, imp, 3)
	assert.Greater(t, imp[0], imp[1])
	assert.Greater(t, imp[0], imp[2])
}

func TestRandomForest_DeterministicAcrossWorkerCounts(t *testing.T) {
	X, y := makeData(80)

	a := NewRandomForestRegressor(WithNEstimators(10), WithForestRandomState(42), WithNJobs(1))
	b := NewRandomForestRegressor(WithNEstimators(10), WithForestRandomState(42), WithNJobs(4))
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))

	pa, err := a.Predict(X)
	require.NoError(t, err)
	pb, err := b.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(pa, pb))
}

func TestRandomForest_DifferentSeedsDiffer(t *testing.T) {
	X, y := makeData(80)

	a := NewRandomForestRegressor(WithNEstimators(5), WithForestRandomState(1))
	b := NewRandomForestRegressor(WithNEstimators(5), WithForestRandomState(2))
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))

	pa, _ := a.Predict(X)
	pb, _ := b.Predict(X)
	assert.False(t, mat.Equal(pa, pb))
}

func TestRandomForest_CancelledContext(t *testing.T) {
	X, y := makeData(50)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rf := NewRandomForestRegressor(WithNEstimators(5))
	err := rf.FitContext(ctx, X, y)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, rf.IsFitted())
}

func TestRandomForest_Errors(t *testing.T) {
	rf := NewRandomForestRegressor()
	_, err := rf.Predict(mat.NewDense(1, 3, nil))
	assert.Error(t, err)

	rf = NewRandomForestRegressor(WithNEstimators(0))
	assert.Error(t, rf.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 1, []float64{1, 2})))
}

func TestGradientBoosting_FitsSignal(t *testing.T) {
	X, y := makeData(200)

	gb := NewGradientBoostingRegressor(
		WithStages(100),
		WithBoostingMaxDepth(5),
		WithLearningRate(0.1),
		WithBoostingRandomState(42),
	)
	require.NoError(t, gb.Fit(X, y))
	assert.Len(t, gb.Estimators, 100)

	pred, err := gb.Predict(X)
	require.NoError(t, err)
	r2, err := metrics.R2ScoreMatrix(y, pred)
	require.NoError(t, err)
	assert.Greater(t, r2, 0.98)

	// training loss never increases under full-batch squared error
	for i := 1; i < len(gb.TrainScore); i++ {
		assert.LessOrEqual(t, gb.TrainScore[i], gb.TrainScore[i-1]+1e-9)
	}

	imp := gb.GetFeatureImportances()
	require.Len(t, imp, 3)
	assert.InDelta(t, 1.0, imp[0]+imp[1]+imp[2], 1e-9)
	assert.Greater(t, imp[0], imp[2])
}

func TestGradientBoosting_ImportancesBeforeFit(t *testing.T) {
	gb := NewGradientBoostingRegressor()
	assert.Empty(t, gb.GetFeatureImportances())
}

func TestGradientBoosting_SingleStageIsShrunkenTree(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{0, 0, 10, 10})

	gb := NewGradientBoostingRegressor(WithStages(1), WithLearningRate(0.5), WithBoostingMaxDepth(1))
	require.NoError(t, gb.Fit(X, y))
	assert.Equal(t, 5.0, gb.Init)

	pred, err := gb.Predict(X)
	require.NoError(t, err)
	// residuals are -5 and +5; half of each is applied
	assert.InDelta(t, 2.5, pred.At(0, 0), 1e-12)
	assert.InDelta(t, 7.5, pred.At(3, 0), 1e-12)
}

func TestGradientBoosting_Subsample(t *testing.T) {
	X, y := makeData(100)
	gb := NewGradientBoostingRegressor(WithStages(20), WithSubsample(0.5), WithBoostingRandomState(3))
	require.NoError(t, gb.Fit(X, y))

	gb2 := NewGradientBoostingRegressor(WithStages(20), WithSubsample(0.5), WithBoostingRandomState(3))
	require.NoError(t, gb2.Fit(X, y))

	p1, _ := gb.Predict(X)
	p2, _ := gb2.Predict(X)
	assert.True(t, mat.Equal(p1, p2))
}

func TestGradientBoosting_InvalidParams(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{1, 2})
	y := mat.NewDense(2, 1, []float64{1, 2})

	assert.Error(t, NewGradientBoostingRegressor(WithLearningRate(0)).Fit(X, y))
	assert.Error(t, NewGradientBoostingRegressor(WithSubsample(1.5)).Fit(X, y))
	assert.Error(t, NewGradientBoostingRegressor(WithStages(0)).Fit(X, y))

	_, err := NewGradientBoostingRegressor().Predict(X)
	assert.Error(t, err)
}

func TestEnsembles_GobRoundTrip(t *testing.T) {
	X, y := makeData(60)
	rf := NewRandomForestRegressor(WithNEstimators(3), WithForestRandomState(42))
	require.NoError(t, rf.Fit(X, y))

	path := t.TempDir() + "/rf.gob"
	require.NoError(t, model.SaveModel(rf, path))
	var loaded RandomForestRegressor
	require.NoError(t, model.LoadModel(&loaded, path))

	want, _ := rf.Predict(X)
	got, err := loaded.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))
}
