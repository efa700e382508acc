package ensemble

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/crimescope/core/model"
	"github.com/YuminosukeSato/crimescope/pkg/errors"
	"github.com/YuminosukeSato/crimescope/sklearn/tree"
)

// GradientBoostingRegressor fits trees stage-wise to the residuals of the
// running prediction under squared-error loss.
type GradientBoostingRegressor struct {
	model.BaseEstimator

	NEstimators    int
	LearningRate   float64
	MaxDepth       int
	MinSamplesLeaf int
	Subsample      float64
	RandomState    int64

	Init       float64
	Estimators []*tree.DecisionTreeRegressor
	// TrainScore is the training MSE after each stage (on the in-bag rows
	// when subsampling).
	TrainScore []float64
	NFeatures  int
}

// BoostingOption configures a GradientBoostingRegressor.
type BoostingOption func(*GradientBoostingRegressor)

// WithStages sets the number of boosting stages.
func WithStages(n int) BoostingOption {
	return func(g *GradientBoostingRegressor) { g.NEstimators = n }
}

// WithLearningRate shrinks each stage's contribution.
func WithLearningRate(lr float64) BoostingOption {
	return func(g *GradientBoostingRegressor) { g.LearningRate = lr }
}

// WithBoostingMaxDepth limits the depth of each stage's tree.
func WithBoostingMaxDepth(depth int) BoostingOption {
	return func(g *GradientBoostingRegressor) { g.MaxDepth = depth }
}

// WithBoostingMinSamplesLeaf sets each stage tree's minimum leaf size.
func WithBoostingMinSamplesLeaf(n int) BoostingOption {
	return func(g *GradientBoostingRegressor) { g.MinSamplesLeaf = n }
}

// WithSubsample sets the fraction of rows drawn without replacement for each
// stage. 1 uses every row.
func WithSubsample(frac float64) BoostingOption {
	return func(g *GradientBoostingRegressor) { g.Subsample = frac }
}

// WithBoostingRandomState seeds row subsampling and tree seeds.
func WithBoostingRandomState(seed int64) BoostingOption {
	return func(g *GradientBoostingRegressor) { g.RandomState = seed }
}

// NewGradientBoostingRegressor creates a booster with 100 stages of depth-3
// trees and learning rate 0.1.
func NewGradientBoostingRegressor(opts ...BoostingOption) *GradientBoostingRegressor {
	g := &GradientBoostingRegressor{
		NEstimators:    100,
		LearningRate:   0.1,
		MaxDepth:       3,
		MinSamplesLeaf: 1,
		Subsample:      1.0,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Fit runs the boosting stages.
func (g *GradientBoostingRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "GradientBoostingRegressor.Fit")

	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("GradientBoostingRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("GradientBoostingRegressor.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("GradientBoostingRegressor.Fit", "y must be a column vector")
	}
	if g.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be >= 1", g.NEstimators)
	}
	if g.LearningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be > 0", g.LearningRate)
	}
	if g.Subsample <= 0 || g.Subsample > 1 {
		return errors.NewValidationError("subsample", "must be in (0, 1]", g.Subsample)
	}

	Xd := mat.DenseCopyOf(X)
	target := make([]float64, r)
	mat.Col(target, 0, y)

	g.Init = 0
	for _, v := range target {
		g.Init += v
	}
	g.Init /= float64(r)

	current := make([]float64, r)
	for i := range current {
		current[i] = g.Init
	}
	residual := make([]float64, r)
	rng := rand.New(rand.NewPCG(uint64(g.RandomState), 1))
	nSub := max(1, int(g.Subsample*float64(r)))
	all := make([]int, r)
	for i := range all {
		all[i] = i
	}

	g.Estimators = make([]*tree.DecisionTreeRegressor, 0, g.NEstimators)
	g.TrainScore = make([]float64, 0, g.NEstimators)
	row := make([]float64, c)
	for stage := 0; stage < g.NEstimators; stage++ {
		for i := range residual {
			residual[i] = target[i] - current[i]
		}

		idx := all
		if nSub < r {
			perm := rng.Perm(r)
			idx = perm[:nSub]
		}

		t := tree.NewDecisionTreeRegressor(
			tree.WithMaxDepth(g.MaxDepth),
			tree.WithMinSamplesLeaf(g.MinSamplesLeaf),
			tree.WithRandomState(rng.Int64()),
		)
		if err := t.FitSubset(Xd, residual, idx); err != nil {
			return errors.Wrapf(err, "GradientBoostingRegressor.Fit stage %d", stage)
		}

		for i := 0; i < r; i++ {
			mat.Row(row, i, Xd)
			current[i] += g.LearningRate * t.PredictRow(row)
		}
		if err := errors.CheckNumericalStability("GradientBoostingRegressor.Fit", current, stage); err != nil {
			return err
		}

		var mse float64
		for _, i := range idx {
			d := target[i] - current[i]
			mse += d * d
		}
		g.TrainScore = append(g.TrainScore, mse/float64(len(idx)))
		g.Estimators = append(g.Estimators, t)
	}

	g.NFeatures = c
	g.SetFitted()
	return nil
}

// Predict sums the initial estimate and the shrunken stage outputs.
func (g *GradientBoostingRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !g.IsFitted() {
		return nil, errors.NewNotFittedError("GradientBoostingRegressor", "Predict")
	}
	r, c := X.Dims()
	if c != g.NFeatures {
		return nil, errors.NewDimensionError("GradientBoostingRegressor.Predict", g.NFeatures, c, 1)
	}

	out := mat.NewDense(r, 1, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		pred := g.Init
		for _, t := range g.Estimators {
			pred += g.LearningRate * t.PredictRow(row)
		}
		out.Set(i, 0, pred)
	}
	return out, nil
}

// GetFeatureImportances averages the stage trees' importances.
func (g *GradientBoostingRegressor) GetFeatureImportances() []float64 {
	out := make([]float64, g.NFeatures)
	if len(g.Estimators) == 0 {
		return out
	}
	var total float64
	for _, t := range g.Estimators {
		for j, v := range t.Importances {
			out[j] += v
			total += v
		}
	}
	if total > 0 {
		for j := range out {
			out[j] /= total
		}
	}
	return out
}

// GetParams returns the booster's hyperparameters.
func (g *GradientBoostingRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":     g.NEstimators,
		"learning_rate":    g.LearningRate,
		"max_depth":        g.MaxDepth,
		"min_samples_leaf": g.MinSamplesLeaf,
		"subsample":        g.Subsample,
		"random_state":     g.RandomState,
	}
}

func (g *GradientBoostingRegressor) String() string {
	return fmt.Sprintf("GradientBoostingRegressor(n_estimators=%d, learning_rate=%g, max_depth=%d)",
		g.NEstimators, g.LearningRate, g.MaxDepth)
}
