// Package ensemble implements the tree ensembles compared during training:
// a bagged random forest and least-squares gradient boosting.
package ensemble

import (
	"context"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/crimescope/core/model"
	"github.com/YuminosukeSato/crimescope/core/parallel"
	"github.com/YuminosukeSato/crimescope/pkg/errors"
	"github.com/YuminosukeSato/crimescope/sklearn/tree"
)

// RandomForestRegressor averages regression trees grown on bootstrap
// samples.
type RandomForestRegressor struct {
	model.BaseEstimator

	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
	Bootstrap       bool
	RandomState     int64
	NJobs           int

	Estimators []*tree.DecisionTreeRegressor
	NFeatures  int
}

// ForestOption configures a RandomForestRegressor.
type ForestOption func(*RandomForestRegressor)

// WithNEstimators sets the number of trees.
func WithNEstimators(n int) ForestOption {
	return func(f *RandomForestRegressor) { f.NEstimators = n }
}

// WithForestMaxDepth limits every tree's depth.
func WithForestMaxDepth(depth int) ForestOption {
	return func(f *RandomForestRegressor) { f.MaxDepth = depth }
}

// WithForestMinSamplesLeaf sets each tree's minimum leaf size.
func WithForestMinSamplesLeaf(n int) ForestOption {
	return func(f *RandomForestRegressor) { f.MinSamplesLeaf = n }
}

// WithForestMaxFeatures sets how many features each split considers.
func WithForestMaxFeatures(n int) ForestOption {
	return func(f *RandomForestRegressor) { f.MaxFeatures = n }
}

// WithBootstrap toggles bootstrap sampling. Without it every tree sees the
// full training set.
func WithBootstrap(b bool) ForestOption {
	return func(f *RandomForestRegressor) { f.Bootstrap = b }
}

// WithForestRandomState seeds tree seeds and bootstrap draws.
func WithForestRandomState(seed int64) ForestOption {
	return func(f *RandomForestRegressor) { f.RandomState = seed }
}

// WithNJobs bounds the number of trees grown concurrently. Values <= 0 use
// one worker per CPU.
func WithNJobs(n int) ForestOption {
	return func(f *RandomForestRegressor) { f.NJobs = n }
}

// NewRandomForestRegressor creates a forest of 100 unlimited-depth trees.
//
//	rf := ensemble.NewRandomForestRegressor(
//	    ensemble.WithNEstimators(100),
//	    ensemble.WithForestMaxDepth(10),
//	    ensemble.WithForestRandomState(42),
//	)
func NewRandomForestRegressor(opts ...ForestOption) *RandomForestRegressor {
	f := &RandomForestRegressor{
		NEstimators:     100,
		MaxDepth:        -1,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fit grows the forest.
func (f *RandomForestRegressor) Fit(X, y mat.Matrix) error {
	return f.FitContext(context.Background(), X, y)
}

// FitContext grows the trees concurrently. Tree seeds are drawn up front so
// the fitted forest does not depend on scheduling.
func (f *RandomForestRegressor) FitContext(ctx context.Context, X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("RandomForestRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("RandomForestRegressor.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("RandomForestRegressor.Fit", "y must be a column vector")
	}
	if f.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be >= 1", f.NEstimators)
	}

	Xd := mat.DenseCopyOf(X)
	target := make([]float64, r)
	mat.Col(target, 0, y)

	master := rand.New(rand.NewPCG(uint64(f.RandomState), 0))
	seeds := make([]int64, f.NEstimators)
	for i := range seeds {
		seeds[i] = master.Int64()
	}

	trees := make([]*tree.DecisionTreeRegressor, f.NEstimators)
	err := parallel.ForEach(ctx, f.NEstimators, f.NJobs, func(_ context.Context, i int) (err error) {
		defer errors.Recover(&err, fmt.Sprintf("RandomForestRegressor.Fit tree %d", i))

		idx := make([]int, r)
		if f.Bootstrap {
			rng := rand.New(rand.NewPCG(uint64(seeds[i]), uint64(i)))
			for k := range idx {
				idx[k] = rng.IntN(r)
			}
		} else {
			for k := range idx {
				idx[k] = k
			}
		}

		t := tree.NewDecisionTreeRegressor(
			tree.WithMaxDepth(f.MaxDepth),
			tree.WithMinSamplesSplit(f.MinSamplesSplit),
			tree.WithMinSamplesLeaf(f.MinSamplesLeaf),
			tree.WithMaxFeatures(f.MaxFeatures),
			tree.WithRandomState(seeds[i]),
		)
		if err := t.FitSubset(Xd, target, idx); err != nil {
			return err
		}
		trees[i] = t
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "RandomForestRegressor.Fit")
	}

	f.Estimators = trees
	f.NFeatures = c
	f.SetFitted()
	return nil
}

// Predict averages the trees' predictions.
func (f *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !f.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestRegressor", "Predict")
	}
	r, c := X.Dims()
	if c != f.NFeatures {
		return nil, errors.NewDimensionError("RandomForestRegressor.Predict", f.NFeatures, c, 1)
	}

	out := mat.NewDense(r, 1, nil)
	row := make([]float64, c)
	n := float64(len(f.Estimators))
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		var sum float64
		for _, t := range f.Estimators {
			sum += t.PredictRow(row)
		}
		out.Set(i, 0, sum/n)
	}
	return out, nil
}

// GetFeatureImportances averages the trees' importances.
func (f *RandomForestRegressor) GetFeatureImportances() []float64 {
	out := make([]float64, f.NFeatures)
	if len(f.Estimators) == 0 {
		return out
	}
	for _, t := range f.Estimators {
		for j, v := range t.Importances {
			out[j] += v
		}
	}
	for j := range out {
		out[j] /= float64(len(f.Estimators))
	}
	return out
}

// GetParams returns the forest's hyperparameters.
func (f *RandomForestRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      f.NEstimators,
		"max_depth":         f.MaxDepth,
		"min_samples_split": f.MinSamplesSplit,
		"min_samples_leaf":  f.MinSamplesLeaf,
		"max_features":      f.MaxFeatures,
		"bootstrap":         f.Bootstrap,
		"random_state":      f.RandomState,
	}
}

func (f *RandomForestRegressor) String() string {
	return fmt.Sprintf("RandomForestRegressor(n_estimators=%d, max_depth=%d, random_state=%d)",
		f.NEstimators, f.MaxDepth, f.RandomState)
}
