// Package tree implements a CART regression tree with squared-error splits.
// It is used directly and as the base learner of the ensembles.
package tree

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/crimescope/core/model"
	"github.com/YuminosukeSato/crimescope/pkg/errors"
)

// leaf marks a node without children.
const leaf = -1

// Node is one node of a fitted tree. Nodes are stored in a flat slice and
// reference their children by index.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
	Impurity  float64
	NSamples  int
}

// DecisionTreeRegressor predicts the mean target of the leaf a sample falls
// into.
type DecisionTreeRegressor struct {
	model.BaseEstimator

	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
	RandomState     int64

	Nodes       []Node
	NFeatures   int
	Importances []float64

	rng *rand.Rand
}

// NewDecisionTreeRegressor creates an unlimited-depth tree.
//
//	dt := tree.NewDecisionTreeRegressor(tree.WithMaxDepth(5))
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	t := &DecisionTreeRegressor{
		MaxDepth:        -1,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Fit grows the tree on every row of X.
func (t *DecisionTreeRegressor) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("DecisionTreeRegressor.Fit", "y must be a column vector")
	}

	target := make([]float64, r)
	mat.Col(target, 0, y)
	idx := make([]int, r)
	for i := range idx {
		idx[i] = i
	}
	return t.FitSubset(mat.DenseCopyOf(X), target, idx)
}

// FitSubset grows the tree on the rows of X listed in idx. Rows may repeat,
// which is how the forest passes bootstrap samples without copying X.
func (t *DecisionTreeRegressor) FitSubset(X *mat.Dense, y []float64, idx []int) error {
	if err := t.validateParams(); err != nil {
		return err
	}
	if len(idx) == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}

	_, c := X.Dims()
	t.NFeatures = c
	t.Nodes = t.Nodes[:0]
	t.Importances = make([]float64, c)
	t.rng = rand.New(rand.NewPCG(uint64(t.RandomState), uint64(t.RandomState)^0x9e3779b97f4a7c15))

	b := &builder{tree: t, X: X, y: y}
	b.grow(append([]int(nil), idx...), 0)

	var total float64
	for _, v := range t.Importances {
		total += v
	}
	if total > 0 {
		for j := range t.Importances {
			t.Importances[j] /= total
		}
	}

	t.SetFitted()
	return nil
}

// Predict walks each row down the tree.
func (t *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !t.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeRegressor", "Predict")
	}
	r, c := X.Dims()
	if c != t.NFeatures {
		return nil, errors.NewDimensionError("DecisionTreeRegressor.Predict", t.NFeatures, c, 1)
	}

	out := mat.NewDense(r, 1, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		out.Set(i, 0, t.PredictRow(row))
	}
	return out, nil
}

// PredictRow predicts a single sample. The tree must be fitted.
func (t *DecisionTreeRegressor) PredictRow(row []float64) float64 {
	n := 0
	for t.Nodes[n].Left != leaf {
		if row[t.Nodes[n].Feature] <= t.Nodes[n].Threshold {
			n = t.Nodes[n].Left
		} else {
			n = t.Nodes[n].Right
		}
	}
	return t.Nodes[n].Value
}

// GetFeatureImportances returns the normalised impurity decrease per feature.
func (t *DecisionTreeRegressor) GetFeatureImportances() []float64 {
	out := make([]float64, len(t.Importances))
	copy(out, t.Importances)
	return out
}

// GetDepth returns the depth of the fitted tree; a lone root has depth 0.
func (t *DecisionTreeRegressor) GetDepth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var depth func(n int) int
	depth = func(n int) int {
		if t.Nodes[n].Left == leaf {
			return 0
		}
		return 1 + max(depth(t.Nodes[n].Left), depth(t.Nodes[n].Right))
	}
	return depth(0)
}

// GetNLeaves returns the number of leaves.
func (t *DecisionTreeRegressor) GetNLeaves() int {
	n := 0
	for _, node := range t.Nodes {
		if node.Left == leaf {
			n++
		}
	}
	return n
}

// GetParams returns the tree's hyperparameters.
func (t *DecisionTreeRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         "squared_error",
		"max_depth":         t.MaxDepth,
		"min_samples_split": t.MinSamplesSplit,
		"min_samples_leaf":  t.MinSamplesLeaf,
		"max_features":      t.MaxFeatures,
		"random_state":      t.RandomState,
	}
}

// SetParams updates hyperparameters by name.
func (t *DecisionTreeRegressor) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "max_depth":
			v, ok := value.(int)
			if !ok {
				return errors.NewValidationError(key, "must be an int", value)
			}
			t.MaxDepth = v
		case "min_samples_split":
			v, ok := value.(int)
			if !ok {
				return errors.NewValidationError(key, "must be an int", value)
			}
			t.MinSamplesSplit = v
		case "min_samples_leaf":
			v, ok := value.(int)
			if !ok {
				return errors.NewValidationError(key, "must be an int", value)
			}
			t.MinSamplesLeaf = v
		case "max_features":
			v, ok := value.(int)
			if !ok {
				return errors.NewValidationError(key, "must be an int", value)
			}
			t.MaxFeatures = v
		case "random_state":
			switch v := value.(type) {
			case int:
				t.RandomState = int64(v)
			case int64:
				t.RandomState = v
			default:
				return errors.NewValidationError(key, "must be an integer", value)
			}
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return t.validateParams()
}

func (t *DecisionTreeRegressor) String() string {
	return fmt.Sprintf("DecisionTreeRegressor(max_depth=%d, min_samples_split=%d, min_samples_leaf=%d)",
		t.MaxDepth, t.MinSamplesSplit, t.MinSamplesLeaf)
}

func (t *DecisionTreeRegressor) validateParams() error {
	if t.MinSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be >= 2", t.MinSamplesSplit)
	}
	if t.MinSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be >= 1", t.MinSamplesLeaf)
	}
	return nil
}

type builder struct {
	tree *DecisionTreeRegressor
	X    *mat.Dense
	y    []float64
}

type split struct {
	feature   int
	threshold float64
	pos       int
	gain      float64
}

// grow appends the node for idx and recurses; it returns the node index.
func (b *builder) grow(idx []int, depth int) int {
	t := b.tree
	mean, impurity := meanVariance(b.y, idx)

	id := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{
		Feature:  leaf,
		Left:     leaf,
		Right:    leaf,
		Value:    mean,
		Impurity: impurity,
		NSamples: len(idx),
	})

	if (t.MaxDepth > 0 && depth >= t.MaxDepth) ||
		len(idx) < t.MinSamplesSplit ||
		len(idx) < 2*t.MinSamplesLeaf ||
		impurity <= 1e-12 {
		return id
	}

	best, ok := b.bestSplit(idx, impurity)
	if !ok {
		return id
	}

	b.sortBy(idx, best.feature)
	left := append([]int(nil), idx[:best.pos]...)
	right := append([]int(nil), idx[best.pos:]...)

	t.Importances[best.feature] += best.gain * float64(len(idx))

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	t.Nodes[id].Feature = best.feature
	t.Nodes[id].Threshold = best.threshold
	t.Nodes[id].Left = l
	t.Nodes[id].Right = r
	return id
}

// bestSplit scans candidate features for the split with the largest
// reduction in variance.
func (b *builder) bestSplit(idx []int, parentImpurity float64) (split, bool) {
	t := b.tree
	features := make([]int, t.NFeatures)
	for j := range features {
		features[j] = j
	}
	nTry := t.NFeatures
	if t.MaxFeatures > 0 && t.MaxFeatures < t.NFeatures {
		t.rng.Shuffle(len(features), func(i, j int) {
			features[i], features[j] = features[j], features[i]
		})
		nTry = t.MaxFeatures
	}

	n := float64(len(idx))
	var total, totalSq float64
	for _, i := range idx {
		total += b.y[i]
		totalSq += b.y[i] * b.y[i]
	}

	best := split{gain: 0}
	found := false
	work := append([]int(nil), idx...)
	for _, f := range features[:nTry] {
		b.sortBy(work, f)
		var leftSum, leftSq float64
		for p := 1; p < len(work); p++ {
			v := b.y[work[p-1]]
			leftSum += v
			leftSq += v * v

			if p < t.MinSamplesLeaf || len(work)-p < t.MinSamplesLeaf {
				continue
			}
			lo, hi := b.X.At(work[p-1], f), b.X.At(work[p], f)
			if lo == hi {
				continue
			}

			nl, nr := float64(p), n-float64(p)
			rightSum, rightSq := total-leftSum, totalSq-leftSq
			lImp := leftSq/nl - (leftSum/nl)*(leftSum/nl)
			rImp := rightSq/nr - (rightSum/nr)*(rightSum/nr)
			gain := parentImpurity - (nl*lImp+nr*rImp)/n

			if gain > best.gain+1e-12 {
				threshold := lo + (hi-lo)/2
				if threshold == hi {
					threshold = lo
				}
				best = split{feature: f, threshold: threshold, pos: p, gain: gain}
				found = true
			}
		}
	}
	return best, found
}

func (b *builder) sortBy(idx []int, feature int) {
	sort.SliceStable(idx, func(i, j int) bool {
		return b.X.At(idx[i], feature) < b.X.At(idx[j], feature)
	})
}

func meanVariance(y []float64, idx []int) (mean, variance float64) {
	n := float64(len(idx))
	for _, i := range idx {
		mean += y[i]
	}
	mean /= n
	for _, i := range idx {
		d := y[i] - mean
		variance += d * d
	}
	variance /= n
	if math.IsNaN(variance) {
		variance = 0
	}
	return mean, variance
}
