// Package model_selection splits data for hold-out evaluation and k-fold
// cross-validation.
package model_selection

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/crimescope/pkg/errors"
)

// Split holds the four matrices of a hold-out split together with the row
// indices they were taken from.
type Split struct {
	XTrain, XTest *mat.Dense
	YTrain, YTest *mat.Dense
	TrainIndices  []int
	TestIndices   []int
}

// TrainTestSplit shuffles the rows with seed and holds out ceil(testSize·n)
// of them. testSize must lie in (0, 1) and both sides must be non-empty.
//
//	s, err := model_selection.TrainTestSplit(X, y, 0.44, 42)
func TrainTestSplit(X, y mat.Matrix, testSize float64, seed int64) (*Split, error) {
	n, _ := X.Dims()
	ny, _ := y.Dims()
	if n == 0 {
		return nil, errors.NewModelError("TrainTestSplit", "empty data", errors.ErrEmptyData)
	}
	if ny != n {
		return nil, errors.NewDimensionError("TrainTestSplit", n, ny, 0)
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}

	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTrain < 1 || nTest < 1 {
		return nil, errors.NewValueError("TrainTestSplit",
			"the resulting train or test set would be empty; provide more samples or adjust test_size")
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	perm := rng.Perm(n)

	s := &Split{
		TestIndices:  append([]int(nil), perm[:nTest]...),
		TrainIndices: append([]int(nil), perm[nTest:]...),
	}
	s.XTrain, s.YTrain = Subset(X, y, s.TrainIndices)
	s.XTest, s.YTest = Subset(X, y, s.TestIndices)
	return s, nil
}

// Subset copies the listed rows of X and y, in the order given.
func Subset(X, y mat.Matrix, indices []int) (*mat.Dense, *mat.Dense) {
	_, xCols := X.Dims()
	_, yCols := y.Dims()
	if len(indices) == 0 {
		return &mat.Dense{}, &mat.Dense{}
	}
	xs := mat.NewDense(len(indices), xCols, nil)
	ys := mat.NewDense(len(indices), yCols, nil)
	for i, idx := range indices {
		for j := 0; j < xCols; j++ {
			xs.Set(i, j, X.At(idx, j))
		}
		for j := 0; j < yCols; j++ {
			ys.Set(i, j, y.At(idx, j))
		}
	}
	return xs, ys
}

// Fold is one train/test partition of a k-fold split.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold partitions rows into NSplits consecutive folds. The first n%k folds
// get one extra row.
type KFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int64
}

// NewKFold creates a splitter; nSplits below 2 falls back to 5.
func NewKFold(nSplits int, shuffle bool, randomSeed int64) *KFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &KFold{NSplits: nSplits, Shuffle: shuffle, RandomSeed: randomSeed}
}

// Split returns the folds for n samples.
func (kf *KFold) Split(n int) ([]Fold, error) {
	if kf.NSplits > n {
		return nil, errors.NewValidationError("n_splits",
			"cannot be greater than the number of samples", kf.NSplits)
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(kf.RandomSeed), uint64(kf.RandomSeed)))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]Fold, kf.NSplits)
	foldSize := n / kf.NSplits
	remainder := n % kf.NSplits

	current := 0
	for i := 0; i < kf.NSplits; i++ {
		size := foldSize
		if i < remainder {
			size++
		}
		test := append([]int(nil), indices[current:current+size]...)
		train := make([]int, 0, n-size)
		train = append(train, indices[:current]...)
		train = append(train, indices[current+size:]...)
		sort.Ints(test)
		sort.Ints(train)
		folds[i] = Fold{TrainIndices: train, TestIndices: test}
		current += size
	}
	return folds, nil
}
