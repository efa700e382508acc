package model_selection

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/crimescope/core/model"
	"github.com/YuminosukeSato/crimescope/core/parallel"
	"github.com/YuminosukeSato/crimescope/metrics"
	"github.com/YuminosukeSato/crimescope/pkg/errors"
)

// CVResult stores per-fold R² scores.
type CVResult struct {
	Scores   []float64
	FitTimes []time.Duration
}

// Mean returns the mean fold score.
func (cv *CVResult) Mean() float64 {
	if len(cv.Scores) == 0 {
		return 0
	}
	return stat.Mean(cv.Scores, nil)
}

// Std returns the population standard deviation of the fold scores.
func (cv *CVResult) Std() float64 {
	if len(cv.Scores) <= 1 {
		return 0
	}
	_, std := stat.PopMeanStdDev(cv.Scores, nil)
	return std
}

// CrossValScore fits a fresh model from factory on each fold's training rows
// and scores R² on its held-out rows. Folds run concurrently on up to
// workers goroutines; scores are reported in fold order.
func CrossValScore(ctx context.Context, factory model.Factory, X, y mat.Matrix, splitter *KFold, workers int) (*CVResult, error) {
	n, _ := X.Dims()
	folds, err := splitter.Split(n)
	if err != nil {
		return nil, err
	}

	result := &CVResult{
		Scores:   make([]float64, len(folds)),
		FitTimes: make([]time.Duration, len(folds)),
	}
	err = parallel.ForEach(ctx, len(folds), workers, func(_ context.Context, i int) error {
		fold := folds[i]
		xTrain, yTrain := Subset(X, y, fold.TrainIndices)
		xTest, yTest := Subset(X, y, fold.TestIndices)

		m := factory()
		start := time.Now()
		if err := errors.SafeExecute("CrossValScore.Fit", func() error { return m.Fit(xTrain, yTrain) }); err != nil {
			return errors.Wrapf(err, "fold %d", i)
		}
		result.FitTimes[i] = time.Since(start)

		pred, err := m.Predict(xTest)
		if err != nil {
			return errors.Wrapf(err, "fold %d", i)
		}
		score, err := metrics.R2ScoreMatrix(yTest, pred)
		if err != nil {
			return errors.Wrapf(err, "fold %d", i)
		}
		result.Scores[i] = score
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
