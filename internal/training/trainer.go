// Package training fits the candidate regressors, compares them on a
// hold-out split and cross-validation, and persists the winner as a bundle.
package training

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/crimescope/core/model"
	"github.com/YuminosukeSato/crimescope/linear"
	"github.com/YuminosukeSato/crimescope/metrics"
	"github.com/YuminosukeSato/crimescope/pkg/errors"
	"github.com/YuminosukeSato/crimescope/pkg/log"
	"github.com/YuminosukeSato/crimescope/preprocessing"
	"github.com/YuminosukeSato/crimescope/sklearn/ensemble"
	"github.com/YuminosukeSato/crimescope/sklearn/model_selection"
)

// Model names, in the order they are trained.
const (
	LinearRegressionName = "Linear Regression"
	RandomForestName     = "Random Forest"
	GradientBoostingName = "Gradient Boosting"
)

// TimeLayout formats Bundle.TrainedAt.
const TimeLayout = "2006-01-02 15:04:05"

// Candidate is a named model constructor.
type Candidate struct {
	Name string
	New  model.Factory
}

// ModelTrainer trains every candidate and remembers the best one.
type ModelTrainer struct {
	RandomState int64
	CVFolds     int
	// Workers bounds concurrent forest trees and CV folds. Zero uses GOMAXPROCS.
	Workers int

	candidates []Candidate
	fitted     []model.Regressor
	results    Results
	best       int

	logger log.Logger
}

// NewModelTrainer creates a trainer with 5-fold cross-validation.
func NewModelTrainer(randomState int64) *ModelTrainer {
	return &ModelTrainer{
		RandomState: randomState,
		CVFolds:     5,
		best:        -1,
		logger:      log.GetLogger().With(log.ComponentKey, "training"),
	}
}

// CreateModels builds the candidate list: OLS behind a standard scaler, a
// random forest and gradient boosting.
func (t *ModelTrainer) CreateModels() []Candidate {
	seed := t.RandomState
	workers := t.Workers
	t.candidates = []Candidate{
		{
			Name: LinearRegressionName,
			New: func() model.Regressor {
				return model.NewPipeline(linear.NewLinearRegression(), preprocessing.NewStandardScalerDefault())
			},
		},
		{
			Name: RandomForestName,
			New: func() model.Regressor {
				return ensemble.NewRandomForestRegressor(
					ensemble.WithNEstimators(100),
					ensemble.WithForestMaxDepth(10),
					ensemble.WithForestRandomState(seed),
					ensemble.WithNJobs(workers),
				)
			},
		},
		{
			Name: GradientBoostingName,
			New: func() model.Regressor {
				return ensemble.NewGradientBoostingRegressor(
					ensemble.WithStages(100),
					ensemble.WithLearningRate(0.1),
					ensemble.WithBoostingMaxDepth(5),
					ensemble.WithBoostingRandomState(seed),
				)
			},
		},
	}
	return t.candidates
}

type contextFitter interface {
	FitContext(ctx context.Context, X, y mat.Matrix) error
}

func fit(ctx context.Context, m model.Regressor, X, y mat.Matrix) error {
	if cf, ok := m.(contextFitter); ok {
		return cf.FitContext(ctx, X, y)
	}
	return m.Fit(X, y)
}

// TrainAndEvaluate fits each candidate on the training rows, scores it on both
// sides of the split and cross-validates it on the training rows.
func (t *ModelTrainer) TrainAndEvaluate(ctx context.Context, xTrain, xTest, yTrain, yTest mat.Matrix) (Results, error) {
	if len(t.candidates) == 0 {
		t.CreateModels()
	}
	folds := t.CVFolds
	if folds == 0 {
		folds = 5
	}

	t.results = make(Results, 0, len(t.candidates))
	t.fitted = make([]model.Regressor, 0, len(t.candidates))
	t.best = -1

	for _, c := range t.candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logger := t.logger.With(log.ModelNameKey, c.Name)
		start := time.Now()

		m := c.New()
		if err := fit(ctx, m, xTrain, yTrain); err != nil {
			return nil, errors.NewModelError("TrainAndEvaluate", c.Name, err)
		}
		predTrain, err := m.Predict(xTrain)
		if err != nil {
			return nil, errors.Wrap(err, c.Name)
		}
		predTest, err := m.Predict(xTest)
		if err != nil {
			return nil, errors.Wrap(err, c.Name)
		}
		train, err := metrics.Evaluate(yTrain, predTrain)
		if err != nil {
			return nil, errors.Wrap(err, c.Name)
		}
		test, err := metrics.Evaluate(yTest, predTest)
		if err != nil {
			return nil, errors.Wrap(err, c.Name)
		}

		cv, err := model_selection.CrossValScore(ctx, c.New, xTrain, yTrain, model_selection.NewKFold(folds, false, 0), t.Workers)
		if err != nil {
			return nil, errors.Wrapf(err, "%s cross-validation", c.Name)
		}

		mt := Metrics{
			R2Train: train.R2, R2Test: test.R2,
			RMSETrain: train.RMSE, RMSETest: test.RMSE,
			MAETrain: train.MAE, MAETest: test.MAE,
			CVR2Mean: cv.Mean(), CVR2Std: cv.Std(),
			MAPETest: test.MAPE, ExplainedVarianceTest: test.ExplainedVariance,
		}
		// a NaN score would never be picked as best and hides a broken model
		if err := errors.CheckScalar(c.Name+" test R²", mt.R2Test, 0); err != nil {
			return nil, err
		}
		if err := errors.CheckScalar(c.Name+" CV R²", mt.CVR2Mean, 0); err != nil {
			return nil, err
		}
		t.results = append(t.results, Result{Name: c.Name, Metrics: mt})
		t.fitted = append(t.fitted, m)

		logger.Info("model evaluated",
			log.R2ScoreKey, mt.R2Test,
			log.RMSEKey, mt.RMSETest,
			log.MAEKey, mt.MAETest,
			log.CVMeanKey, mt.CVR2Mean,
			log.CVStdKey, mt.CVR2Std,
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
	}

	t.best = t.results.Best()
	if t.best >= 0 {
		t.logger.Info("best model selected",
			log.ModelNameKey, t.results[t.best].Name,
			log.R2ScoreKey, t.results[t.best].Metrics.R2Test,
		)
	}
	return t.results, nil
}

// Results returns the unrounded results of the last TrainAndEvaluate.
func (t *ModelTrainer) Results() Results { return t.results }

// ResultsTable returns the results rounded to 4 decimals.
func (t *ModelTrainer) ResultsTable() Results { return t.results.Round(4) }

// BestModel returns the fitted winner and its name.
func (t *ModelTrainer) BestModel() (model.Regressor, string, bool) {
	if t.best < 0 {
		return nil, "", false
	}
	return t.fitted[t.best], t.results[t.best].Name, true
}

// Bundle packages the best model for SaveModel. features, target and
// targetMean describe the data the model was trained on.
func (t *ModelTrainer) Bundle(features []string, target string, targetMean float64) (*Bundle, error) {
	best, name, ok := t.BestModel()
	if !ok {
		return nil, errors.NewNotFittedError("ModelTrainer", "SaveModel")
	}
	return &Bundle{
		ID:         uuid.NewString(),
		Model:      best,
		ModelName:  name,
		Metrics:    t.results[t.best].Metrics,
		AllResults: append(Results(nil), t.results...),
		Features:   append([]string(nil), features...),
		Target:     target,
		TrainedAt:  time.Now().Format(TimeLayout),
		TargetMean: targetMean,
	}, nil
}

// SaveModel writes the best model bundle to path, creating parent
// directories. It fails before TrainAndEvaluate has selected a model.
func (t *ModelTrainer) SaveModel(path string, features []string, target string, targetMean float64) (*Bundle, error) {
	b, err := t.Bundle(features, target, targetMean)
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = DefaultModelPath
	}
	if err := SaveBundle(b, path); err != nil {
		return nil, err
	}
	t.logger.Info("model saved", log.PathKey, path, log.BundleIDKey, b.ID, log.ModelNameKey, b.ModelName)
	return b, nil
}
