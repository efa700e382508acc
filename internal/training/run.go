package training

import (
	"context"
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/YuminosukeSato/crimescope/internal/dataset"
	"github.com/YuminosukeSato/crimescope/internal/features"
	"github.com/YuminosukeSato/crimescope/pkg/log"
	"github.com/YuminosukeSato/crimescope/sklearn/model_selection"
)

// RunConfig parameterises Run.
type RunConfig struct {
	DataPath         string
	ModelPath        string
	PreprocessorPath string
	RandomState      int64
	TestSize         float64
	CVFolds          int
	Workers          int
}

// DefaultRunConfig mirrors the defaults of the config package.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		DataPath:         dataset.DefaultPath,
		ModelPath:        DefaultModelPath,
		PreprocessorPath: DefaultPreprocessorPath,
		RandomState:      42,
		TestSize:         0.44,
		CVFolds:          5,
	}
}

// Report is what Run produced.
type Report struct {
	Bundle     *Bundle
	Table      Results
	TrainRows  int
	TestRows   int
	DurationMs int64
}

// Run executes the whole pipeline: load, prepare, split, train and compare,
// then save the bundle and the fitted preprocessor.
func Run(ctx context.Context, cfg RunConfig) (*Report, error) {
	logger := log.GetLogger().With(log.ComponentKey, "training")
	start := time.Now()

	frame, err := dataset.Load(cfg.DataPath)
	if err != nil {
		return nil, err
	}
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	prepared, err := features.PrepareForModeling(frame, dataset.DefaultTarget)
	if err != nil {
		return nil, err
	}

	split, err := model_selection.TrainTestSplit(prepared.X, prepared.Y, cfg.TestSize, cfg.RandomState)
	if err != nil {
		return nil, err
	}
	logger.Info("data split",
		log.TestSizeKey, cfg.TestSize,
		log.RandomSeedKey, cfg.RandomState,
		"train_samples", len(split.TrainIndices),
		"test_samples", len(split.TestIndices),
	)

	trainer := NewModelTrainer(cfg.RandomState)
	trainer.Workers = cfg.Workers
	if cfg.CVFolds > 0 {
		trainer.CVFolds = cfg.CVFolds
	}
	trainer.CreateModels()
	if _, err := trainer.TrainAndEvaluate(ctx, split.XTrain, split.XTest, split.YTrain, split.YTest); err != nil {
		return nil, err
	}

	table := trainer.ResultsTable()
	for _, r := range table {
		logger.Info("comparison",
			log.ModelNameKey, r.Name,
			"r2_train", r.Metrics.R2Train,
			"r2_test", r.Metrics.R2Test,
			"rmse_test", r.Metrics.RMSETest,
			"mae_test", r.Metrics.MAETest,
			"cv_r2_mean", r.Metrics.CVR2Mean,
			"cv_r2_std", r.Metrics.CVR2Std,
			"mape_test", r.Metrics.MAPETest,
			"explained_variance_test", r.Metrics.ExplainedVarianceTest,
		)
	}

	bundle, err := trainer.SaveModel(cfg.ModelPath, prepared.Features, prepared.Target, targetMean(frame))
	if err != nil {
		return nil, err
	}

	preprocessorPath := cfg.PreprocessorPath
	if preprocessorPath == "" {
		preprocessorPath = DefaultPreprocessorPath
	}
	if err := SavePreprocessor(prepared.Imputer, preprocessorPath); err != nil {
		return nil, err
	}
	logger.Info("preprocessor saved", log.PathKey, preprocessorPath)

	return &Report{
		Bundle:     bundle,
		Table:      table,
		TrainRows:  len(split.TrainIndices),
		TestRows:   len(split.TestIndices),
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// targetMean averages the raw target column, skipping missing values.
func targetMean(frame *dataset.Frame) float64 {
	values, ok := frame.Numeric(dataset.DefaultTarget)
	if !ok {
		return math.NaN()
	}
	data := make(stats.Float64Data, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			data = append(data, v)
		}
	}
	mean, err := data.Mean()
	if err != nil {
		return math.NaN()
	}
	return mean
}
