package training

import (
	"encoding/gob"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/crimescope/core/model"
	"github.com/YuminosukeSato/crimescope/linear"
	"github.com/YuminosukeSato/crimescope/pkg/errors"
	"github.com/YuminosukeSato/crimescope/preprocessing"
	"github.com/YuminosukeSato/crimescope/sklearn/ensemble"
	"github.com/YuminosukeSato/crimescope/sklearn/tree"
)

// Default artifact locations.
const (
	DefaultModelPath        = "models/best_model.gob"
	DefaultPreprocessorPath = "models/preprocessor.gob"
)

func init() {
	gob.Register(&model.Pipeline{})
	gob.Register(&linear.LinearRegression{})
	gob.Register(&preprocessing.StandardScaler{})
	gob.Register(&tree.DecisionTreeRegressor{})
	gob.Register(&ensemble.RandomForestRegressor{})
	gob.Register(&ensemble.GradientBoostingRegressor{})
}

// Bundle is the single persisted artifact: the best fitted model plus the
// comparison it won.
type Bundle struct {
	ID         string
	Model      model.Regressor
	ModelName  string
	Metrics    Metrics
	AllResults Results
	Features   []string
	Target     string
	TrainedAt  string
	// TargetMean is the dataset mean of Target, the baseline predictions are
	// compared against.
	TargetMean float64
}

// PredictRow predicts a single sample whose values follow b.Features.
func (b *Bundle) PredictRow(values []float64) (float64, error) {
	preds, err := b.PredictRows([][]float64{values})
	if err != nil {
		return 0, err
	}
	return preds[0], nil
}

// PredictRows predicts several samples at once.
func (b *Bundle) PredictRows(rows [][]float64) ([]float64, error) {
	if b == nil || b.Model == nil {
		return nil, errors.ErrModelNotFound
	}
	if len(rows) == 0 {
		return nil, errors.NewModelError("Bundle.Predict", "empty data", errors.ErrEmptyData)
	}
	X := mat.NewDense(len(rows), len(b.Features), nil)
	for i, row := range rows {
		if len(row) != len(b.Features) {
			return nil, errors.NewDimensionError("Bundle.Predict", len(b.Features), len(row), 1)
		}
		X.SetRow(i, row)
	}
	pred, err := b.Model.Predict(X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i := range out {
		out[i] = pred.At(i, 0)
	}
	return out, nil
}

// FeatureImportance is one feature's share of a tree model's impurity
// decrease.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

type importancer interface {
	GetFeatureImportances() []float64
}

// Importances returns the model's feature importances, largest first. It is
// nil for models without them, such as the linear regression.
func (b *Bundle) Importances() []FeatureImportance {
	if b == nil || b.Model == nil {
		return nil
	}
	m, ok := b.Model.(importancer)
	if !ok {
		return nil
	}
	values := m.GetFeatureImportances()
	if len(values) != len(b.Features) {
		return nil
	}
	out := make([]FeatureImportance, len(values))
	for i, v := range values {
		out[i] = FeatureImportance{Feature: b.Features[i], Importance: v}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Importance > out[j].Importance })
	return out
}

// SaveBundle gob-encodes b to path.
func SaveBundle(b *Bundle, path string) error {
	if err := model.SaveModel(b, path); err != nil {
		return errors.Wrap(err, "save bundle")
	}
	return nil
}

// LoadBundle reads a bundle written by SaveBundle. A missing file yields an
// error matching errors.ErrModelNotFound.
func LoadBundle(path string) (*Bundle, error) {
	var b Bundle
	if err := model.LoadModel(&b, path); err != nil {
		return nil, err
	}
	if b.Model == nil || !b.Model.IsFitted() {
		return nil, errors.NewModelError("LoadBundle", "bundle holds no fitted model", nil)
	}
	return &b, nil
}

// SavePreprocessor writes the fitted imputer next to the bundle.
func SavePreprocessor(imp *preprocessing.MedianImputer, path string) error {
	if imp == nil || !imp.IsFitted() {
		return errors.NewNotFittedError("MedianImputer", "SavePreprocessor")
	}
	return model.SaveModel(imp, path)
}

// LoadPreprocessor reads an imputer written by SavePreprocessor.
func LoadPreprocessor(path string) (*preprocessing.MedianImputer, error) {
	var imp preprocessing.MedianImputer
	if err := model.LoadModel(&imp, path); err != nil {
		return nil, err
	}
	return &imp, nil
}
