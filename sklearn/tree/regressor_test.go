package tree

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/crimescope/core/model"
)

var _ model.Regressor = (*DecisionTreeRegressor)(nil)

// TestDecisionTreeRegressor_StepFunction tests that a single split recovers a step
func TestDecisionTreeRegressor_StepFunction(t *testing.T) {
	X := mat.NewDense(8, 1, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	y := mat.NewDense(8, 1, []float64{
		10, 10, 10, 10, // x <= 4
		50, 50, 50, 50, // x > 4
	})

	dt := NewDecisionTreeRegressor(WithMaxDepth(1))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	if dt.Nodes[0].Threshold != 4.5 {
		t.Errorf("root threshold = %v, want 4.5", dt.Nodes[0].Threshold)
	}

	XTest := mat.NewDense(3, 1, []float64{0, 4.4, 100})
	preds, err := dt.Predict(XTest)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}
	want := []float64{10, 10, 50}
	for i, w := range want {
		if preds.At(i, 0) != w {
			t.Errorf("sample %d: got %v, want %v", i, preds.At(i, 0), w)
		}
	}
}

// TestDecisionTreeRegressor_FitsTrainingDataExactly tests unlimited depth memorisation
func TestDecisionTreeRegressor_FitsTrainingDataExactly(t *testing.T) {
	X := mat.NewDense(6, 2, []float64{
		0, 1,
		1, 3,
		2, 0,
		3, 5,
		4, 2,
		5, 4,
	})
	y := mat.NewDense(6, 1, []float64{3.5, -1, 7, 2, 0.25, 9})

	dt := NewDecisionTreeRegressor()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}
	preds, err := dt.Predict(X)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 6; i++ {
		if math.Abs(preds.At(i, 0)-y.At(i, 0)) > 1e-12 {
			t.Errorf("sample %d: got %v, want %v", i, preds.At(i, 0), y.At(i, 0))
		}
	}
	if dt.GetNLeaves() != 6 {
		t.Errorf("expected 6 leaves, got %d", dt.GetNLeaves())
	}
}

// TestDecisionTreeRegressor_FeatureImportances tests that the informative feature dominates
func TestDecisionTreeRegressor_FeatureImportances(t *testing.T) {
	X := mat.NewDense(8, 3, []float64{
		0, 0, 0,
		0, 1, 1,
		0, 0, 1,
		0, 1, 0,
		1, 0, 0,
		1, 1, 1,
		1, 0, 1,
		1, 1, 0,
	})
	y := mat.NewDense(8, 1, []float64{1, 1, 1, 1, 5, 5, 5, 5})

	dt := NewDecisionTreeRegressor()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	importances := dt.GetFeatureImportances()
	if len(importances) != 3 {
		t.Fatalf("Expected 3 feature importances, got %d", len(importances))
	}
	if importances[0] != 1.0 {
		t.Errorf("Feature 0 should carry all importance: %v", importances)
	}
}

// TestDecisionTreeRegressor_MaxDepth tests max depth constraint
func TestDecisionTreeRegressor_MaxDepth(t *testing.T) {
	X := mat.NewDense(16, 2, nil)
	y := mat.NewDense(16, 1, nil)
	for i := 0; i < 16; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i%4))
		y.Set(i, 0, float64(i*i))
	}

	dt := NewDecisionTreeRegressor(WithMaxDepth(2))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}
	if depth := dt.GetDepth(); depth != 2 {
		t.Errorf("Tree depth %d, want 2", depth)
	}
	if dt.GetNLeaves() > 4 {
		t.Errorf("depth-2 tree has %d leaves", dt.GetNLeaves())
	}
}

// TestDecisionTreeRegressor_MinSamples tests minimum samples constraints
func TestDecisionTreeRegressor_MinSamples(t *testing.T) {
	X := mat.NewDense(10, 1, nil)
	y := mat.NewDense(10, 1, nil)
	for i := 0; i < 10; i++ {
		X.Set(i, 0, float64(i))
		y.Set(i, 0, float64(i%3))
	}

	dt := NewDecisionTreeRegressor(WithMinSamplesSplit(5), WithMinSamplesLeaf(2))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}
	for _, n := range dt.Nodes {
		if n.Left == leaf && n.NSamples < 2 {
			t.Errorf("leaf with %d samples violates min_samples_leaf", n.NSamples)
		}
		if n.Left != leaf && n.NSamples < 5 {
			t.Errorf("split node with %d samples violates min_samples_split", n.NSamples)
		}
	}
}

// TestDecisionTreeRegressor_ConstantTarget tests that a pure node is not split
func TestDecisionTreeRegressor_ConstantTarget(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{7, 7, 7, 7})

	dt := NewDecisionTreeRegressor()
	if err := dt.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if len(dt.Nodes) != 1 || dt.Nodes[0].Value != 7 {
		t.Errorf("expected a single leaf predicting 7, got %+v", dt.Nodes)
	}
}

// TestDecisionTreeRegressor_MaxFeaturesDeterministic tests that a seed fixes the tree
func TestDecisionTreeRegressor_MaxFeaturesDeterministic(t *testing.T) {
	X := mat.NewDense(20, 4, nil)
	y := mat.NewDense(20, 1, nil)
	for i := 0; i < 20; i++ {
		for j := 0; j < 4; j++ {
			X.Set(i, j, float64((i*(j+3))%7))
		}
		y.Set(i, 0, X.At(i, 0)+2*X.At(i, 2))
	}

	a := NewDecisionTreeRegressor(WithMaxFeatures(2), WithRandomState(42))
	b := NewDecisionTreeRegressor(WithMaxFeatures(2), WithRandomState(42))
	if err := a.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if err := b.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if len(a.Nodes) != len(b.Nodes) {
		t.Fatalf("same seed gave %d and %d nodes", len(a.Nodes), len(b.Nodes))
	}
	for i := range a.Nodes {
		if a.Nodes[i] != b.Nodes[i] {
			t.Fatalf("node %d differs: %+v vs %+v", i, a.Nodes[i], b.Nodes[i])
		}
	}
}

// TestDecisionTreeRegressor_GetSetParams tests parameter management
func TestDecisionTreeRegressor_GetSetParams(t *testing.T) {
	dt := NewDecisionTreeRegressor()

	params := dt.GetParams()
	if params["criterion"].(string) != "squared_error" {
		t.Errorf("criterion = %v", params["criterion"])
	}
	if params["min_samples_split"].(int) != 2 {
		t.Errorf("Default min_samples_split should be 2, got %v", params["min_samples_split"])
	}

	err := dt.SetParams(map[string]interface{}{
		"max_depth":         5,
		"min_samples_split": 4,
		"min_samples_leaf":  2,
		"random_state":      7,
	})
	if err != nil {
		t.Fatalf("Failed to set params: %v", err)
	}
	if dt.MaxDepth != 5 || dt.MinSamplesSplit != 4 || dt.MinSamplesLeaf != 2 || dt.RandomState != 7 {
		t.Errorf("params not updated: %s", dt)
	}

	if err := dt.SetParams(map[string]interface{}{"min_samples_leaf": 0}); err == nil {
		t.Error("expected validation error for min_samples_leaf=0")
	}
	if err := dt.SetParams(map[string]interface{}{"criterion": "gini"}); err == nil {
		t.Error("expected error for unknown parameter")
	}
}

// TestDecisionTreeRegressor_NotFitted tests error when predicting without fitting
func TestDecisionTreeRegressor_NotFitted(t *testing.T) {
	dt := NewDecisionTreeRegressor()

	_, err := dt.Predict(mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
	if err == nil {
		t.Error("Expected error when predicting without fitting")
	}
}

// TestDecisionTreeRegressor_DimensionMismatch tests input validation
func TestDecisionTreeRegressor_DimensionMismatch(t *testing.T) {
	dt := NewDecisionTreeRegressor()
	if err := dt.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(2, 1, []float64{1, 2})); err == nil {
		t.Error("expected error for mismatched rows")
	}

	if err := dt.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(3, 1, []float64{1, 2, 3})); err != nil {
		t.Fatal(err)
	}
	if _, err := dt.Predict(mat.NewDense(1, 2, nil)); err == nil {
		t.Error("expected error for wrong feature count")
	}
}
