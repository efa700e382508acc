// Package metrics implements the regression scores reported for every
// trained model.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/crimescope/pkg/errors"
)

// MSE computes the mean squared error.
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// MSEMatrix computes MSE for n×1 column matrices.
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	t, p, err := columnPair("MSEMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return MSE(t, p)
}

// RMSE computes the root mean squared error.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE computes the mean absolute error.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score computes the coefficient of determination.
//
// When yTrue has no variance the score is undefined: an UndefinedMetricWarning
// is raised and 1 is returned for a perfect prediction, 0 otherwise.
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	var tss, rss float64
	for i := 0; i < n; i++ {
		yt := yTrue.AtVec(i)
		yp := yPred.AtVec(i)
		tss += (yt - yMean) * (yt - yMean)
		rss += (yt - yp) * (yt - yp)
	}

	if tss == 0 {
		result := 0.0
		if rss == 0 {
			result = 1.0
		}
		errors.Warn(errors.NewUndefinedMetricWarning("R2Score", "zero variance in yTrue", result))
		return result, nil
	}

	// R² = 1 - RSS/TSS
	return 1 - rss/tss, nil
}

// R2ScoreMatrix computes R² for n×1 column matrices.
func R2ScoreMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	t, p, err := columnPair("R2ScoreMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return R2Score(t, p)
}

// MAPE computes the mean absolute percentage error, skipping zero targets.
// When every target is zero the score is undefined: an UndefinedMetricWarning
// is raised and 0 is returned.
func MAPE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAPE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MAPE = (100/n) * Σ|yTrue - yPred|/|yTrue|
	var sum float64
	valid := 0
	for i := 0; i < n; i++ {
		yt := yTrue.AtVec(i)
		if yt != 0 {
			sum += math.Abs(yt-yPred.AtVec(i)) / math.Abs(yt)
			valid++
		}
	}
	if valid == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("MAPE", "all yTrue values are zero", 0))
		return 0, nil
	}
	return (sum / float64(valid)) * 100, nil
}

// ExplainedVarianceScore computes 1 - Var(yTrue - yPred) / Var(yTrue). A
// constant yTrue follows R2Score: 1 when the residuals are constant too, 0
// otherwise, with an UndefinedMetricWarning.
func ExplainedVarianceScore(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("ExplainedVarianceScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var yTrueMean, diffMean float64
	for i := 0; i < n; i++ {
		yTrueMean += yTrue.AtVec(i)
		diffMean += yTrue.AtVec(i) - yPred.AtVec(i)
	}
	yTrueMean /= float64(n)
	diffMean /= float64(n)

	var varYTrue, varDiff float64
	for i := 0; i < n; i++ {
		yt := yTrue.AtVec(i)
		diff := yt - yPred.AtVec(i)
		varYTrue += (yt - yTrueMean) * (yt - yTrueMean)
		varDiff += (diff - diffMean) * (diff - diffMean)
	}
	if varYTrue == 0 {
		result := 0.0
		if varDiff == 0 {
			result = 1.0
		}
		errors.Warn(errors.NewUndefinedMetricWarning("ExplainedVarianceScore", "zero variance in yTrue", result))
		return result, nil
	}
	return 1 - varDiff/varYTrue, nil
}

// Scores groups the scores reported per split.
type Scores struct {
	R2                float64 `json:"r2"`
	RMSE              float64 `json:"rmse"`
	MAE               float64 `json:"mae"`
	MAPE              float64 `json:"mape"`
	ExplainedVariance float64 `json:"explained_variance"`
}

// Evaluate computes every Scores field for n×1 column matrices.
func Evaluate(yTrue, yPred mat.Matrix) (Scores, error) {
	t, p, err := columnPair("Evaluate", yTrue, yPred)
	if err != nil {
		return Scores{}, err
	}
	r2, err := R2Score(t, p)
	if err != nil {
		return Scores{}, err
	}
	rmse, err := RMSE(t, p)
	if err != nil {
		return Scores{}, err
	}
	mae, err := MAE(t, p)
	if err != nil {
		return Scores{}, err
	}
	mape, err := MAPE(t, p)
	if err != nil {
		return Scores{}, err
	}
	ev, err := ExplainedVarianceScore(t, p)
	if err != nil {
		return Scores{}, err
	}
	return Scores{R2: r2, RMSE: rmse, MAE: mae, MAPE: mape, ExplainedVariance: ev}, nil
}

// ColumnVector copies the first column of m into a VecDense.
func ColumnVector(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	if r == 0 {
		return &mat.VecDense{}
	}
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

func columnPair(op string, yTrue, yPred mat.Matrix) (*mat.VecDense, *mat.VecDense, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()
	if rTrue == 0 || cTrue == 0 {
		return nil, nil, errors.NewValueError(op, "empty matrix")
	}
	if rTrue != rPred || cTrue != cPred {
		return nil, nil, errors.NewDimensionError(op, rTrue, rPred, 0)
	}
	if cTrue != 1 {
		return nil, nil, errors.NewValueError(op, "must be a column vector (n×1 matrix)")
	}
	return ColumnVector(yTrue), ColumnVector(yPred), nil
}
