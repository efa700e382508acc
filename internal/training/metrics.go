package training

import "math"

// Metrics are the scores recorded for one model.
type Metrics struct {
	R2Train   float64 `json:"r2_train"`
	R2Test    float64 `json:"r2_test"`
	RMSETrain float64 `json:"rmse_train"`
	RMSETest  float64 `json:"rmse_test"`
	MAETrain  float64 `json:"mae_train"`
	MAETest   float64 `json:"mae_test"`
	CVR2Mean  float64 `json:"cv_r2_mean"`
	CVR2Std   float64 `json:"cv_r2_std"`
	// MAPETest is a percentage; zero-victim rows are skipped.
	MAPETest              float64 `json:"mape_test"`
	ExplainedVarianceTest float64 `json:"explained_variance_test"`
}

// MetricNames lists the metric keys in table order.
var MetricNames = []string{
	"r2_train", "r2_test",
	"rmse_train", "rmse_test",
	"mae_train", "mae_test",
	"cv_r2_mean", "cv_r2_std",
	"mape_test", "explained_variance_test",
}

// Values returns the metrics in MetricNames order.
func (m Metrics) Values() []float64 {
	return []float64{
		m.R2Train, m.R2Test,
		m.RMSETrain, m.RMSETest,
		m.MAETrain, m.MAETest,
		m.CVR2Mean, m.CVR2Std,
		m.MAPETest, m.ExplainedVarianceTest,
	}
}

// Round returns a copy with every value rounded to decimals places.
func (m Metrics) Round(decimals int) Metrics {
	p := math.Pow(10, float64(decimals))
	r := func(v float64) float64 { return math.Round(v*p) / p }
	return Metrics{
		R2Train: r(m.R2Train), R2Test: r(m.R2Test),
		RMSETrain: r(m.RMSETrain), RMSETest: r(m.RMSETest),
		MAETrain: r(m.MAETrain), MAETest: r(m.MAETest),
		CVR2Mean: r(m.CVR2Mean), CVR2Std: r(m.CVR2Std),
		MAPETest: r(m.MAPETest), ExplainedVarianceTest: r(m.ExplainedVarianceTest),
	}
}

// Result pairs a model name with its metrics.
type Result struct {
	Name    string  `json:"model"`
	Metrics Metrics `json:"metrics"`
}

// Results keeps models in creation order.
type Results []Result

// Get looks a model up by name.
func (rs Results) Get(name string) (Metrics, bool) {
	for _, r := range rs {
		if r.Name == name {
			return r.Metrics, true
		}
	}
	return Metrics{}, false
}

// Best returns the index of the highest test R². Ties keep the earlier model;
// -1 means rs is empty.
func (rs Results) Best() int {
	best := -1
	for i, r := range rs {
		if best < 0 || r.Metrics.R2Test > rs[best].Metrics.R2Test {
			best = i
		}
	}
	return best
}

// Round rounds every model's metrics.
func (rs Results) Round(decimals int) Results {
	out := make(Results, len(rs))
	for i, r := range rs {
		out[i] = Result{Name: r.Name, Metrics: r.Metrics.Round(decimals)}
	}
	return out
}
