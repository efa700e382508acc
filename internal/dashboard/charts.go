package dashboard

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/crimescope/internal/analysis"
	"github.com/YuminosukeSato/crimescope/internal/charts"
	"github.com/YuminosukeSato/crimescope/internal/dataset"
	"github.com/YuminosukeSato/crimescope/internal/features"
	"github.com/YuminosukeSato/crimescope/internal/prediction"
	"github.com/YuminosukeSato/crimescope/pkg/errors"
)

// chartFunc renders one named chart for a request.
type chartFunc func(s *Server, c *gin.Context) ([]byte, error)

var chartRoutes = map[string]chartFunc{
	"histogram":     (*Server).histogramChart,
	"victims-by-uf": (*Server).victimsByUFChart,
	"correlation":   (*Server).correlationChart,
	"mean-rates":    (*Server).meanRatesChart,
	"temporal":      (*Server).temporalChart,
	"model-r2":      (*Server).modelR2Chart,
	"model-rmse":    (*Server).modelRMSEChart,
	"prediction":    (*Server).predictionChart,
	"sensitivity":   (*Server).sensitivityChart,
}

func (s *Server) handleChart(c *gin.Context) {
	name := strings.TrimSuffix(c.Param("name"), ".png")
	fn, ok := chartRoutes[name]
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown chart " + name})
		return
	}
	png, err := fn(s, c)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

func (s *Server) histogramChart(c *gin.Context) ([]byte, error) {
	q := s.parseEDA(c)
	values, _ := s.filtered(q).Numeric(q.Variable)
	return charts.Histogram(charts.Options{
		Title:  "Distribution of " + q.Variable,
		XLabel: q.Variable,
	}, values, 30)
}

func (s *Server) victimsByUFChart(c *gin.Context) ([]byte, error) {
	groups := analysis.SumBy(s.filtered(s.parseEDA(c)), dataset.ColUF, dataset.ColTotalVictims)
	labels, values := splitGroups(groups)
	return charts.Bars(charts.Options{
		Title:       "Total victims by state",
		XLabel:      "UF",
		YLabel:      "total victims",
		ValueFormat: "%.0f",
	}, labels, values, false, -1)
}

func (s *Server) correlationChart(c *gin.Context) ([]byte, error) {
	q := s.parseEDA(c)
	m := analysis.Correlation(s.filtered(q), analysis.PresetColumns(q.Corr)).Rounded(2)
	return charts.Heatmap(charts.Options{Title: q.Corr.Title()}, m.Columns, m.Values)
}

func (s *Server) meanRatesChart(c *gin.Context) ([]byte, error) {
	groups := analysis.MeanRates(s.filtered(s.parseEDA(c)))
	labels, values := splitGroups(groups)
	for i, l := range labels {
		labels[i] = features.CrimeLabel(strings.TrimSuffix(l, dataset.RateSuffix))
	}
	return charts.Bars(charts.Options{
		Title:  "Mean victim rates per 100k inhabitants",
		XLabel: "rate per 100k inhabitants",
		Width:  9 * vg.Inch,
		Height: 5 * vg.Inch,
	}, labels, values, true, -1)
}

func (s *Server) temporalChart(c *gin.Context) ([]byte, error) {
	q := s.parseEDA(c)
	points := analysis.SumByYear(s.filtered(q), q.Crime)
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = float64(p.Year), p.Value
	}
	return charts.Line(charts.Options{
		Title:  features.CrimeLabel(q.Crime) + " over time",
		XLabel: "year",
		YLabel: q.Crime,
	}, xs, ys)
}

func (s *Server) modelMetricChart(title, label string, pick func(comparisonRow) (float64, bool)) ([]byte, error) {
	if s.bundle == nil {
		return nil, errors.ErrModelNotFound
	}
	rows := comparisonRows(s.bundle.AllResults)
	labels := make([]string, len(rows))
	values := make([]float64, len(rows))
	best := -1
	for i, r := range rows {
		labels[i] = r.Name
		var isBest bool
		values[i], isBest = pick(r)
		if isBest && best < 0 {
			best = i
		}
	}
	return charts.Bars(charts.Options{Title: title, XLabel: "model", YLabel: label, ValueFormat: "%.4f"}, labels, values, false, best)
}

func (s *Server) modelR2Chart(*gin.Context) ([]byte, error) {
	return s.modelMetricChart("R² by model", "R² (test)", func(r comparisonRow) (float64, bool) { return r.R2, r.BestR2 })
}

func (s *Server) modelRMSEChart(*gin.Context) ([]byte, error) {
	return s.modelMetricChart("RMSE by model", "RMSE (test)", func(r comparisonRow) (float64, bool) { return r.RMSE, r.BestRMSE })
}

// chartInput reads a prediction input from the query string, falling back
// to the form defaults.
func chartInput(c *gin.Context) (prediction.Input, error) {
	in := prediction.DefaultInput()
	if err := c.ShouldBindQuery(&in); err != nil {
		return in, errors.NewValidationError("input", err.Error(), c.Request.URL.RawQuery)
	}
	return in, nil
}

func (s *Server) predictionChart(c *gin.Context) ([]byte, error) {
	if s.bundle == nil {
		return nil, errors.ErrModelNotFound
	}
	in, err := chartInput(c)
	if err != nil {
		return nil, err
	}
	res, err := prediction.Predict(s.bundle, s.bundle.Features, in, s.targetMean)
	if err != nil {
		return nil, err
	}
	return charts.Bars(charts.Options{
		Title:       "Prediction vs dataset mean",
		YLabel:      "victims",
		ValueFormat: "%.0f",
		Width:       6 * vg.Inch,
	}, []string{"Dataset mean", "Prediction"}, []float64{res.DatasetMean, res.Victims}, false, 1)
}

func (s *Server) sensitivityChart(c *gin.Context) ([]byte, error) {
	if s.bundle == nil {
		return nil, errors.ErrModelNotFound
	}
	in, err := chartInput(c)
	if err != nil {
		return nil, err
	}
	variable := sensitivityVariable(c.Query("var"))
	curve, err := prediction.Sensitivity(s.bundle, s.bundle.Features, in, variable)
	if err != nil {
		return nil, err
	}
	return charts.Line(charts.Options{
		Title:  "Impact of " + variable + " on the prediction",
		XLabel: variable,
		YLabel: "predicted victims",
	}, curve.Values, curve.Predictions)
}

func splitGroups(groups []analysis.Group) ([]string, []float64) {
	labels := make([]string, len(groups))
	values := make([]float64, len(groups))
	for i, g := range groups {
		labels[i], values[i] = g.Key, g.Value
	}
	return labels, values
}
