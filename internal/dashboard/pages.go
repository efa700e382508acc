package dashboard

import (
	"html/template"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/YuminosukeSato/crimescope/internal/analysis"
	"github.com/YuminosukeSato/crimescope/internal/dataset"
	"github.com/YuminosukeSato/crimescope/internal/prediction"
	"github.com/YuminosukeSato/crimescope/internal/training"
)

const headRows = 10

type pageData struct {
	Title   string
	Active  string
	Warning string
}

func (s *Server) handleIndex(c *gin.Context) {
	s.render(c, http.StatusOK, "index", struct {
		pageData
		Intro   template.HTML
		Summary dataset.Summary
	}{
		pageData: pageData{Title: "Introduction", Active: "index"},
		Intro:    s.intro,
		Summary:  s.summary,
	})
}

// edaQuery is the parsed state of the EDA filters.
type edaQuery struct {
	UFs      []string
	From, To int
	Variable string
	Corr     analysis.CorrelationPreset
	Crime    string
}

func (s *Server) parseEDA(c *gin.Context) edaQuery {
	lo, hi := s.summary.YearMin, s.summary.YearMax
	q := edaQuery{
		UFs:      c.QueryArray("uf"),
		From:     queryInt(c, "from", lo),
		To:       queryInt(c, "to", hi),
		Variable: c.DefaultQuery("var", dataset.ColTotalVictims),
		Corr:     analysis.CorrelationPreset(c.DefaultQuery("corr", string(analysis.PresetEconomicCrime))),
		Crime:    c.DefaultQuery("crime", dataset.ColTotalVictims),
	}
	if _, ok := s.frame.Numeric(q.Variable); !ok {
		q.Variable = dataset.ColTotalVictims
	}
	if q.Corr != analysis.PresetGDPRates {
		q.Corr = analysis.PresetEconomicCrime
	}
	if !contains(dataset.CrimeColumns, q.Crime) {
		q.Crime = dataset.ColTotalVictims
	}
	return q
}

func (q edaQuery) values() url.Values {
	v := url.Values{}
	for _, u := range q.UFs {
		v.Add("uf", u)
	}
	v.Set("from", strconv.Itoa(q.From))
	v.Set("to", strconv.Itoa(q.To))
	v.Set("var", q.Variable)
	v.Set("corr", string(q.Corr))
	v.Set("crime", q.Crime)
	return v
}

func (s *Server) filtered(q edaQuery) *dataset.Frame {
	return s.frame.Filter(q.UFs, q.From, q.To)
}

type ufOption struct {
	Code     string
	Selected bool
}

func (s *Server) handleEDA(c *gin.Context) {
	q := s.parseEDA(c)
	view := s.filtered(q)

	head := view.Head(headRows)
	rows := make([][]string, head.Len())
	for i := range rows {
		rows[i] = head.Row(i)
	}

	values, _ := view.Numeric(q.Variable)
	var ufs []ufOption
	for _, u := range s.frame.UniqueStrings(dataset.ColUF) {
		ufs = append(ufs, ufOption{Code: u, Selected: contains(q.UFs, u)})
	}

	s.render(c, http.StatusOK, "eda", struct {
		pageData
		Query       edaQuery
		QueryString template.URL
		UFs         []ufOption
		YearMin     int
		YearMax     int
		Filtered    int
		Columns     []string
		Rows        [][]string
		Describe    []analysis.Stat
		NumericCols []string
		CrimeCols   []string
		Presets     []analysis.CorrelationPreset
		PresetTitle string
	}{
		pageData:    pageData{Title: "Exploratory analysis", Active: "eda"},
		Query:       q,
		QueryString: template.URL(q.values().Encode()),
		UFs:         ufs,
		YearMin:     s.summary.YearMin,
		YearMax:     s.summary.YearMax,
		Filtered:    view.Len(),
		Columns:     head.Columns(),
		Rows:        rows,
		Describe:    analysis.Describe(values).Rows(),
		NumericCols: s.frame.NumericColumns(),
		CrimeCols:   dataset.CrimeColumns,
		Presets:     []analysis.CorrelationPreset{analysis.PresetEconomicCrime, analysis.PresetGDPRates},
		PresetTitle: q.Corr.Title(),
	})
}

// comparisonRow is one line of the model comparison table.
type comparisonRow struct {
	Name                               string
	R2, RMSE, MAE, CVMean, CVStd, MAPE float64
	ExplainedVariance                  float64
	BestR2, BestRMSE, BestMAE          bool
}

func comparisonRows(results training.Results) []comparisonRow {
	table := results.Round(4)
	rows := make([]comparisonRow, len(table))
	maxR2, minRMSE, minMAE := math.Inf(-1), math.Inf(1), math.Inf(1)
	for i, r := range table {
		m := r.Metrics
		rows[i] = comparisonRow{
			Name: r.Name, R2: m.R2Test, RMSE: m.RMSETest, MAE: m.MAETest,
			CVMean: m.CVR2Mean, CVStd: m.CVR2Std,
			MAPE: m.MAPETest, ExplainedVariance: m.ExplainedVarianceTest,
		}
		maxR2 = math.Max(maxR2, m.R2Test)
		minRMSE = math.Min(minRMSE, m.RMSETest)
		minMAE = math.Min(minMAE, m.MAETest)
	}
	for i := range rows {
		rows[i].BestR2 = rows[i].R2 == maxR2
		rows[i].BestRMSE = rows[i].RMSE == minRMSE
		rows[i].BestMAE = rows[i].MAE == minMAE
	}
	return rows
}

func (s *Server) handleModeling(c *gin.Context) {
	data := struct {
		pageData
		Bundle      *training.Bundle
		Rows        []comparisonRow
		Importances []training.FeatureImportance
	}{pageData: pageData{Title: "Predictive modeling", Active: "modeling"}}

	if s.bundle == nil {
		data.Warning = ModelMissingMessage
	} else {
		data.Bundle = s.bundle
		data.Rows = comparisonRows(s.bundle.AllResults)
		data.Importances = s.bundle.Importances()
	}
	s.render(c, http.StatusOK, "modeling", data)
}

type field struct {
	Name  string
	Label string
	Value float64
	prediction.Bound
}

var fieldLabels = map[string]string{
	dataset.ColHabitants:    "Total inhabitants",
	dataset.ColGDPPerCapita: "GDP per capita (R$)",
	"vl_agropecuaria":       "Agriculture value added (R$ thousand)",
	"vl_industria":          "Industry value added (R$ thousand)",
	"vl_servicos":           "Services value added (R$ thousand)",
}

func formFields(in prediction.Input) []field {
	out := make([]field, 0, len(dataset.DefaultFeatures))
	for _, col := range dataset.DefaultFeatures {
		v, _ := in.Get(col)
		out = append(out, field{Name: col, Label: fieldLabels[col], Value: v, Bound: prediction.Bounds[col]})
	}
	return out
}

type predictPage struct {
	pageData
	Bundle     *training.Bundle
	Fields     []field
	Result     *prediction.Result
	Error      string
	Variables  []string
	Variable   string
	ChartQuery template.URL
}

func (s *Server) predictData(in prediction.Input, variable string) predictPage {
	d := predictPage{
		pageData:  pageData{Title: "Prediction", Active: "predict"},
		Bundle:    s.bundle,
		Fields:    formFields(in),
		Variables: prediction.SensitivityVariables,
		Variable:  variable,
	}
	if s.bundle == nil {
		d.Warning = ModelMissingMessage
	}
	d.ChartQuery = template.URL(inputValues(in, variable).Encode())
	return d
}

func (s *Server) handlePredictForm(c *gin.Context) {
	in := prediction.DefaultInput()
	variable := sensitivityVariable(c.Query("var"))
	s.render(c, http.StatusOK, "predict", s.predictData(in, variable))
}

func (s *Server) handlePredictSubmit(c *gin.Context) {
	in := prediction.DefaultInput()
	status := http.StatusOK
	bindErr := c.ShouldBind(&in)
	variable := sensitivityVariable(c.PostForm("var"))
	data := s.predictData(in, variable)

	switch {
	case s.bundle == nil:
		status = http.StatusServiceUnavailable
	case bindErr != nil:
		status = http.StatusBadRequest
		data.Error = "invalid input: " + bindErr.Error()
	default:
		res, err := prediction.Predict(s.bundle, s.bundle.Features, in, s.targetMean)
		if err != nil {
			status = statusFor(err)
			data.Error = err.Error()
		} else {
			data.Result = res
		}
	}
	s.render(c, status, "predict", data)
}

func sensitivityVariable(v string) string {
	if contains(prediction.SensitivityVariables, v) {
		return v
	}
	return dataset.ColHabitants
}

func inputValues(in prediction.Input, variable string) url.Values {
	v := url.Values{}
	for _, col := range dataset.DefaultFeatures {
		x, _ := in.Get(col)
		v.Set(col, strconv.FormatFloat(x, 'f', -1, 64))
	}
	v.Set("var", variable)
	return v
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
