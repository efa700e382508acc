// Package dataset loads and validates the municipality-year table that joins
// GDP indicators, population and victim counts.
package dataset

import (
	"math"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/YuminosukeSato/crimescope/pkg/errors"
)

// Frame wraps a gota DataFrame. Numeric cells that are empty or unparsable
// read as NaN.
type Frame struct {
	df     dataframe.DataFrame
	rows   int
	source string
}

// NewFrame creates an empty frame with n rows.
func NewFrame(n int) *Frame {
	return &Frame{rows: n}
}

func wrap(df dataframe.DataFrame, source string) *Frame {
	return &Frame{df: df, rows: df.Nrow(), source: source}
}

// DataFrame exposes the underlying gota frame.
func (f *Frame) DataFrame() dataframe.DataFrame { return f.df }

// Len returns the number of rows.
func (f *Frame) Len() int { return f.rows }

// Columns returns the column names in file order.
func (f *Frame) Columns() []string {
	if f.df.Ncol() == 0 {
		return nil
	}
	return f.df.Names()
}

// Source is the path the frame was loaded from, if any.
func (f *Frame) Source() string { return f.source }

// HasColumn reports whether name exists.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.column(name)
	return ok
}

func (f *Frame) column(name string) (series.Series, bool) {
	for _, c := range f.Columns() {
		if c == name {
			return f.df.Col(name), true
		}
	}
	return series.Series{}, false
}

func isNumeric(s series.Series) bool {
	return s.Type() == series.Float || s.Type() == series.Int
}

// Numeric returns a copy of a numeric column.
func (f *Frame) Numeric(name string) ([]float64, bool) {
	s, ok := f.column(name)
	if !ok || !isNumeric(s) {
		return nil, false
	}
	return s.Float(), true
}

// Text returns the values of a text column. Missing cells are empty strings.
func (f *Frame) Text(name string) ([]string, bool) {
	s, ok := f.column(name)
	if !ok || isNumeric(s) {
		return nil, false
	}
	values := s.Records()
	for i, na := range s.IsNaN() {
		if na {
			values[i] = ""
		}
	}
	return values, true
}

// SetNumeric adds or replaces a numeric column. values must have Len() items.
func (f *Frame) SetNumeric(name string, values []float64) error {
	if len(values) != f.rows {
		return errors.NewDimensionError("Frame.SetNumeric", f.rows, len(values), 0)
	}
	return f.mutate(series.New(values, series.Float, name))
}

// SetText adds or replaces a text column.
func (f *Frame) SetText(name string, values []string) error {
	if len(values) != f.rows {
		return errors.NewDimensionError("Frame.SetText", f.rows, len(values), 0)
	}
	return f.mutate(series.New(values, series.String, name))
}

func (f *Frame) mutate(s series.Series) error {
	var df dataframe.DataFrame
	if f.df.Ncol() == 0 {
		df = dataframe.New(s)
	} else {
		df = f.df.Mutate(s)
	}
	if df.Err != nil {
		return errors.Wrapf(df.Err, "set column %s", s.Name)
	}
	f.df = df
	return nil
}

// NumericColumns returns the numeric column names in file order.
func (f *Frame) NumericColumns() []string {
	var out []string
	for _, c := range f.Columns() {
		if isNumeric(f.df.Col(c)) {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks that every required column exists and the frame has rows.
func (f *Frame) Validate() error {
	var missing []string
	for _, c := range RequiredColumns() {
		if !f.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return errors.NewDatasetError(f.source, missing, nil)
	}
	if f.rows == 0 {
		return errors.NewDatasetError(f.source, nil, errors.ErrEmptyData)
	}
	return nil
}

// Summary is the overview shown on the introduction page.
type Summary struct {
	Rows           int     `json:"rows"`
	Columns        int     `json:"columns"`
	Municipalities int     `json:"municipalities"`
	YearMin        int     `json:"year_min"`
	YearMax        int     `json:"year_max"`
	TotalVictims   float64 `json:"total_victims"`
}

// Summary computes the overview metrics. Missing year or victim columns leave
// the matching fields at zero.
func (f *Frame) Summary() Summary {
	s := Summary{
		Rows:           f.rows,
		Columns:        len(f.Columns()),
		Municipalities: len(f.UniqueStrings(ColMunicipality)),
	}
	s.YearMin, s.YearMax = f.YearRange()
	if v, ok := f.Numeric(ColTotalVictims); ok {
		for _, x := range v {
			if !math.IsNaN(x) {
				s.TotalVictims += x
			}
		}
	}
	return s
}

// YearRange returns the smallest and largest year present.
func (f *Frame) YearRange() (int, int) {
	years, ok := f.Numeric(ColYear)
	if !ok {
		return 0, 0
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, y := range years {
		if math.IsNaN(y) {
			continue
		}
		lo = math.Min(lo, y)
		hi = math.Max(hi, y)
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return int(lo), int(hi)
}

// UniqueStrings returns the distinct non-empty values of a text column,
// sorted.
func (f *Frame) UniqueStrings(col string) []string {
	values, ok := f.Text(col)
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	for _, v := range values {
		if v != "" {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Filter keeps the rows whose state is in ufs and whose year lies in
// [yearFrom, yearTo]. An empty ufs keeps every state. Rows without a year
// are dropped.
func (f *Frame) Filter(ufs []string, yearFrom, yearTo int) *Frame {
	if f.rows == 0 {
		return f
	}
	df := f.df
	if len(ufs) > 0 && f.HasColumn(ColUF) {
		df = df.Filter(dataframe.F{Colname: ColUF, Comparator: series.In, Comparando: ufs})
	}
	if f.HasColumn(ColYear) {
		df = df.Filter(dataframe.F{Colname: ColYear, Comparator: series.GreaterEq, Comparando: yearFrom}).
			Filter(dataframe.F{Colname: ColYear, Comparator: series.LessEq, Comparando: yearTo})
	}
	return wrap(df, f.source)
}

// Head returns the first n rows.
func (f *Frame) Head(n int) *Frame {
	if n >= f.rows || f.df.Ncol() == 0 {
		return f
	}
	idx := make([]int, max(n, 0))
	for i := range idx {
		idx[i] = i
	}
	return wrap(f.df.Subset(idx), f.source)
}

// Row formats row i as strings in column order, for display.
func (f *Frame) Row(i int) []string {
	names := f.Columns()
	out := make([]string, len(names))
	for j := range names {
		el := f.df.Elem(i, j)
		switch {
		case el.IsNA():
		case el.Type() == series.Float || el.Type() == series.Int:
			out[j] = FormatNumber(el.Float())
		default:
			out[j] = el.String()
		}
	}
	return out
}

// FormatNumber renders a cell value the way the tables show it.
func FormatNumber(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
