package dataset

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	"github.com/YuminosukeSato/crimescope/pkg/errors"
	"github.com/YuminosukeSato/crimescope/pkg/log"
)

// Load reads a .csv or .xlsx table. An empty path means DefaultPath.
//
//	frame, err := dataset.Load("data/raw/pib-ocorrencias.csv")
func Load(path string) (*Frame, error) {
	if path == "" {
		path = DefaultPath
	}
	logger := log.GetLogger().With(log.ComponentKey, "dataset", log.PathKey, path)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewDatasetError(path, nil, errors.ErrFileNotFound)
		}
		return nil, errors.Wrapf(err, "stat %s", path)
	}

	start := time.Now()
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readExcel(path)
	default:
		rows, err = readCSVFile(path)
	}
	if err != nil {
		return nil, err
	}

	frame, err := FromRecords(rows)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	frame.source = path

	s := frame.Summary()
	logger.Info("dataset loaded",
		log.SamplesKey, s.Rows,
		log.ColumnsKey, s.Columns,
		"period", fmt.Sprintf("%d-%d", s.YearMin, s.YearMax),
		"municipalities", s.Municipalities,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return frame, nil
}

// ReadCSV parses a comma-separated table with a header row.
func ReadCSV(r io.Reader) (*Frame, error) {
	rows, err := readCSVRows(r)
	if err != nil {
		return nil, err
	}
	return FromRecords(rows)
}

func readCSVFile(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer file.Close()

	rows, err := readCSVRows(file)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return rows, nil
}

// readCSVRows tokenizes without a header or type detection so a header-only
// file still yields its column names.
func readCSVRows(r io.Reader) ([][]string, error) {
	raw := dataframe.ReadCSV(r,
		dataframe.HasHeader(false),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if raw.Err != nil {
		return nil, errors.Wrap(raw.Err, "read CSV")
	}
	// Records repeats the generated column names as its first row.
	return raw.Records()[1:], nil
}

// readExcel reads the first sheet of a workbook.
func readExcel(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open workbook %s", path)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.NewDatasetError(path, nil, errors.New("workbook has no sheets"))
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %s", sheet)
	}
	return rows, nil
}

// missingTokens are cells read as NA.
var missingTokens = []string{"", "NA", "NaN", "<nil>"}

// FromRecords builds a Frame from a header row followed by data rows. Short
// rows are padded with empty cells. Columns listed in TextColumns, and
// columns where no cell parses as a number, are kept as text.
func FromRecords(rows [][]string) (*Frame, error) {
	if len(rows) == 0 {
		return nil, errors.NewDatasetError("", nil, errors.ErrEmptyData)
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if header[i] == "" {
			header[i] = fmt.Sprintf("column_%d", i)
		}
	}
	if len(rows) == 1 {
		return emptyFrame(header), nil
	}

	records := make([][]string, len(rows))
	records[0] = header
	for i, row := range rows[1:] {
		cells := make([]string, len(header))
		for j := range cells {
			if j < len(row) {
				cells[j] = strings.TrimSpace(row[j])
			}
		}
		records[i+1] = cells
	}

	types := make(map[string]series.Type, len(TextColumns))
	for _, c := range TextColumns {
		types[c] = series.String
	}
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.WithTypes(types),
		dataframe.NaNValues(missingTokens),
	)
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "load records")
	}

	// Detection marks a column as text on the first bad cell. Columns that
	// still hold numbers are converted back, the bad cells becoming NaN.
	for _, name := range df.Names() {
		col := df.Col(name)
		if isTextColumn(name) || col.Type() != series.String {
			continue
		}
		values, parsed, bad := parseColumn(col)
		if parsed == 0 && bad > 0 {
			continue
		}
		if bad > 0 {
			errors.Warn(errors.NewDataConversionWarning(name, bad, "not a number, treated as missing"))
		}
		df = df.Mutate(series.New(values, series.Float, name))
		if df.Err != nil {
			return nil, errors.Wrapf(df.Err, "convert %s", name)
		}
	}
	return wrap(df, ""), nil
}

func emptyFrame(header []string) *Frame {
	cols := make([]series.Series, len(header))
	for i, name := range header {
		if isTextColumn(name) {
			cols[i] = series.New([]string{}, series.String, name)
		} else {
			cols[i] = series.New([]float64{}, series.Float, name)
		}
	}
	return wrap(dataframe.New(cols...), "")
}

func parseColumn(col series.Series) (values []float64, parsed, bad int) {
	values = col.Float()
	for i, na := range col.IsNaN() {
		switch {
		case na:
		case math.IsNaN(values[i]):
			bad++
		default:
			parsed++
		}
	}
	return values, parsed, bad
}
