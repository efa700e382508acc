package training

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	"github.com/YuminosukeSato/crimescope/pkg/errors"
)

const resultsSheet = "Results"

// ExportResults writes one row per model to path. The format follows the
// extension: .xlsx produces a workbook, anything else CSV.
func ExportResults(results Results, path string) error {
	if len(results) == 0 {
		return errors.NewModelError("ExportResults", "no results", errors.ErrEmptyData)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	header := append([]string{"model"}, MetricNames...)
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return exportExcel(results, header, path)
	}
	return exportCSV(results, header, path)
}

func exportExcel(results Results, header []string, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return errors.Wrap(err, "rename sheet")
	}
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := f.SetSheetRow(resultsSheet, "A1", &row); err != nil {
		return errors.Wrap(err, "write header")
	}
	for i, r := range results {
		values := []interface{}{r.Name}
		for _, v := range r.Metrics.Values() {
			values = append(values, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "cell name")
		}
		if err := f.SetSheetRow(resultsSheet, cell, &values); err != nil {
			return errors.Wrapf(err, "write row %d", i+2)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}

func exportCSV(results Results, header []string, path string) error {
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Name
	}
	cols := []series.Series{series.New(names, series.String, header[0])}
	for j, name := range MetricNames {
		values := make([]float64, len(results))
		for i, r := range results {
			values[i] = r.Metrics.Values()[j]
		}
		cols = append(cols, series.New(values, series.Float, name))
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return errors.Wrap(df.Err, "build results table")
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer file.Close()

	if err := df.WriteCSV(file); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return file.Close()
}
