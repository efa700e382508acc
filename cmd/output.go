package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/YuminosukeSato/crimescope/internal/training"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	bestStyle   = cellStyle.Foreground(lipgloss.Color("10")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// renderTable draws rows under headers. highlight marks one data row, -1 for
// none.
func renderTable(w io.Writer, title string, headers []string, rows [][]string, highlight int) {
	if title != "" {
		fmt.Fprintln(w, titleStyle.Render(title))
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == highlight:
				return bestStyle
			default:
				return cellStyle
			}
		})
	fmt.Fprintln(w, t.Render())
}

// renderResults prints the model comparison with the winner highlighted.
func renderResults(w io.Writer, results training.Results) {
	headers := append([]string{"model"}, training.MetricNames...)
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		row := []string{r.Name}
		for _, v := range r.Metrics.Values() {
			row = append(row, strconv.FormatFloat(v, 'f', 4, 64))
		}
		rows = append(rows, row)
	}
	renderTable(w, "Model comparison", headers, rows, results.Best())
}

// renderImportances prints the best model's feature importances, if it has
// any.
func renderImportances(w io.Writer, modelName string, importances []training.FeatureImportance) {
	if len(importances) == 0 {
		return
	}
	rows := make([][]string, len(importances))
	for i, fi := range importances {
		rows[i] = []string{fi.Feature, strconv.FormatFloat(fi.Importance, 'f', 4, 64)}
	}
	renderTable(w, "Feature importances ("+modelName+")", []string{"feature", "importance"}, rows, 0)
}
