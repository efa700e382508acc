package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/crimescope/internal/analysis"
	"github.com/YuminosukeSato/crimescope/internal/dataset"
	"github.com/YuminosukeSato/crimescope/internal/features"
	"github.com/YuminosukeSato/crimescope/pkg/errors"
)

var (
	descUFs   []string
	descFrom  int
	descTo    int
	descBy    string
	descCorr  string
	descRates bool
)

var describeCmd = &cobra.Command{
	Use:   "describe [column...]",
	Short: "Summarise the dataset and describe numeric columns",
	Long: `Prints the dataset overview and descriptive statistics (count, mean,
std, min, quartiles, max) for each named column, total victims by default.
Filters restrict the rows by state and year range.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		frame, err := dataset.Load(cfg.DataPath)
		if err != nil {
			return err
		}
		if descRates {
			if err := features.AddRatesPer100k(frame); err != nil {
				return err
			}
		}
		if len(descUFs) > 0 || descFrom > 0 || descTo > 0 {
			lo, hi := frame.YearRange()
			if descFrom > 0 {
				lo = descFrom
			}
			if descTo > 0 {
				hi = descTo
			}
			ufs := descUFs
			if len(ufs) == 0 {
				ufs = frame.UniqueStrings(dataset.ColUF)
			}
			frame = frame.Filter(ufs, lo, hi)
		}

		out := cmd.OutOrStdout()
		s := frame.Summary()
		renderTable(out, "Dataset", []string{"rows", "columns", "municipalities", "years", "total victims"}, [][]string{{
			strconv.Itoa(s.Rows),
			strconv.Itoa(s.Columns),
			strconv.Itoa(s.Municipalities),
			fmt.Sprintf("%d-%d", s.YearMin, s.YearMax),
			dataset.FormatNumber(s.TotalVictims),
		}}, -1)

		cols := args
		if len(cols) == 0 {
			cols = []string{dataset.DefaultTarget}
		}
		for _, col := range cols {
			values, ok := frame.Numeric(col)
			if !ok {
				return errors.NewValidationError("column", "not a numeric column", col)
			}
			d := analysis.Describe(values)
			rows := make([][]string, 0, 8)
			for _, st := range d.Rows() {
				rows = append(rows, []string{st.Label, strconv.FormatFloat(st.Value, 'f', 2, 64)})
			}
			renderTable(out, col, []string{"stat", "value"}, rows, -1)
		}

		if descBy != "" {
			groups := analysis.SumBy(frame, descBy, dataset.ColTotalVictims)
			rows := make([][]string, 0, len(groups))
			for _, g := range groups {
				rows = append(rows, []string{g.Key, dataset.FormatNumber(g.Value)})
			}
			renderTable(out, "Total victims by "+descBy, []string{descBy, "victims"}, rows, -1)
		}

		if descCorr != "" {
			preset := analysis.CorrelationPreset(descCorr)
			if preset != analysis.PresetEconomicCrime && preset != analysis.PresetGDPRates {
				return errors.NewValidationError("corr", "must be economic or rates", descCorr)
			}
			if preset == analysis.PresetGDPRates && !descRates {
				if err := features.AddRatesPer100k(frame); err != nil {
					return err
				}
			}
			m := analysis.Correlation(frame, analysis.PresetColumns(preset)).Rounded(2)
			rows := make([][]string, len(m.Columns))
			for i, name := range m.Columns {
				rows[i] = []string{name}
				for _, v := range m.Values[i] {
					rows[i] = append(rows[i], strconv.FormatFloat(v, 'f', 2, 64))
				}
			}
			renderTable(out, preset.Title(), append([]string{""}, m.Columns...), rows, -1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	f := describeCmd.Flags()
	f.StringSliceVar(&descUFs, "uf", nil, "restrict to these states (repeatable)")
	f.IntVar(&descFrom, "from", 0, "first year to include")
	f.IntVar(&descTo, "to", 0, "last year to include")
	f.StringVar(&descBy, "by", "", "also sum total victims grouped by this text column, e.g. uf")
	f.StringVar(&descCorr, "corr", "", "also print a correlation matrix: economic or rates")
	f.BoolVar(&descRates, "rates", false, "add the per-100k rate columns before describing")
}
