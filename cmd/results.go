package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/crimescope/internal/training"
)

var resultsExport string

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show the model comparison stored in the trained bundle",
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, err := training.LoadBundle(cfg.ModelPath)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "bundle %s trained %s\n", bundle.ID, bundle.TrainedAt)
		fmt.Fprintf(out, "target %s from %s\n\n", bundle.Target, strings.Join(bundle.Features, ", "))
		renderResults(out, bundle.AllResults.Round(4))
		fmt.Fprintln(out, okStyle.Render("✓ Best model: "+bundle.ModelName))
		renderImportances(out, bundle.ModelName, bundle.Importances())

		if resultsExport != "" {
			if err := training.ExportResults(bundle.AllResults.Round(4), resultsExport); err != nil {
				return err
			}
			fmt.Fprintf(out, "  results: %s\n", resultsExport)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.Flags().StringVarP(&resultsExport, "export", "o", "", "write the table to a .csv or .xlsx file")
}
