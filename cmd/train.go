package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/crimescope/internal/training"
)

var (
	trainSeed     int64
	trainTestSize float64
	trainFolds    int
	trainWorkers  int
	trainExport   string
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train, compare and persist the regression models",
	Long: `Loads the dataset, imputes missing values, splits train/test, fits
Linear Regression, Random Forest and Gradient Boosting, compares them on
R², RMSE, MAE and cross-validated R², and saves the best one as a bundle.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		if f.Changed("seed") {
			cfg.RandomState = trainSeed
		}
		if f.Changed("test-size") {
			cfg.TestSize = trainTestSize
		}
		if f.Changed("cv-folds") {
			cfg.CVFolds = trainFolds
		}
		if f.Changed("workers") {
			cfg.Workers = trainWorkers
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		report, err := training.Run(cmd.Context(), cfg.RunConfig())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "train rows: %d  test rows: %d  (%d ms)\n\n",
			report.TrainRows, report.TestRows, report.DurationMs)
		renderResults(out, report.Table)
		fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("✓ Best model: %s (R² test %.4f)",
			report.Bundle.ModelName, report.Bundle.Metrics.R2Test)))
		fmt.Fprintf(out, "  bundle: %s\n  preprocessor: %s\n", cfg.ModelPath, cfg.PreprocessorPath)

		if trainExport != "" {
			if err := training.ExportResults(report.Table, trainExport); err != nil {
				return err
			}
			fmt.Fprintf(out, "  results: %s\n", trainExport)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)
	trainCmd.Flags().Int64Var(&trainSeed, "seed", 42, "random seed for the split, CV and ensembles")
	trainCmd.Flags().Float64Var(&trainTestSize, "test-size", 0.44, "fraction of rows held out for testing")
	trainCmd.Flags().IntVar(&trainFolds, "cv-folds", 5, "number of cross-validation folds")
	trainCmd.Flags().IntVar(&trainWorkers, "workers", 0, "parallel workers for forests and CV (0 = GOMAXPROCS)")
	trainCmd.Flags().StringVarP(&trainExport, "export", "o", "", "also write the comparison table (.csv or .xlsx)")
}
