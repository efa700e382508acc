package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/crimescope/internal/prediction"
	"github.com/YuminosukeSato/crimescope/internal/training"
)

var (
	predInput       = prediction.DefaultInput()
	predSensitivity string
	predJSON        bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Estimate total victims for a municipality profile",
	Long: `Uses the trained bundle to estimate total crime victims for the given
economic profile, its rate per 100k inhabitants and risk level, and how it
compares with the dataset mean. --sensitivity sweeps one input over its range.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, err := training.LoadBundle(cfg.ModelPath)
		if err != nil {
			return err
		}
		res, err := prediction.Predict(bundle, bundle.Features, predInput, bundle.TargetMean)
		if err != nil {
			return err
		}
		var curve *prediction.Curve
		if predSensitivity != "" {
			curve, err = prediction.Sensitivity(bundle, bundle.Features, predInput, predSensitivity)
			if err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if predJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Model       string             `json:"model"`
				Prediction  *prediction.Result `json:"prediction"`
				Sensitivity *prediction.Curve  `json:"sensitivity,omitempty"`
			}{bundle.ModelName, res, curve})
		}

		fmt.Fprintf(out, "model: %s\n\n", bundle.ModelName)
		renderTable(out, "Prediction", []string{"metric", "value"}, [][]string{
			{"predicted victims", strconv.FormatFloat(res.Victims, 'f', 0, 64)},
			{"rate per 100k", strconv.FormatFloat(res.RatePer100k, 'f', 2, 64)},
			{"risk level", res.Risk},
			{"dataset mean", strconv.FormatFloat(res.DatasetMean, 'f', 2, 64)},
			{"vs mean", fmt.Sprintf("%+.1f%%", res.DiffPercent)},
		}, -1)
		if res.Above() {
			fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("⚠ %.1f%% above the dataset mean", res.DiffPercent)))
		} else {
			fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("✓ %.1f%% below the dataset mean", -res.DiffPercent)))
		}

		if curve != nil {
			rows := make([][]string, 0, len(curve.Values)/5+1)
			for i := 0; i < len(curve.Values); i += 5 {
				rows = append(rows, []string{
					strconv.FormatFloat(curve.Values[i], 'f', 0, 64),
					strconv.FormatFloat(curve.Predictions[i], 'f', 1, 64),
				})
			}
			renderTable(out, "Sensitivity to "+curve.Variable, []string{curve.Variable, "predicted victims"}, rows, -1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)
	f := predictCmd.Flags()
	f.Float64Var(&predInput.TotalHabitantes, "habitants", predInput.TotalHabitantes, "total inhabitants")
	f.Float64Var(&predInput.PIBPerCapita, "gdp-per-capita", predInput.PIBPerCapita, "GDP per capita (R$)")
	f.Float64Var(&predInput.Agropecuaria, "agro", predInput.Agropecuaria, "agriculture value added (R$ thousand)")
	f.Float64Var(&predInput.Industria, "industry", predInput.Industria, "industry value added (R$ thousand)")
	f.Float64Var(&predInput.Servicos, "services", predInput.Servicos, "services value added (R$ thousand)")
	f.StringVar(&predSensitivity, "sensitivity", "", "sweep one input: Total_Habitantes, vl_pib_per_capta, vl_industria or vl_servicos")
	f.BoolVar(&predJSON, "json", false, "print JSON instead of tables")
}
