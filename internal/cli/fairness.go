package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/neurocore/internal/compliance"
	"github.com/spf13/cobra"
)

var fairnessThreshold float64

var fairnessCmd = &cobra.Command{
	Use:   "fairness <predictions.json>",
	Short: "Assess demographic parity and equalized odds over a prediction batch",
	Long: `Reads a JSON array of {"group", "predicted", "actual"} records and
prints per-group rates plus cross-group ratios. This is an offline batch
operation, not part of the per-tick path.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read predictions: %w", err)
		}
		var predictions []compliance.Prediction
		if err := json.Unmarshal(data, &predictions); err != nil {
			return fmt.Errorf("parse predictions: %w", err)
		}

		report, err := compliance.AssessFairness(predictions)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
		if report.DemographicParityRatio < fairnessThreshold ||
			report.EqualizedOddsRatio < fairnessThreshold {
			return fmt.Errorf("fairness ratios below threshold %.2f", fairnessThreshold)
		}
		return nil
	},
}

func init() {
	fairnessCmd.Flags().Float64Var(&fairnessThreshold, "threshold", 0.8, "minimum acceptable ratio")
	rootCmd.AddCommand(fairnessCmd)
}
