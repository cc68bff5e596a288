package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/neurocore/internal/replay"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <fixture.json>",
	Short: "Replay a recorded session fixture through the pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := replay.LoadFixture(args[0])
		if err != nil {
			return err
		}
		summary, err := replay.Run(cmd.Context(), f)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}
		if len(summary.Mismatches) > 0 {
			return fmt.Errorf("%d expectation mismatches", len(summary.Mismatches))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
}
