package cli

import (
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielpatrickdp/neurocore/internal/ingest"
	"github.com/danielpatrickdp/neurocore/internal/memory"
	"github.com/danielpatrickdp/neurocore/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	runSource    string
	runSynthetic bool
	runTicks     int
	runToneHz    float64
	runOutcome   float64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a processing session against a buffer source",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var source ingest.BufferSource
		switch {
		case runSynthetic:
			synthCfg := ingest.DefaultSyntheticConfig()
			synthCfg.ToneHz = runToneHz
			source = ingest.NewSyntheticSource(synthCfg, time.Now().UTC())
		case runSource != "":
			ws, err := ingest.DialWebsocket(ctx, runSource)
			if err != nil {
				return err
			}
			source = ws
		default:
			return errors.New("pass --synthetic or --source ws://...")
		}
		defer source.Close()

		sess, err := pipeline.NewSession(pipeline.Options{
			Config: cfg,
			UserID: userID,
			Store:  db,
		})
		if err != nil {
			return err
		}

		processed := 0
		for runTicks <= 0 || processed < runTicks {
			buf, err := source.Next(ctx)
			if err != nil {
				if ctx.Err() != nil {
					break
				}
				return fmt.Errorf("source: %w", err)
			}
			if _, err := sess.Process(ctx, buf); err != nil {
				log.Printf("[RUN] tick dropped: %v", err)
			}
			processed++
		}

		sess.RecordOutcome(memory.ExperienceRecord{
			Timestamp:    time.Now().UTC(),
			Intensity:    1.0,
			OutcomeScore: runOutcome,
		})
		if err := sess.Close(); err != nil {
			return err
		}
		fmt.Printf("processed %d ticks\n", processed)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runSource, "source", "", "websocket EEG source URL")
	runCmd.Flags().BoolVar(&runSynthetic, "synthetic", false, "generate synthetic windows")
	runCmd.Flags().IntVar(&runTicks, "ticks", 0, "stop after N ticks (0 = until interrupted)")
	runCmd.Flags().Float64Var(&runToneHz, "tone-hz", 10, "synthetic tone frequency")
	runCmd.Flags().Float64Var(&runOutcome, "outcome", 0.8, "session outcome score recorded at teardown")
	rootCmd.AddCommand(runCmd)
}
