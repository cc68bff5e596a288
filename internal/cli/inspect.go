package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/danielpatrickdp/neurocore/internal/memory"
	"github.com/spf13/cobra"
)

var inspectLimit int

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the user's trait snapshot, experience aggregate, and recent ticks",
	RunE: func(cmd *cobra.Command, args []string) error {
		if db == nil {
			return errors.New("inspect requires --db")
		}

		rec, err := db.LoadTraits(userID)
		if err != nil {
			fmt.Printf("user %s: no persisted traits (%v)\n", userID, err)
		} else {
			fmt.Printf("user %s traits (version %s, created %s)\n",
				userID, rec.VersionID, rec.CreatedAt.Format(time.RFC3339))
			fmt.Printf("  curiosity=%.3f resilience=%.3f openness=%.3f processing_speed=%.3f\n",
				rec.Vector.Curiosity, rec.Vector.Resilience,
				rec.Vector.Openness, rec.Vector.ProcessingSpeed)
		}

		records, err := db.LoadExperience(userID, cfg.MemoryCapacity)
		if err != nil {
			return err
		}
		mem := memory.NewStore(cfg.MemoryCapacity, cfg.DecayLambda)
		for _, r := range records {
			mem.Record(r)
		}
		fmt.Printf("experience: %d records, aggregate score %.4f\n",
			mem.Len(), mem.AggregateScore(time.Now().UTC()))

		ticks, err := db.RecentTicks(userID, inspectLimit)
		if err != nil {
			return err
		}
		fmt.Printf("recent ticks (%d):\n", len(ticks))
		for _, t := range ticks {
			line := fmt.Sprintf("  seq=%d %s session=%s", t.Seq, t.Decision, t.SessionID)
			if t.Reason != "" {
				line += " reason=" + t.Reason
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().IntVar(&inspectLimit, "limit", 20, "max audit rows to show")
	rootCmd.AddCommand(inspectCmd)
}
