// Package cli provides the neurocore command-line interface.
package cli

import (
	"fmt"

	"github.com/danielpatrickdp/neurocore/internal/config"
	"github.com/danielpatrickdp/neurocore/internal/store"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dbPath     string
	userID     string

	cfg config.Config
	db  *store.Store
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "neurocore",
	Short: "Real-time neuroadaptive processing core",
	Long: `neurocore ingests streaming EEG sample windows, derives neural state
metrics, and runs a self-optimizing adaptation loop per user.

Quick start:
  neurocore run --synthetic --ticks 32    # process generated windows
  neurocore run --source ws://host/eeg    # process a live stream
  neurocore replay fixture.json           # replay a recorded session
  neurocore inspect                       # show traits and recent ticks
  neurocore fairness batch.json           # offline fairness assessment`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			db, err = store.NewStore(dbPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (empty = no persistence)")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "default", "user ID for persisted state")
}
