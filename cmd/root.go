package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/odyssey/internal/config"
	"github.com/abhisek/odyssey/internal/credits"
	"github.com/abhisek/odyssey/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "odyssey",
	Short: "Gamified journey progression engine",
	Long:  "Odyssey — rules engine that gates narrative chapters and challenges behind XP levels, achievement dependencies, daily validation credits, and irreversible path commitments.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides ODYSSEY_DB env var)")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(grantCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then the ODYSSEY_DB setting, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

// newLedger builds the credit ledger from the configured daily allowance
// and time zone.
func newLedger(cfg config.Config) (*credits.Ledger, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return credits.NewLedger(cfg.DailyCredits, loc), nil
}
