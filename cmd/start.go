package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/odyssey/internal/config"
	"github.com/abhisek/odyssey/internal/depgraph"
	"github.com/abhisek/odyssey/internal/journey"
	"github.com/abhisek/odyssey/internal/progress"
	"github.com/abhisek/odyssey/internal/runtime"
	"github.com/abhisek/odyssey/internal/store"
)

var startCmd = &cobra.Command{
	Use:   "start <username> <journey.json>",
	Short: "Start a journey for a user",
	Long:  "Loads and validates a journey definition, creates a fresh progress record seeded from its initial avatar and world, and marks the journey active for the user. A journey already in progress must be reset first.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		dbPath, err := resolveDBPath(cmd, cfg)
		if err != nil {
			return err
		}
		s, err := store.Open(dbPath)
		if err != nil {
			return err
		}
		defer s.Close()

		username := args[0]
		j, err := journey.LoadFile(args[1])
		if err != nil {
			return err
		}
		if err := depgraph.ValidateJourney(j); err != nil {
			return fmt.Errorf("journey %q rejected:\n%w", j.Title, err)
		}
		journeyID := resolveJourneyID(cmd, args[1])

		if _, err := s.GetUser(cmd.Context(), username); errors.Is(err, store.ErrNotFound) {
			u := store.User{Username: username, Timezone: cfg.Timezone}
			if err := s.CreateUser(cmd.Context(), u); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		var existing *progress.Record
		var rev int64
		existing, rev, err = s.LoadProgress(cmd.Context(), username, journeyID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}

		ledger, err := newLedger(cfg)
		if err != nil {
			return err
		}
		rec, err := runtime.New(ledger).Start(username, j, journeyID, existing, time.Now())
		if err != nil {
			return err
		}
		if _, err := s.SaveProgress(cmd.Context(), rec, rev); err != nil {
			return err
		}
		if err := s.SetActiveJourney(cmd.Context(), username, journeyID); err != nil {
			return err
		}

		fmt.Printf("%s set out on %q (%d chapters, max level %d)\n",
			username, j.Title, len(j.Chapters), j.MaxRequiredLevel())
		return nil
	},
}

func init() {
	startCmd.Flags().String("id", "", "Journey identifier (defaults to the file name)")
	validateCmd.Flags().String("id", "", "Journey identifier (defaults to the file name)")
}

// resolveJourneyID returns the --id flag when set, else the journey file
// name without its extension.
func resolveJourneyID(cmd *cobra.Command, path string) string {
	if id, _ := cmd.Flags().GetString("id"); id != "" {
		return id
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
