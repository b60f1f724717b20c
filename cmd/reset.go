package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/odyssey/internal/config"
	"github.com/abhisek/odyssey/internal/runtime"
	"github.com/abhisek/odyssey/internal/store"
)

var resetCmd = &cobra.Command{
	Use:   "reset <username>",
	Short: "Abandon a user's active journey",
	Long:  "Retires the user's active progress record and archives it. Archived records are kept as permanent history.",
	Args:  cobra.ExactArgs(1),
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
		u, err := s.GetUser(cmd.Context(), username)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("unknown user %q", username)
		}
		if err != nil {
			return err
		}
		if u.ActiveJourneyID == "" {
			fmt.Printf("%s has no active journey\n", username)
			return nil
		}

		rec, rev, err := s.LoadProgress(cmd.Context(), username, u.ActiveJourneyID)
		if errors.Is(err, store.ErrNotFound) {
			return s.SetActiveJourney(cmd.Context(), username, "")
		}
		if err != nil {
			return err
		}

		ledger, err := newLedger(cfg)
		if err != nil {
			return err
		}
		rt := runtime.New(ledger)
		if err := rt.Abandon(rec); err != nil && !errors.Is(err, runtime.ErrRecordRetired) {
			return err
		}
		if err := s.ArchiveProgress(cmd.Context(), rec, rev); err != nil {
			return err
		}
		if err := s.SetActiveJourney(cmd.Context(), username, ""); err != nil {
			return err
		}

		fmt.Printf("archived journey %q for %s\n", u.ActiveJourneyID, username)
		return nil
	},
}
