package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/odyssey/internal/config"
	"github.com/abhisek/odyssey/internal/runtime"
	"github.com/abhisek/odyssey/internal/store"
)

var grantCmd = &cobra.Command{
	Use:   "grant <username> <achievement-id>",
	Short: "Grant an achievement on a user's active journey",
	Long:  "Adds an achievement to the user's active progress record. Granting an already-held achievement is a no-op. Achievements satisfy depends_on references the moment they are held.",
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

		username, id := args[0], args[1]
		u, err := s.GetUser(cmd.Context(), username)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("unknown user %q", username)
		}
		if err != nil {
			return err
		}
		if u.ActiveJourneyID == "" {
			return fmt.Errorf("%s has no active journey", username)
		}

		rec, rev, err := s.LoadProgress(cmd.Context(), username, u.ActiveJourneyID)
		if err != nil {
			return err
		}

		ledger, err := newLedger(cfg)
		if err != nil {
			return err
		}
		title, _ := cmd.Flags().GetString("title")
		desc, _ := cmd.Flags().GetString("desc")
		if !runtime.New(ledger).GrantAchievement(rec, id, title, desc) {
			fmt.Printf("%s already holds %q\n", username, id)
			return nil
		}
		if _, err := s.SaveProgress(cmd.Context(), rec, rev); err != nil {
			return err
		}

		fmt.Printf("granted %q to %s\n", id, username)
		return nil
	},
}

func init() {
	grantCmd.Flags().String("title", "", "Achievement title (defaults to the id)")
	grantCmd.Flags().String("desc", "", "Achievement description")
}
