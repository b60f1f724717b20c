package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/abhisek/odyssey/internal/config"
	"github.com/abhisek/odyssey/internal/journey"
	"github.com/abhisek/odyssey/internal/progression"
	"github.com/abhisek/odyssey/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats <username>",
	Short: "Show a user's progression",
	Long:  "Prints the active record's XP, level, achievements, and completion counts. Pass --journey to compute XP against a journey definition file.",
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

		rec, _, err := s.LoadProgress(cmd.Context(), username, u.ActiveJourneyID)
		if errors.Is(err, store.ErrNotFound) {
			fmt.Printf("%s has no progress on journey %q\n", username, u.ActiveJourneyID)
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("user:       %s\n", username)
		fmt.Printf("journey:    %s (%s)\n", u.ActiveJourneyID, rec.State)
		fmt.Printf("chapters:   %d completed\n", len(rec.CompletedChapters))
		fmt.Printf("challenges: %d completed\n", len(rec.CompletedChallenges))

		if path, _ := cmd.Flags().GetString("journey"); path != "" {
			j, err := journey.LoadFile(path)
			if err != nil {
				return err
			}
			p := progression.Compute(rec, j)
			fmt.Printf("xp:         %.1f (level %d, %.1f to next)\n", p.TotalXP, p.Level, p.ToNext)
		}

		if len(rec.Achievements) > 0 {
			ids := make([]string, 0, len(rec.Achievements))
			for id := range rec.Achievements {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			fmt.Println("achievements:")
			for _, id := range ids {
				a := rec.Achievements[id]
				fmt.Printf("  %s — %s\n", a.ID, a.Title)
			}
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().String("journey", "", "Journey definition file for XP/level computation")
}
