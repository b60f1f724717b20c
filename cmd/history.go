package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/odyssey/internal/config"
	"github.com/abhisek/odyssey/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history <username>",
	Short: "List a user's archived journeys",
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

		archived, err := s.ListArchived(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(archived) == 0 {
			fmt.Println("no archived journeys")
			return nil
		}
		for _, a := range archived {
			fmt.Printf("%s  %-12s  %d chapters, %d challenges, %d achievements\n",
				a.ArchivedAt.Format("2006-01-02"), a.Record.State,
				len(a.Record.CompletedChapters), len(a.Record.CompletedChallenges),
				len(a.Record.Achievements))
		}
		return nil
	},
}
