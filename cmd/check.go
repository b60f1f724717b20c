package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/odyssey/internal/depgraph"
	"github.com/abhisek/odyssey/internal/journey"
)

var checkCmd = &cobra.Command{
	Use:   "check <journey.json>",
	Short: "Validate a journey definition file",
	Long:  "Loads a journey document, checks it against the schema, and validates its dependency graph for cycles and unresolvable references.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := journey.LoadFile(args[0])
		if err != nil {
			return err
		}
		if err := depgraph.ValidateJourney(j); err != nil {
			return fmt.Errorf("journey %q rejected:\n%w", j.Title, err)
		}

		challenges := 0
		for _, num := range j.ChapterNums() {
			challenges += len(j.Chapters[num].Challenges)
		}
		fmt.Printf("%s: ok (%d chapters, %d challenges, max level %d)\n",
			j.Title, len(j.Chapters), challenges, j.MaxRequiredLevel())
		return nil
	},
}
