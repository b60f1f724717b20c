package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/odyssey/internal/config"
	"github.com/abhisek/odyssey/internal/credits"
	"github.com/abhisek/odyssey/internal/journey"
	"github.com/abhisek/odyssey/internal/runtime"
	"github.com/abhisek/odyssey/internal/sandbox"
	"github.com/abhisek/odyssey/internal/store"
)

var validateCmd = &cobra.Command{
	Use:   "validate <username> <journey.json> <chapter> <challenge>",
	Short: "Register a challenge validation attempt",
	Long:  "Reports a challenge outcome to the engine. The attempt consumes a daily validation credit whether it succeeds or fails; an inaccessible challenge or an exhausted credit rejects the attempt without touching the record. --god bypasses the credit ledger only.",
	Args:  cobra.ExactArgs(4),
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
		journeyID := resolveJourneyID(cmd, args[1])
		chapterNum, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("chapter must be a number: %q", args[2])
		}
		challengeIdx, err := strconv.Atoi(args[3])
		if err != nil {
			return fmt.Errorf("challenge must be a number: %q", args[3])
		}

		rec, rev, err := s.LoadProgress(cmd.Context(), username, journeyID)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%s has no record for journey %q; run start first", username, journeyID)
		}
		if err != nil {
			return err
		}

		ledger, err := newLedger(cfg)
		if err != nil {
			return err
		}
		god, _ := cmd.Flags().GetBool("god")
		fail, _ := cmd.Flags().GetBool("fail")
		bypass := god || cfg.GodMode

		rt := runtime.New(ledger)
		sb, snap := sandbox.Bind(rt, rec, j, chapterNum, challengeIdx, time.Now, bypass)
		if err := sb.Validate(!fail); err != nil {
			var na *runtime.NotAccessibleError
			switch {
			case errors.As(err, &na):
				return fmt.Errorf("chapter %d challenge %d: %s", chapterNum, challengeIdx, na.Decision.Reason)
			case errors.Is(err, credits.ErrNoCredit):
				return errors.New("no validation credit left today; come back tomorrow")
			default:
				return err
			}
		}

		if _, err := s.SaveProgress(cmd.Context(), rec, rev); err != nil {
			return err
		}

		if fail {
			fmt.Printf("attempt recorded for chapter %d challenge %d (credit consumed)\n", chapterNum, challengeIdx)
			return nil
		}
		fmt.Printf("chapter %d challenge %d validated — level %d, %.1f xp (%.1f to next)\n",
			chapterNum, challengeIdx, snap.Progress.Level, snap.Progress.TotalXP, snap.Progress.ToNext)
		if !rec.Active() {
			fmt.Printf("journey %q completed!\n", j.Title)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().Bool("fail", false, "Record the attempt as a failure")
	validateCmd.Flags().Bool("god", false, "Bypass the daily credit ledger (ODYSSEY_GOD_MODE also enables this)")
}
