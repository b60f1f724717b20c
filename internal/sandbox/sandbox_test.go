package sandbox

import (
	"errors"
	"testing"
	"time"

	"github.com/abhisek/odyssey/internal/credits"
	"github.com/abhisek/odyssey/internal/journey"
	"github.com/abhisek/odyssey/internal/progress"
	"github.com/abhisek/odyssey/internal/runtime"
)

func fixture() (*runtime.Runtime, *progress.Record, *journey.Journey) {
	j := &journey.Journey{
		InitialAvatar: `{"hp": 10}`,
		Chapters: map[int]journey.Chapter{
			1: {RequiredLevel: 1, Challenges: []journey.Challenge{
				{Title: "wake up", Difficulty: journey.DifficultyMedium},
			}},
		},
	}
	rt := runtime.New(credits.NewLedger(1, time.UTC))
	rec, _ := rt.Start("alice", j, "test", nil, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	return rt, rec, j
}

func TestBind_CallbacksReachTheEngine(t *testing.T) {
	rt, rec, j := fixture()
	clock := func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }

	ctx, snap := Bind(rt, rec, j, 1, 0, clock, false)

	// A payload mutates the avatar bag and grants an achievement.
	ctx.Avatar["hp"] = float64(7)
	ctx.NewAchievement("first-light", "First Light", "Saw the sunrise")

	if err := ctx.Validate(true); err != nil {
		t.Fatalf("Validate(true) = %v", err)
	}

	if !rec.HasChallenge(progress.ChallengeKey{Chapter: 1, Index: 0}) {
		t.Error("validate callback did not reach the runtime")
	}
	if _, held := rec.Achievements["first-light"]; !held {
		t.Error("achievement callback did not reach the runtime")
	}
	if rec.Avatar["hp"] != float64(7) {
		t.Error("avatar mutations must land on the record's own bag")
	}
	if snap.Progress.Level != 2 {
		t.Errorf("snapshot Level = %d, want 2 after completion", snap.Progress.Level)
	}
}

func TestBind_ValidateSurfacesRejections(t *testing.T) {
	rt, rec, j := fixture()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	ctx, _ := Bind(rt, rec, j, 1, 0, func() time.Time { return now }, false)
	if err := ctx.Validate(false); err != nil {
		t.Fatal(err)
	}
	// Same calendar day, credit spent.
	if err := ctx.Validate(true); !errors.Is(err, credits.ErrNoCredit) {
		t.Fatalf("Validate() = %v, want ErrNoCredit", err)
	}
}
