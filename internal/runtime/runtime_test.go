package runtime

import (
	"errors"
	"testing"
	"time"

	"github.com/abhisek/odyssey/internal/access"
	"github.com/abhisek/odyssey/internal/credits"
	"github.com/abhisek/odyssey/internal/journey"
	"github.com/abhisek/odyssey/internal/progress"
)

// forkedJourney: chapter 1 opens at level 1; chapters 2 and 3 are mutually
// exclusive alternatives at level 2; chapter 4 is the level 3 finale.
func forkedJourney() *journey.Journey {
	return &journey.Journey{
		Title:         "Forked Road",
		InitialAvatar: `{"name":"Traveler","hp":10}`,
		InitialWorld:  `{"weather":"clear"}`,
		Chapters: map[int]journey.Chapter{
			1: {RequiredLevel: 1, Challenges: []journey.Challenge{
				{Title: "wake up", Difficulty: journey.DifficultyMedium},
			}},
			2: {RequiredLevel: 2, Challenges: []journey.Challenge{
				{Title: "mountain pass", Difficulty: journey.DifficultyHard},
			}},
			3: {RequiredLevel: 2, Challenges: []journey.Challenge{
				{Title: "river crossing", Difficulty: journey.DifficultyHard},
			}},
			4: {RequiredLevel: 3, Challenges: []journey.Challenge{
				{Title: "the summit", Difficulty: journey.DifficultyExtreme},
			}},
		},
	}
}

func newRuntime() *Runtime {
	return New(credits.NewLedger(1, time.UTC))
}

func day(n int) time.Time {
	return time.Date(2026, 3, n, 10, 0, 0, 0, time.UTC)
}

func mustStart(t *testing.T, rt *Runtime, j *journey.Journey) *progress.Record {
	t.Helper()
	rec, err := rt.Start("alice", j, "forked-road", nil, day(1))
	if err != nil {
		t.Fatalf("Start() = %v", err)
	}
	return rec
}

func TestStart_SeedsAvatarAndWorld(t *testing.T) {
	rt := newRuntime()
	j := forkedJourney()
	rec := mustStart(t, rt, j)

	if rec.State != progress.StateInProgress {
		t.Errorf("State = %q, want %q", rec.State, progress.StateInProgress)
	}
	if rec.Avatar["name"] != "Traveler" {
		t.Errorf("Avatar = %v, want seeded template", rec.Avatar)
	}
	if rec.World["weather"] != "clear" {
		t.Errorf("World = %v, want seeded template", rec.World)
	}
}

func TestStart_RejectsSecondActiveRecord(t *testing.T) {
	rt := newRuntime()
	j := forkedJourney()
	rec := mustStart(t, rt, j)

	if _, err := rt.Start("alice", j, "forked-road", rec, day(1)); !errors.Is(err, ErrJourneyActive) {
		t.Fatalf("second Start() = %v, want ErrJourneyActive", err)
	}

	// A retired record does not block a restart.
	if err := rt.Abandon(rec); err != nil {
		t.Fatal(err)
	}
	if _, err := rt.Start("alice", j, "forked-road", rec, day(2)); err != nil {
		t.Fatalf("Start() after abandon = %v, want nil", err)
	}
}

func TestValidateChallenge_SuccessCompletesAndReturnsSnapshot(t *testing.T) {
	rt := newRuntime()
	j := forkedJourney()
	rec := mustStart(t, rt, j)

	snap, err := rt.ValidateChallenge(rec, j, 1, 0, true, day(1), false)
	if err != nil {
		t.Fatalf("ValidateChallenge() = %v", err)
	}

	if !rec.HasChallenge(progress.ChallengeKey{Chapter: 1, Index: 0}) {
		t.Error("challenge not recorded as completed")
	}
	if !rec.HasChapter(1) {
		t.Error("last challenge done, chapter should complete")
	}
	// 1 (chapter) + 2 (medium challenge) = 3 XP, level 2.
	if snap.Progress.TotalXP != 3 {
		t.Errorf("TotalXP = %v, want 3", snap.Progress.TotalXP)
	}
	if snap.Progress.Level != 2 {
		t.Errorf("Level = %d, want 2", snap.Progress.Level)
	}
	// Both level 2 alternatives are now visible.
	if !snap.Chapters[2].Decision.Accessible || !snap.Chapters[3].Decision.Accessible {
		t.Error("both alternatives should open at level 2")
	}
}

func TestValidateChallenge_FailureConsumesCreditOnly(t *testing.T) {
	rt := newRuntime()
	j := forkedJourney()
	rec := mustStart(t, rt, j)

	if _, err := rt.ValidateChallenge(rec, j, 1, 0, false, day(1), false); err != nil {
		t.Fatalf("ValidateChallenge(success=false) = %v", err)
	}
	if rec.HasChallenge(progress.ChallengeKey{Chapter: 1, Index: 0}) {
		t.Error("failed attempt must not record progress")
	}
	if rec.LastValidationAt == nil {
		t.Error("failed attempt must still stamp the record")
	}

	// The day's credit is gone.
	_, err := rt.ValidateChallenge(rec, j, 1, 0, true, day(1).Add(time.Hour), false)
	if !errors.Is(err, credits.ErrNoCredit) {
		t.Fatalf("second attempt = %v, want ErrNoCredit", err)
	}
}

func TestValidateChallenge_RejectsInaccessibleBeforeCredit(t *testing.T) {
	rt := newRuntime()
	j := forkedJourney()
	rec := mustStart(t, rt, j)

	_, err := rt.ValidateChallenge(rec, j, 4, 0, true, day(1), false)
	var notAccessible *NotAccessibleError
	if !errors.As(err, &notAccessible) {
		t.Fatalf("ValidateChallenge() = %v, want *NotAccessibleError", err)
	}
	if notAccessible.Decision.Reason != access.ReasonInsufficientLevel {
		t.Errorf("Reason = %q, want %q", notAccessible.Decision.Reason, access.ReasonInsufficientLevel)
	}
	// The rejection must not touch the ledger.
	if rec.LastValidationAt != nil || rec.CreditsConsumedToday != 0 {
		t.Error("blocked validate must not mutate any state")
	}
}

func TestValidateChallenge_FrontierCommitmentForeclosesSibling(t *testing.T) {
	rt := newRuntime()
	j := forkedJourney()
	rec := mustStart(t, rt, j)

	// Day 1: complete chapter 1, reaching level 2.
	if _, err := rt.ValidateChallenge(rec, j, 1, 0, true, day(1), false); err != nil {
		t.Fatal(err)
	}
	// Day 2: choose the mountain pass at the level 2 frontier.
	snap, err := rt.ValidateChallenge(rec, j, 2, 0, true, day(2), false)
	if err != nil {
		t.Fatal(err)
	}
	if got := rec.Commitments[2]; got != 2 {
		t.Fatalf("Commitments[2] = %d, want chapter 2", got)
	}
	if snap.Chapters[3].Decision.Reason != access.ReasonCommittedElsewhere {
		t.Errorf("sibling reason = %q, want %q", snap.Chapters[3].Decision.Reason, access.ReasonCommittedElsewhere)
	}

	// Day 3: the river crossing stays foreclosed for good.
	_, err = rt.ValidateChallenge(rec, j, 3, 0, true, day(3), false)
	var notAccessible *NotAccessibleError
	if !errors.As(err, &notAccessible) {
		t.Fatalf("sibling validate = %v, want *NotAccessibleError", err)
	}
	if notAccessible.Decision.Reason != access.ReasonCommittedElsewhere {
		t.Errorf("Reason = %q, want %q", notAccessible.Decision.Reason, access.ReasonCommittedElsewhere)
	}
}

func TestValidateChallenge_NonFrontierCompletionDoesNotCommit(t *testing.T) {
	rt := newRuntime()
	j := forkedJourney()
	rec := mustStart(t, rt, j)

	// Chapter 1 has no same-level sibling, so no commitment is recorded.
	if _, err := rt.ValidateChallenge(rec, j, 1, 0, true, day(1), false); err != nil {
		t.Fatal(err)
	}
	if len(rec.Commitments) != 0 {
		t.Errorf("Commitments = %v, want none", rec.Commitments)
	}
}

func TestValidateChallenge_BypassSkipsCreditLimit(t *testing.T) {
	rt := newRuntime()
	j := forkedJourney()
	rec := mustStart(t, rt, j)

	// Three validates in one day under god mode.
	if _, err := rt.ValidateChallenge(rec, j, 1, 0, true, day(1), true); err != nil {
		t.Fatal(err)
	}
	if _, err := rt.ValidateChallenge(rec, j, 2, 0, true, day(1), true); err != nil {
		t.Fatal(err)
	}
	// Accessibility still applies: chapter 3 is foreclosed by the
	// chapter 2 commitment even in god mode.
	_, err := rt.ValidateChallenge(rec, j, 3, 0, true, day(1), true)
	var notAccessible *NotAccessibleError
	if !errors.As(err, &notAccessible) {
		t.Fatalf("foreclosed validate under bypass = %v, want *NotAccessibleError", err)
	}
}

func TestValidateChallenge_MaxLevelChapterCompletesJourney(t *testing.T) {
	rt := newRuntime()
	j := forkedJourney()
	rec := mustStart(t, rt, j)

	steps := []struct {
		chapter int
		d       int
	}{{1, 1}, {2, 2}, {4, 3}}
	for _, step := range steps {
		if _, err := rt.ValidateChallenge(rec, j, step.chapter, 0, true, day(step.d), false); err != nil {
			t.Fatalf("chapter %d: %v", step.chapter, err)
		}
	}
	if rec.State != progress.StateCompleted {
		t.Errorf("State = %q, want %q", rec.State, progress.StateCompleted)
	}

	// A completed record accepts no further mutations.
	if _, err := rt.ValidateChallenge(rec, j, 3, 0, true, day(4), false); !errors.Is(err, ErrRecordRetired) {
		t.Errorf("validate on retired record = %v, want ErrRecordRetired", err)
	}
}

func TestGrantAchievement_Idempotent(t *testing.T) {
	rt := newRuntime()
	j := forkedJourney()
	rec := mustStart(t, rt, j)

	if !rt.GrantAchievement(rec, "torch", "Torch Bearer", "Lit the first torch") {
		t.Fatal("first grant should report new")
	}
	if rt.GrantAchievement(rec, "torch", "Torch Bearer", "Lit the first torch") {
		t.Fatal("second grant should be a no-op")
	}
	if len(rec.Achievements) != 1 {
		t.Errorf("Achievements = %v, want exactly one entry", rec.Achievements)
	}
	if rec.Achievements["torch"].Title != "Torch Bearer" {
		t.Errorf("Title = %q, want %q", rec.Achievements["torch"].Title, "Torch Bearer")
	}
}

func TestGrantAchievement_DefaultsTitleToID(t *testing.T) {
	rt := newRuntime()
	j := forkedJourney()
	rec := mustStart(t, rt, j)

	rt.GrantAchievement(rec, "spark", "", "")
	if rec.Achievements["spark"].Title != "spark" {
		t.Errorf("Title = %q, want %q", rec.Achievements["spark"].Title, "spark")
	}
}

func TestGrantAchievement_UnlocksContentImmediately(t *testing.T) {
	rt := newRuntime()
	j := forkedJourney()
	c := j.Chapters[1]
	c.Challenges = append(c.Challenges, journey.Challenge{
		Title:     "open the gate",
		DependsOn: []journey.Dependency{"gate-key"},
	})
	j.Chapters[1] = c
	rec := mustStart(t, rt, j)

	before := access.TakeSnapshot(rec, j)
	if before.Chapters[1].Challenges[1].Decision.Accessible {
		t.Fatal("gated challenge should start locked")
	}

	rt.GrantAchievement(rec, "gate-key", "Gate Key", "")
	after := access.TakeSnapshot(rec, j)
	if !after.Chapters[1].Challenges[1].Decision.Accessible {
		t.Error("grant should reveal the gated challenge without a validate call")
	}
}
