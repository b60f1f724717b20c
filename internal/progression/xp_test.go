package progression

import (
	"math"
	"testing"
	"time"

	"github.com/abhisek/odyssey/internal/journey"
	"github.com/abhisek/odyssey/internal/progress"
)

func testJourney() *journey.Journey {
	return &journey.Journey{
		Title: "Test",
		Chapters: map[int]journey.Chapter{
			1: {RequiredLevel: 1, Challenges: []journey.Challenge{
				{Difficulty: journey.DifficultyMedium},
				{Difficulty: journey.DifficultyEasy},
			}},
			2: {RequiredLevel: 2, Challenges: []journey.Challenge{
				{Difficulty: journey.DifficultyHard},
			}},
		},
	}
}

func newRecord(j *journey.Journey) *progress.Record {
	return progress.NewRecord("alice", j, "test", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
}

func TestLevelForXP_ClampsToOne(t *testing.T) {
	for _, xp := range []float64{-5, 0, 0.5, 1.4} {
		if got := LevelForXP(xp); got != 1 {
			t.Errorf("LevelForXP(%v) = %d, want 1", xp, got)
		}
	}
}

func TestLevelForXP_RoundTripsThresholds(t *testing.T) {
	for level := 1; level <= 50; level++ {
		threshold := XPAtLevel(level)
		if got := LevelForXP(threshold); got != level {
			t.Errorf("LevelForXP(XPAtLevel(%d)=%v) = %d, want %d", level, threshold, got, level)
		}
		// Just below the threshold stays on the previous level.
		if level > 1 {
			if got := LevelForXP(threshold - 0.01); got != level-1 {
				t.Errorf("LevelForXP(%v) = %d, want %d", threshold-0.01, got, level-1)
			}
		}
	}
}

func TestLevelForXP_NonDecreasing(t *testing.T) {
	prev := 0
	for xp := 0.0; xp <= 100; xp += 0.25 {
		level := LevelForXP(xp)
		if level < prev {
			t.Fatalf("level decreased from %d to %d at xp=%v", prev, level, xp)
		}
		prev = level
	}
}

func TestXPAtLevel_KnownThresholds(t *testing.T) {
	tests := []struct {
		level int
		want  float64
	}{
		{1, 0},
		{2, 1.5},
		{3, 4.5},
		{4, 9},
		{5, 15},
	}
	for _, tt := range tests {
		if got := XPAtLevel(tt.level); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("XPAtLevel(%d) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestTotalXP_SumsChaptersAndChallenges(t *testing.T) {
	j := testJourney()
	rec := newRecord(j)

	if got := TotalXP(rec, j); got != 0 {
		t.Fatalf("fresh record TotalXP = %v, want 0", got)
	}

	rec.CompleteChallenge(progress.ChallengeKey{Chapter: 1, Index: 0}) // medium, weight 2
	if got := TotalXP(rec, j); got != 2 {
		t.Errorf("TotalXP = %v, want 2", got)
	}

	// Completing the chapter itself adds its required level on top of
	// the individually counted challenges.
	rec.CompleteChallenge(progress.ChallengeKey{Chapter: 1, Index: 1}) // easy, weight 1
	rec.CompleteChapter(1)
	if got := TotalXP(rec, j); got != 4 {
		t.Errorf("TotalXP = %v, want 4 (1 chapter + 2 + 1 challenges)", got)
	}
}

func TestTotalXP_IgnoresUnknownEntries(t *testing.T) {
	j := testJourney()
	rec := newRecord(j)
	rec.CompleteChapter(99)
	rec.CompleteChallenge(progress.ChallengeKey{Chapter: 1, Index: 42})

	if got := TotalXP(rec, j); got != 0 {
		t.Errorf("TotalXP = %v, want 0 for entries outside the journey", got)
	}
}

func TestCompute_ProgressWithinLevel(t *testing.T) {
	j := testJourney()
	rec := newRecord(j)
	rec.CompleteChallenge(progress.ChallengeKey{Chapter: 1, Index: 0}) // xp = 2

	p := Compute(rec, j)
	if p.Level != 2 {
		t.Fatalf("Level = %d, want 2", p.Level)
	}
	if math.Abs(p.IntoLevel-0.5) > 1e-9 {
		t.Errorf("IntoLevel = %v, want 0.5", p.IntoLevel)
	}
	if math.Abs(p.ToNext-2.5) > 1e-9 {
		t.Errorf("ToNext = %v, want 2.5", p.ToNext)
	}
	if p.Fraction <= 0 || p.Fraction >= 1 {
		t.Errorf("Fraction = %v, want in (0, 1)", p.Fraction)
	}
}
