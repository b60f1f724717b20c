// Package progression implements the numeric XP/level model: a pure mapping
// from a record's completion sets to experience points, and between
// experience points and integer levels.
package progression

import (
	"math"

	"github.com/abhisek/odyssey/internal/journey"
	"github.com/abhisek/odyssey/internal/progress"
)

// TotalXP computes accumulated experience: each completed chapter
// contributes its required level, each completed challenge contributes its
// difficulty weight. Only entries present in the completion sets count, so
// a chapter whose challenges are all done but whose completion flag is
// unset contributes nothing itself.
func TotalXP(rec *progress.Record, j *journey.Journey) float64 {
	var xp float64
	for num, done := range rec.CompletedChapters {
		if !done {
			continue
		}
		if c, ok := j.Chapter(num); ok {
			xp += float64(c.RequiredLevel)
		}
	}
	for key, done := range rec.CompletedChallenges {
		if !done {
			continue
		}
		c, ok := j.Chapter(key.Chapter)
		if !ok || key.Index < 0 || key.Index >= len(c.Challenges) {
			continue
		}
		xp += c.Challenges[key.Index].Difficulty.Weight()
	}
	return xp
}

// LevelForXP maps experience points to an integer level using quadratic
// progression, clamped to a minimum of 1.
func LevelForXP(xp float64) int {
	if xp <= 0 {
		return 1
	}
	level := int(math.Floor(0.5 + 0.5*math.Sqrt(1+(16.0/3.0)*xp)))
	if level < 1 {
		return 1
	}
	return level
}

// XPAtLevel returns the minimum experience required to hold the given
// level: 0.75·L·(L−1), the exact inverse of LevelForXP's threshold.
func XPAtLevel(level int) float64 {
	if level < 1 {
		return 0
	}
	return 0.75 * float64(level) * float64(level-1)
}

// Progress describes a record's position within its current level, for
// rendering a progress bar.
type Progress struct {
	TotalXP   float64
	Level     int
	IntoLevel float64 // XP accumulated past the current level threshold
	ToNext    float64 // XP still needed to reach the next level
	Fraction  float64 // IntoLevel / (next threshold − current threshold), in [0, 1]
}

// Compute derives the full progression view for a record.
func Compute(rec *progress.Record, j *journey.Journey) Progress {
	xp := TotalXP(rec, j)
	level := LevelForXP(xp)
	lower := XPAtLevel(level)
	upper := XPAtLevel(level + 1)

	p := Progress{
		TotalXP:   xp,
		Level:     level,
		IntoLevel: xp - lower,
		ToNext:    upper - xp,
	}
	if upper > lower {
		p.Fraction = math.Min((xp-lower)/(upper-lower), 1.0)
	}
	return p
}

// Level is a convenience for the common "what level is this user" question.
func Level(rec *progress.Record, j *journey.Journey) int {
	return LevelForXP(TotalXP(rec, j))
}
