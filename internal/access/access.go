// Package access answers the single question the UI layer keeps asking: can
// this user currently see and interact with this content node. Decisions
// combine the level model, dependency resolution, and commitment state, and
// are pure snapshots over a record — they never mutate anything.
package access

import (
	"github.com/abhisek/odyssey/internal/commitment"
	"github.com/abhisek/odyssey/internal/depgraph"
	"github.com/abhisek/odyssey/internal/journey"
	"github.com/abhisek/odyssey/internal/progress"
	"github.com/abhisek/odyssey/internal/progression"
)

// Reason explains an accessibility decision.
type Reason string

const (
	ReasonOK                  Reason = "all-conditions-met"
	ReasonInvalidChapter      Reason = "invalid-chapter"
	ReasonInvalidChallenge    Reason = "invalid-challenge"
	ReasonInsufficientLevel   Reason = "insufficient-level"
	ReasonMissingAchievements Reason = "missing-achievements"
	ReasonMissingChallenges   Reason = "missing-challenges"
	ReasonCommittedElsewhere  Reason = "committed-elsewhere"
	ReasonAlreadyCompleted    Reason = "already-completed"
)

// Decision is the outcome of a single accessibility check.
type Decision struct {
	Accessible bool
	Reason     Reason

	RequiredLevel int
	UserLevel     int

	// MissingAchievements lists the unmet achievement IDs when the
	// reason is ReasonMissingAchievements.
	MissingAchievements []string

	// CommittedChapter is the chapter the user is locked to when the
	// reason is ReasonCommittedElsewhere.
	CommittedChapter int
}

// Chapter decides whether the chapter is currently accessible at the given
// user level.
func Chapter(rec *progress.Record, j *journey.Journey, num, level int) Decision {
	c, ok := j.Chapter(num)
	if !ok {
		return Decision{Reason: ReasonInvalidChapter, UserLevel: level}
	}

	d := Decision{RequiredLevel: c.RequiredLevel, UserLevel: level}

	if level < c.RequiredLevel {
		d.Reason = ReasonInsufficientLevel
		return d
	}

	if !depgraph.HasAchievements(rec, c.DependsOn) {
		for _, id := range c.DependsOn {
			if _, held := rec.Achievements[id]; !held {
				d.MissingAchievements = append(d.MissingAchievements, id)
			}
		}
		d.Reason = ReasonMissingAchievements
		return d
	}

	if commitment.IsForeclosed(rec, c.RequiredLevel, num) {
		d.Reason = ReasonCommittedElsewhere
		d.CommittedChapter, _ = commitment.Committed(rec, c.RequiredLevel)
		return d
	}

	d.Accessible = true
	d.Reason = ReasonOK
	return d
}

// Challenge decides whether the challenge at idx in the chapter is
// currently accessible. An already-completed challenge is displayed as
// completed, not re-offered, so it reports ReasonAlreadyCompleted.
func Challenge(rec *progress.Record, j *journey.Journey, num, idx, level int) Decision {
	d := Chapter(rec, j, num, level)
	if !d.Accessible {
		return d
	}

	c, _ := j.Chapter(num)
	if idx < 0 || idx >= len(c.Challenges) {
		return Decision{Reason: ReasonInvalidChallenge, RequiredLevel: c.RequiredLevel, UserLevel: level}
	}

	if rec.HasChallenge(progress.ChallengeKey{Chapter: num, Index: idx}) {
		d.Accessible = false
		d.Reason = ReasonAlreadyCompleted
		return d
	}

	ch := c.Challenges[idx]
	var missingAch []string
	var refs []int
	for _, dep := range ch.DependsOn {
		if ref, ok := dep.ChallengeIndex(); ok {
			refs = append(refs, ref)
			continue
		}
		if id, _ := dep.AchievementID(); id != "" {
			if _, held := rec.Achievements[id]; !held {
				missingAch = append(missingAch, id)
			}
		}
	}
	if len(missingAch) > 0 {
		d.Accessible = false
		d.Reason = ReasonMissingAchievements
		d.MissingAchievements = missingAch
		return d
	}
	if !depgraph.HasCompleted(rec, num, refs) {
		d.Accessible = false
		d.Reason = ReasonMissingChallenges
		return d
	}

	return d
}

// ChallengeView pairs a challenge decision with its completion state.
type ChallengeView struct {
	Decision  Decision
	Completed bool
}

// ChapterView is the rendered accessibility state of one chapter.
type ChapterView struct {
	Decision   Decision
	Completed  bool
	Challenges []ChallengeView
}

// Snapshot is the full accessibility picture returned to the UI layer after
// every mutation.
type Snapshot struct {
	Progress progression.Progress
	State    progress.State
	Chapters map[int]ChapterView
}

// TakeSnapshot computes the accessibility of every chapter and challenge in
// the journey for the given record.
func TakeSnapshot(rec *progress.Record, j *journey.Journey) Snapshot {
	prog := progression.Compute(rec, j)
	snap := Snapshot{
		Progress: prog,
		State:    rec.State,
		Chapters: make(map[int]ChapterView, len(j.Chapters)),
	}

	for _, num := range j.ChapterNums() {
		c := j.Chapters[num]
		view := ChapterView{
			Decision:  Chapter(rec, j, num, prog.Level),
			Completed: rec.HasChapter(num),
		}
		for idx := range c.Challenges {
			view.Challenges = append(view.Challenges, ChallengeView{
				Decision:  Challenge(rec, j, num, idx, prog.Level),
				Completed: rec.HasChallenge(progress.ChallengeKey{Chapter: num, Index: idx}),
			})
		}
		snap.Chapters[num] = view
	}
	return snap
}
