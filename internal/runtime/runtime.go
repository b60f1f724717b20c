// Package runtime orchestrates the progression engine: given a validate or
// achievement event it invokes the credit ledger, commitment tracker,
// dependency resolver, and level model in order, mutates the record, and
// returns a fresh accessibility snapshot for rendering.
package runtime

import (
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/odyssey/internal/access"
	"github.com/abhisek/odyssey/internal/commitment"
	"github.com/abhisek/odyssey/internal/credits"
	"github.com/abhisek/odyssey/internal/journey"
	"github.com/abhisek/odyssey/internal/progress"
	"github.com/abhisek/odyssey/internal/progression"
)

// ErrJourneyActive is returned by Start when the user already has an active
// record for the journey.
var ErrJourneyActive = errors.New("journey already active for user")

// ErrRecordRetired is returned when a mutation targets a completed or
// abandoned record.
var ErrRecordRetired = errors.New("progress record is retired")

// NotAccessibleError rejects a validate attempt on a node the user cannot
// currently interact with. It carries the full decision so the UI can
// explain why.
type NotAccessibleError struct {
	Decision access.Decision
}

func (e *NotAccessibleError) Error() string {
	return fmt.Sprintf("challenge not accessible: %s", e.Decision.Reason)
}

// Runtime is the orchestration surface of the engine. It holds no per-user
// state: every operation takes the record explicitly, and persistence is
// the caller's responsibility under a per-user exclusivity guarantee.
type Runtime struct {
	ledger *credits.Ledger
}

// New creates a Runtime using the given credit ledger.
func New(ledger *credits.Ledger) *Runtime {
	return &Runtime{ledger: ledger}
}

// Ledger exposes the runtime's credit ledger for availability queries.
func (r *Runtime) Ledger() *credits.Ledger {
	return r.ledger
}

// Start creates a fresh in-progress record for the user, seeded from the
// journey's initial avatar and world templates. existing is the user's
// current record for this journey, if any; an active one rejects the start.
func (r *Runtime) Start(user string, j *journey.Journey, journeyID string, existing *progress.Record, now time.Time) (*progress.Record, error) {
	if existing != nil && existing.Active() {
		return nil, ErrJourneyActive
	}
	return progress.NewRecord(user, j, journeyID, now), nil
}

// ValidateChallenge registers a challenge-completion attempt. The order is
// fixed: accessibility first, then the credit ledger, then state mutation.
// A rejected attempt mutates nothing. On success the challenge joins the
// completion set, the chapter completes when its last challenge does, a
// frontier commitment is registered when the chapter has exclusive
// siblings, and the record completes when a max-level chapter does. On
// success=false only the credit is consumed and the timestamp updated.
func (r *Runtime) ValidateChallenge(rec *progress.Record, j *journey.Journey, chapterNum, idx int, success bool, now time.Time, bypass bool) (access.Snapshot, error) {
	if !rec.Active() {
		return access.Snapshot{}, ErrRecordRetired
	}

	level := progression.Level(rec, j)
	d := access.Challenge(rec, j, chapterNum, idx, level)
	if !d.Accessible {
		return access.Snapshot{}, &NotAccessibleError{Decision: d}
	}

	if err := r.ledger.Consume(rec, now, bypass); err != nil {
		return access.Snapshot{}, err
	}

	if success {
		if err := r.applyCompletion(rec, j, chapterNum, idx, level); err != nil {
			return access.Snapshot{}, err
		}
	}

	return access.TakeSnapshot(rec, j), nil
}

// applyCompletion mutates the record for a successful validate.
func (r *Runtime) applyCompletion(rec *progress.Record, j *journey.Journey, chapterNum, idx, level int) error {
	c, _ := j.Chapter(chapterNum)

	rec.CompleteChallenge(progress.ChallengeKey{Chapter: chapterNum, Index: idx})

	// The chapter is a frontier node when its gate matches the user's
	// level as of this action; a commitment is only meaningful when
	// exclusive siblings share that gate.
	if c.RequiredLevel == level && len(j.AlternativesAtLevel(c.RequiredLevel)) > 1 {
		if err := commitment.Register(rec, c.RequiredLevel, chapterNum); err != nil {
			// Accessibility already ruled out foreclosed chapters, so
			// a conflict here means the caller raced a stale record.
			return fmt.Errorf("commitment conflict: %w", err)
		}
	}

	done := true
	for i := range c.Challenges {
		if !rec.HasChallenge(progress.ChallengeKey{Chapter: chapterNum, Index: i}) {
			done = false
			break
		}
	}
	if done {
		rec.CompleteChapter(chapterNum)
		if c.RequiredLevel == j.MaxRequiredLevel() {
			rec.State = progress.StateCompleted
		}
	}
	return nil
}

// GrantAchievement adds an achievement to the record. Granting an
// already-held achievement is a no-op; the return reports whether the grant
// was new, so callers can re-run accessibility immediately to reveal newly
// unlocked content.
func (r *Runtime) GrantAchievement(rec *progress.Record, id, title, description string) bool {
	if id == "" {
		return false
	}
	if title == "" {
		title = id
	}
	return rec.Grant(journey.Achievement{ID: id, Title: title, Description: description})
}

// Abandon retires an active record. The record keeps its history; the
// caller archives it.
func (r *Runtime) Abandon(rec *progress.Record) error {
	if !rec.Active() {
		return ErrRecordRetired
	}
	rec.State = progress.StateAbandoned
	return nil
}
