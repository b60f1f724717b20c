// Package sandbox defines the contract between the engine and the external
// collaborator that executes challenge payloads. The engine never runs or
// trusts a payload; it only defines the two callback capabilities the
// payload may invoke.
package sandbox

import (
	"time"

	"github.com/abhisek/odyssey/internal/access"
	"github.com/abhisek/odyssey/internal/journey"
	"github.com/abhisek/odyssey/internal/progress"
	"github.com/abhisek/odyssey/internal/runtime"
)

// Context is the capability surface handed to a challenge runner. Avatar
// and World are the record's own bags: payloads mutate them freely and the
// engine never reads their contents.
type Context struct {
	Avatar     map[string]any
	World      map[string]any
	ChapterNum int

	// NewAchievement grants an achievement to the running user.
	// Granting an already-held achievement is a no-op.
	NewAchievement func(id, title, description string)

	// Validate reports the challenge outcome back to the engine. The
	// returned error is an expected action rejection (no credit, not
	// accessible) for the runner to surface, never a payload failure.
	Validate func(success bool) error
}

// Bind builds the sandbox context for one challenge of one record. The
// clock is caller-supplied to keep the credit ledger deterministic. The
// snapshot produced by the last successful Validate call is available via
// the returned snapshot pointer.
func Bind(rt *runtime.Runtime, rec *progress.Record, j *journey.Journey, chapterNum, challengeIdx int, clock func() time.Time, bypass bool) (*Context, *access.Snapshot) {
	snap := &access.Snapshot{}
	ctx := &Context{
		Avatar:     rec.Avatar,
		World:      rec.World,
		ChapterNum: chapterNum,
		NewAchievement: func(id, title, description string) {
			rt.GrantAchievement(rec, id, title, description)
		},
		Validate: func(success bool) error {
			s, err := rt.ValidateChallenge(rec, j, chapterNum, challengeIdx, success, clock(), bypass)
			if err != nil {
				return err
			}
			*snap = s
			return nil
		},
	}
	return ctx, snap
}
