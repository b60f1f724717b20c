// Package commitment records which mutually exclusive alternative a user
// chose at a frontier level, and rejects any later attempt to act on a
// foreclosed sibling. Commitments are append-only and permanent.
package commitment

import (
	"fmt"

	"github.com/abhisek/odyssey/internal/progress"
)

// AlreadyCommittedError is returned when a registration conflicts with a
// prior different choice at the same level.
type AlreadyCommittedError struct {
	Level     int
	Existing  int
	Attempted int
}

func (e *AlreadyCommittedError) Error() string {
	return fmt.Sprintf("level %d already committed to chapter %d (attempted %d)", e.Level, e.Existing, e.Attempted)
}

// Register records the chapter chosen at a frontier level. Registering the
// same choice again is a no-op; a conflicting choice fails and leaves the
// existing entry untouched.
func Register(rec *progress.Record, level, chapter int) error {
	if rec.Commitments == nil {
		rec.Commitments = map[int]int{}
	}
	if existing, ok := rec.Commitments[level]; ok {
		if existing == chapter {
			return nil
		}
		return &AlreadyCommittedError{Level: level, Existing: existing, Attempted: chapter}
	}
	rec.Commitments[level] = chapter
	return nil
}

// Committed returns the chapter chosen at the given level, if any.
func Committed(rec *progress.Record, level int) (int, bool) {
	chapter, ok := rec.Commitments[level]
	return chapter, ok
}

// IsForeclosed reports whether the candidate chapter is permanently locked
// out by a commitment to a different chapter at the same level.
func IsForeclosed(rec *progress.Record, level, chapter int) bool {
	existing, ok := rec.Commitments[level]
	return ok && existing != chapter
}
