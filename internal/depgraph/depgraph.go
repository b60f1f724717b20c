// Package depgraph resolves prerequisite sets against a record's
// achievements and completions, and validates a journey's dependency graph
// at load time.
package depgraph

import (
	"fmt"
	"strings"

	"github.com/abhisek/odyssey/internal/progress"
)

// CycleError reports a dependency cycle found at load time.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle involving: %s", strings.Join(e.Nodes, ", "))
}

// UnresolvedError reports depends_on references that can never be
// satisfied.
type UnresolvedError struct {
	Refs []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("unresolvable dependency references:\n  %s", strings.Join(e.Refs, "\n  "))
}

// HasAchievements reports whether the record holds every required
// achievement. An empty requirement set always satisfies.
func HasAchievements(rec *progress.Record, required []string) bool {
	for _, id := range required {
		if _, ok := rec.Achievements[id]; !ok {
			return false
		}
	}
	return true
}

// HasCompleted reports whether every referenced challenge in the given
// chapter is completed.
func HasCompleted(rec *progress.Record, chapter int, refs []int) bool {
	for _, idx := range refs {
		if !rec.HasChallenge(progress.ChallengeKey{Chapter: chapter, Index: idx}) {
			return false
		}
	}
	return true
}
