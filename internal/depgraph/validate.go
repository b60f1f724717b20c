package depgraph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/abhisek/odyssey/internal/journey"
)

// ValidateJourney checks the journey's dependency graph once at load time.
// It rejects unresolvable references (empty achievement IDs, challenge refs
// outside the owning chapter, self-references) and cycles among in-chapter
// challenge references. Achievement IDs are grantable dynamically during
// play, so forward references to achievements not declared anywhere are
// tolerated. The returned error joins a *CycleError, an *UnresolvedError,
// and plain structural errors as applicable.
func ValidateJourney(j *journey.Journey) error {
	var unresolved []string
	var structural []error

	for _, num := range j.ChapterNums() {
		c := j.Chapters[num]
		if c.RequiredLevel < 1 {
			structural = append(structural, fmt.Errorf("chapter %d: required_level must be >= 1, got %d", num, c.RequiredLevel))
		}
		for _, id := range c.DependsOn {
			if id == "" {
				unresolved = append(unresolved, fmt.Sprintf("chapter %d: empty achievement ID", num))
			}
		}
		for idx, ch := range c.Challenges {
			for _, dep := range ch.DependsOn {
				ref, isRef := dep.ChallengeIndex()
				if !isRef {
					if id, _ := dep.AchievementID(); id == "" {
						unresolved = append(unresolved, fmt.Sprintf("chapter %d challenge %d: empty achievement ID", num, idx))
					}
					continue
				}
				if ref < 0 || ref >= len(c.Challenges) {
					unresolved = append(unresolved, fmt.Sprintf("chapter %d challenge %d: references nonexistent challenge %d", num, idx, ref))
				} else if ref == idx {
					unresolved = append(unresolved, fmt.Sprintf("chapter %d challenge %d: references itself", num, idx))
				}
			}
		}
	}

	cycleNodes := findChallengeCycles(j)

	var errs []error
	if len(cycleNodes) > 0 {
		errs = append(errs, &CycleError{Nodes: cycleNodes})
	}
	if len(unresolved) > 0 {
		errs = append(errs, &UnresolvedError{Refs: unresolved})
	}
	errs = append(errs, structural...)
	return errors.Join(errs...)
}

// findChallengeCycles runs Kahn's algorithm over in-chapter challenge
// references. Achievements have no outgoing edges, so those are the only
// edges a cycle can travel.
func findChallengeCycles(j *journey.Journey) []string {
	var cycleNodes []string

	for _, num := range j.ChapterNums() {
		c := j.Chapters[num]
		n := len(c.Challenges)
		if n == 0 {
			continue
		}

		inDegree := make([]int, n)
		dependents := make([][]int, n)
		for idx, ch := range c.Challenges {
			for _, dep := range ch.DependsOn {
				ref, ok := dep.ChallengeIndex()
				if !ok || ref < 0 || ref >= n {
					continue
				}
				inDegree[idx]++
				dependents[ref] = append(dependents[ref], idx)
			}
		}

		var queue []int
		for idx := 0; idx < n; idx++ {
			if inDegree[idx] == 0 {
				queue = append(queue, idx)
			}
		}

		visited := 0
		for len(queue) > 0 {
			idx := queue[0]
			queue = queue[1:]
			visited++
			for _, dep := range dependents[idx] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					queue = append(queue, dep)
				}
			}
		}

		if visited < n {
			for idx := 0; idx < n; idx++ {
				if inDegree[idx] > 0 {
					cycleNodes = append(cycleNodes, fmt.Sprintf("chapter %d challenge %d", num, idx))
				}
			}
		}
	}

	sort.Strings(cycleNodes)
	return cycleNodes
}
