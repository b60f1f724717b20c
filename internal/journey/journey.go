package journey

import (
	"sort"
	"strconv"
	"strings"
)

// Difficulty tags a challenge with its bonus-XP weight class.
type Difficulty string

const (
	DifficultyEasy    Difficulty = "easy"
	DifficultyMedium  Difficulty = "medium"
	DifficultyHard    Difficulty = "hard"
	DifficultyExtreme Difficulty = "extreme"
)

// AllDifficulties returns the difficulties in ascending weight order.
func AllDifficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExtreme}
}

// Weight returns the bonus-XP contribution of a completed challenge with
// this difficulty. Unknown tags fall back to the easy weight.
func (d Difficulty) Weight() float64 {
	switch d {
	case DifficultyMedium:
		return 2.0
	case DifficultyHard:
		return 3.0
	case DifficultyExtreme:
		return 4.0
	default:
		return 1.0
	}
}

// challengeRefPrefix marks a depends_on entry as an in-chapter challenge
// reference rather than an achievement ID.
const challengeRefPrefix = "challenge:"

// Dependency is a single depends_on entry on a challenge: either an
// achievement ID, or a reference to an earlier challenge in the same
// chapter written as "challenge:<idx>".
type Dependency string

// ChallengeIndex returns the referenced in-chapter challenge index and true
// when the dependency is a challenge reference.
func (d Dependency) ChallengeIndex() (int, bool) {
	s, ok := strings.CutPrefix(string(d), challengeRefPrefix)
	if !ok {
		return 0, false
	}
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return idx, true
}

// AchievementID returns the achievement ID and true when the dependency is
// an achievement requirement.
func (d Dependency) AchievementID() (string, bool) {
	if _, ok := d.ChallengeIndex(); ok {
		return "", false
	}
	return string(d), true
}

// ChallengeRef builds a dependency referencing the challenge at idx in the
// owning chapter.
func ChallengeRef(idx int) Dependency {
	return Dependency(challengeRefPrefix + strconv.Itoa(idx))
}

// Achievement is a collectible granted dynamically by challenge payloads.
// IDs are unique within a journey but are not pre-declared.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Challenge is a single interactive task inside a chapter. Code is an
// opaque payload executed by an external sandbox; the engine never
// interprets it.
type Challenge struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Difficulty  Difficulty   `json:"difficulty"`
	DependsOn   []Dependency `json:"depends_on"`
	Code        string       `json:"code"`
}

// Chapter is one narrative stage of a journey. DependsOn lists achievement
// IDs that must all be held before the chapter opens.
type Chapter struct {
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Intro         string      `json:"intro"`
	RequiredLevel int         `json:"required_level"`
	DependsOn     []string    `json:"depends_on"`
	Challenges    []Challenge `json:"challenges"`
}

// Journey is an immutable staged-content definition, loaded once and shared
// read-only across users. Narrative text fields are opaque to the engine.
type Journey struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	IntroText     string          `json:"intro_text"`
	SuccessText   string          `json:"success_text"`
	FailureText   string          `json:"failure_text"`
	InitialAvatar string          `json:"initial_avatar"`
	InitialWorld  string          `json:"initial_world"`
	Chapters      map[int]Chapter `json:"chapters"`
}

// Chapter returns the chapter with the given number.
func (j *Journey) Chapter(num int) (Chapter, bool) {
	c, ok := j.Chapters[num]
	return c, ok
}

// ChapterNums returns all chapter numbers in ascending order.
func (j *Journey) ChapterNums() []int {
	nums := make([]int, 0, len(j.Chapters))
	for n := range j.Chapters {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// MaxRequiredLevel returns the highest required_level in the journey, or 0
// for a journey with no chapters.
func (j *Journey) MaxRequiredLevel() int {
	max := 0
	for _, c := range j.Chapters {
		if c.RequiredLevel > max {
			max = c.RequiredLevel
		}
	}
	return max
}

// AlternativesAtLevel returns the numbers of all chapters gated at the given
// level, in ascending order. Two or more chapters at the same level form a
// mutually exclusive group: completing a challenge in one forecloses the
// others.
func (j *Journey) AlternativesAtLevel(level int) []int {
	var nums []int
	for n, c := range j.Chapters {
		if c.RequiredLevel == level {
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)
	return nums
}
