// Package progress holds the mutable per-user, per-journey state. A Record
// is owned by exactly one user and is mutated only through runtime
// operations; persistence and locking are the caller's concern.
package progress

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/odyssey/internal/journey"
)

// State is a record's position in the journey lifecycle.
type State string

const (
	StateNotStarted State = "not-started"
	StateInProgress State = "in-progress"
	StateCompleted  State = "completed"
	StateAbandoned  State = "abandoned"
)

// ChallengeKey identifies a challenge by chapter number and position.
type ChallengeKey struct {
	Chapter int
	Index   int
}

func (k ChallengeKey) String() string {
	return strconv.Itoa(k.Chapter) + ":" + strconv.Itoa(k.Index)
}

// MarshalText lets ChallengeKey serve as a JSON map key.
func (k ChallengeKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the "chapter:index" form produced by MarshalText.
func (k *ChallengeKey) UnmarshalText(text []byte) error {
	chapter, index, ok := strings.Cut(string(text), ":")
	if !ok {
		return fmt.Errorf("malformed challenge key %q", text)
	}
	c, err := strconv.Atoi(chapter)
	if err != nil {
		return fmt.Errorf("malformed challenge key %q: %w", text, err)
	}
	i, err := strconv.Atoi(index)
	if err != nil {
		return fmt.Errorf("malformed challenge key %q: %w", text, err)
	}
	k.Chapter = c
	k.Index = i
	return nil
}

// Record is the mutable heart of the progression model. Completion sets and
// commitments only grow for the lifetime of a record; retired records are
// archived, never deleted.
type Record struct {
	ID        string `json:"id"`
	User      string `json:"user"`
	JourneyID string `json:"journey_id"`
	State     State  `json:"state"`

	StartedAt time.Time `json:"started_at"`

	CompletedChapters   map[int]bool          `json:"completed_chapters"`
	CompletedChallenges map[ChallengeKey]bool `json:"completed_challenges"`

	Achievements map[string]journey.Achievement `json:"achievements"`

	// Commitments maps a frontier level to the chapter chosen at that
	// level. Entries are append-only; an existing value is never changed.
	Commitments map[int]int `json:"commitments"`

	LastValidationAt     *time.Time `json:"last_validation_at"`
	CreditsConsumedToday int        `json:"credits_consumed_today"`

	// Avatar and World are free-form bags mutated only by challenge
	// payloads. The engine passes them through without reading them.
	Avatar map[string]any `json:"avatar"`
	World  map[string]any `json:"world"`
}

// NewRecord creates an in-progress record for a user starting a journey,
// seeded from the journey's initial avatar and world templates.
func NewRecord(user string, j *journey.Journey, journeyID string, now time.Time) *Record {
	return &Record{
		ID:                  uuid.NewString(),
		User:                user,
		JourneyID:           journeyID,
		State:               StateInProgress,
		StartedAt:           now,
		CompletedChapters:   map[int]bool{},
		CompletedChallenges: map[ChallengeKey]bool{},
		Achievements:        map[string]journey.Achievement{},
		Commitments:         map[int]int{},
		Avatar:              journey.ParseInitialState(j.InitialAvatar),
		World:               journey.ParseInitialState(j.InitialWorld),
	}
}

// Active reports whether the record still accepts mutations.
func (r *Record) Active() bool {
	return r.State == StateInProgress
}

// HasChallenge reports whether the challenge is completed.
func (r *Record) HasChallenge(k ChallengeKey) bool {
	return r.CompletedChallenges[k]
}

// HasChapter reports whether the chapter is completed.
func (r *Record) HasChapter(num int) bool {
	return r.CompletedChapters[num]
}

// CompleteChallenge marks a challenge as completed. Completions are never
// retracted.
func (r *Record) CompleteChallenge(k ChallengeKey) {
	if r.CompletedChallenges == nil {
		r.CompletedChallenges = map[ChallengeKey]bool{}
	}
	r.CompletedChallenges[k] = true
}

// CompleteChapter marks a chapter as completed.
func (r *Record) CompleteChapter(num int) {
	if r.CompletedChapters == nil {
		r.CompletedChapters = map[int]bool{}
	}
	r.CompletedChapters[num] = true
}

// Grant adds an achievement to the record. Granting an already-held
// achievement is a no-op; the return value reports whether the grant was
// new.
func (r *Record) Grant(a journey.Achievement) bool {
	if r.Achievements == nil {
		r.Achievements = map[string]journey.Achievement{}
	}
	if _, held := r.Achievements[a.ID]; held {
		return false
	}
	r.Achievements[a.ID] = a
	return true
}
