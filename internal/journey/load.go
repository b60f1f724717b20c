package journey

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
)

// Load reads, schema-validates, and normalizes a journey document.
// Structural validation of the dependency graph is a separate step
// (depgraph.ValidateJourney), performed by the caller before the journey is
// offered to any user.
func Load(r io.Reader) (*Journey, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read journey: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse journey: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	raw, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("journey document must be an object")
	}
	return normalize(raw)
}

// LoadFile loads a journey definition from a JSON file.
func LoadFile(path string) (*Journey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journey: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// ParseInitialState decodes a string-encoded key/value map. Empty or
// malformed input yields an empty map; the engine never inspects the
// contents either way.
func ParseInitialState(s string) map[string]any {
	if s == "" {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil || m == nil {
		return map[string]any{}
	}
	return m
}

// normalize converts a schema-valid raw document into a Journey. Chapters
// may be keyed by number strings or listed as an array; the legacy "days"
// key is accepted in place of "chapters".
func normalize(raw map[string]any) (*Journey, error) {
	j := &Journey{
		Title:         str(raw, "title"),
		Description:   str(raw, "description"),
		IntroText:     str(raw, "intro_text"),
		SuccessText:   str(raw, "success_text"),
		FailureText:   str(raw, "failure_text"),
		InitialAvatar: str(raw, "initial_avatar"),
		InitialWorld:  str(raw, "initial_world"),
		Chapters:      map[int]Chapter{},
	}

	chaptersRaw, ok := raw["chapters"]
	if !ok {
		chaptersRaw = raw["days"]
	}

	switch v := chaptersRaw.(type) {
	case nil:
	case map[string]any:
		// Deterministic iteration keeps duplicate-key errors stable.
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			num, err := strconv.Atoi(k)
			if err != nil {
				return nil, fmt.Errorf("chapter key %q is not a number", k)
			}
			item, ok := v[k].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("chapter %d: not an object", num)
			}
			j.Chapters[num] = normalizeChapter(item)
		}
	case []any:
		for i, entry := range v {
			item, ok := entry.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("chapter at position %d: not an object", i)
			}
			num := i + 1
			if n, ok := intField(item, "chapter"); ok {
				num = n
			} else if n, ok := intField(item, "day"); ok {
				num = n
			}
			if _, exists := j.Chapters[num]; exists {
				return nil, fmt.Errorf("duplicate chapter number %d", num)
			}
			j.Chapters[num] = normalizeChapter(item)
		}
	default:
		return nil, fmt.Errorf("chapters must be an object or an array")
	}

	return j, nil
}

func normalizeChapter(raw map[string]any) Chapter {
	c := Chapter{
		Title:         str(raw, "title"),
		Description:   str(raw, "description"),
		Intro:         str(raw, "intro"),
		RequiredLevel: 1,
		DependsOn:     strSlice(raw, "depends_on"),
	}
	if lvl, ok := intField(raw, "required_level"); ok {
		c.RequiredLevel = lvl
	}

	items, _ := raw["challenges"].([]any)
	for _, entry := range items {
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		ch := Challenge{
			Title:       str(item, "title"),
			Description: str(item, "description"),
			Difficulty:  DifficultyEasy,
			Code:        str(item, "code"),
		}
		if ch.Title == "" {
			ch.Title = "Challenge"
		}
		if d := str(item, "difficulty"); d != "" {
			ch.Difficulty = Difficulty(d)
		}
		for _, dep := range strSlice(item, "depends_on") {
			ch.DependsOn = append(ch.DependsOn, Dependency(dep))
		}
		c.Challenges = append(c.Challenges, ch)
	}
	return c
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func strSlice(m map[string]any, key string) []string {
	items, _ := m[key].([]any)
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func intField(m map[string]any, key string) (int, bool) {
	// JSON numbers decode as float64.
	f, ok := m[key].(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}
