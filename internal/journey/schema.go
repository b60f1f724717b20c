package journey

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// documentSchema describes a journey document before normalization.
// Chapters may arrive as an object keyed by chapter number or as an array;
// the legacy "days" key is accepted in place of "chapters".
var documentSchema = map[string]any{
	"type":     "object",
	"required": []any{"title"},
	"properties": map[string]any{
		"title":          map[string]any{"type": "string", "minLength": 1},
		"description":    map[string]any{"type": "string"},
		"intro_text":     map[string]any{"type": "string"},
		"success_text":   map[string]any{"type": "string"},
		"failure_text":   map[string]any{"type": "string"},
		"initial_avatar": map[string]any{"type": "string"},
		"initial_world":  map[string]any{"type": "string"},
		"chapters":       chapterCollectionSchema,
		"days":           chapterCollectionSchema,
	},
}

var chapterCollectionSchema = map[string]any{
	"oneOf": []any{
		map[string]any{
			"type":                 "object",
			"additionalProperties": chapterSchema,
		},
		map[string]any{
			"type":  "array",
			"items": chapterSchema,
		},
	},
}

var chapterSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title":          map[string]any{"type": "string"},
		"description":    map[string]any{"type": "string"},
		"intro":          map[string]any{"type": "string"},
		"required_level": map[string]any{"type": "integer", "minimum": 1},
		"depends_on": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"challenges": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":       map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
					"difficulty": map[string]any{
						"enum": []any{"easy", "medium", "hard", "extreme"},
					},
					"depends_on": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
					"code": map[string]any{"type": "string"},
				},
			},
		},
	},
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// validateDocument checks a parsed journey document against the schema.
func validateDocument(doc any) error {
	schemaOnce.Do(func() {
		// The jsonschema library expects a parsed JSON value, not raw
		// bytes. Marshal then unmarshal to get a clean representation.
		raw, err := json.Marshal(documentSchema)
		if err != nil {
			schemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err != nil {
			schemaErr = fmt.Errorf("parse schema: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		const url = "schema://journey.json"
		if err := c.AddResource(url, parsed); err != nil {
			schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(url)
	})
	if schemaErr != nil {
		return schemaErr
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return fmt.Errorf("journey document invalid: %w", err)
	}
	return nil
}
