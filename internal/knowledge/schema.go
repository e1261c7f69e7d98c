package knowledge

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

const domainSchemaJSON = `{
  "type": "object",
  "required": ["id", "name", "weight", "topics"],
  "additionalProperties": false,
  "properties": {
    "id":     {"type": "string", "pattern": "^domain_[1-5]$"},
    "name":   {"type": "string", "minLength": 1},
    "weight": {"type": "integer", "minimum": 1, "maximum": 100},
    "topics": {
      "type": "object",
      "minProperties": 1,
      "propertyNames": {"pattern": "^[a-z0-9_]+$"},
      "additionalProperties": {
        "type": "object",
        "required": ["description"],
        "additionalProperties": false,
        "properties": {
          "description":     {"type": "string", "minLength": 1},
          "details": {
            "type": "object",
            "propertyNames": {"pattern": "^[a-z0-9_]+$"},
            "additionalProperties": {"type": "array", "items": {"type": "string", "minLength": 1}}
          },
          "key_points":      {"type": "array", "items": {"type": "string", "minLength": 1}},
          "scripted_lesson": {"type": "string"}
        }
      }
    }
  }
}`

const questionSchemaJSON = `{
  "type": "object",
  "required": ["domain", "questions"],
  "additionalProperties": false,
  "properties": {
    "domain": {"type": "string", "pattern": "^domain_[1-5]$"},
    "questions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "prompt", "options", "correct", "explanation"],
        "additionalProperties": false,
        "properties": {
          "id":          {"type": "string", "minLength": 1},
          "prompt":      {"type": "string", "minLength": 1},
          "correct":     {"type": "string", "pattern": "^[A-Z]$"},
          "explanation": {"type": "string"},
          "options": {
            "type": "array",
            "minItems": 2,
            "items": {
              "type": "object",
              "required": ["label", "text"],
              "additionalProperties": false,
              "properties": {
                "label": {"type": "string", "pattern": "^[A-Z]$"},
                "text":  {"type": "string", "minLength": 1}
              }
            }
          }
        }
      }
    }
  }
}`

var (
	domainSchema   = mustSchema(domainSchemaJSON)
	questionSchema = mustSchema(questionSchemaJSON)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("knowledge: invalid embedded schema: %v", err))
	}
	return s
}

// validateDocument checks a decoded YAML document against schema and
// returns one message per violation, prefixed with path.
func validateDocument(schema *gojsonschema.Schema, path string, doc any) ([]string, error) {
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	if result.Valid() {
		return nil, nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", path, e.String()))
	}
	return problems, nil
}
