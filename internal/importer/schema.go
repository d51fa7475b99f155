// Package importer accepts lesson-plan JSON documents, validates them
// against a schema and registers the lessons through the assignment
// manager.
package importer

// Schema is the lesson-plan document contract. Numbers are optional: a
// missing number gets the next free one at import time. half_term, when
// present, assigns the imported lesson immediately.
const Schema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["lessons"],
  "properties": {
    "lessons": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["title", "activities"],
        "properties": {
          "number": {"type": "string", "minLength": 1},
          "title": {"type": "string", "minLength": 1},
          "header": {"type": "string"},
          "footer": {"type": "string"},
          "half_term": {"type": "string", "enum": ["A1", "A2", "SP1", "SP2", "SM1", "SM2"]},
          "activities": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["category", "duration"],
              "properties": {
                "id": {"type": "string"},
                "category": {"type": "string", "minLength": 1},
                "duration": {"type": "integer", "minimum": 0},
                "title": {"type": "string"},
                "notes": {"type": "string"},
                "resources": {
                  "type": "object",
                  "additionalProperties": {"type": "string"}
                }
              }
            }
          }
        }
      }
    }
  }
}`

// document mirrors the schema for decoding after validation passes.
type document struct {
	Lessons []lessonPayload `json:"lessons"`
}

type lessonPayload struct {
	Number     string            `json:"number"`
	Title      string            `json:"title"`
	Header     string            `json:"header"`
	Footer     string            `json:"footer"`
	HalfTerm   string            `json:"half_term"`
	Activities []activityPayload `json:"activities"`
}

type activityPayload struct {
	ID        string            `json:"id"`
	Category  string            `json:"category"`
	Duration  int               `json:"duration"`
	Title     string            `json:"title"`
	Notes     string            `json:"notes"`
	Resources map[string]string `json:"resources"`
}
