// internal/common/validation/schema.go

// Package validation checks submission payloads against JSON schemas.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError describes a single failed field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the outcome of a schema validation run.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Summary flattens the field errors into one human-readable string.
func (r *Result) Summary() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

// Validator holds a compiled schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles a JSON schema document.
func NewValidator(schemaJSON string) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate checks a document (any JSON-marshalable value) against the schema.
func (v *Validator) Validate(document interface{}) (*Result, error) {
	res, err := v.schema.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("validate document: %w", err)
	}

	if res.Valid() {
		return &Result{Valid: true}, nil
	}

	out := &Result{Valid: false}
	for _, e := range res.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   e.Field(),
			Message: e.Description(),
		})
	}
	return out, nil
}

// ApplicationSubmissionSchema validates the create-application payload.
const ApplicationSubmissionSchema = `{
	"type": "object",
	"required": ["applicantId", "nationalId"],
	"properties": {
		"applicantId": {"type": "string", "minLength": 36, "maxLength": 36},
		"nationalId": {"type": "string", "minLength": 1, "maxLength": 20},
		"amount": {"type": "number", "minimum": 0},
		"status": {"type": "string", "enum": ["PENDING", "APPROVED", "REJECTED"]},
		"documents": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["fileName", "filePath"],
				"properties": {
					"fileName": {"type": "string", "minLength": 1},
					"filePath": {"type": "string", "minLength": 1},
					"fileType": {"type": "string"},
					"size": {"type": "integer", "minimum": 0}
				}
			}
		}
	}
}`
