// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
)

// envelopeSchema is the default schema applied when a kind has no entry of
// its own: the wire envelope every consumer of loan.applications expects.
const envelopeSchema = `{
	"type": "object",
	"required": ["event", "traceId", "version", "timestamp", "payload"],
	"properties": {
		"event": {"type": "string", "enum": ["CREATE", "UPDATE"]},
		"traceId": {"type": "string", "minLength": 36, "maxLength": 36},
		"version": {"type": "string"},
		"timestamp": {"type": "string"},
		"payload": {"type": "object"}
	}
}`

// Registry validates event envelopes before they leave the process.
type Registry struct {
	defaultSchema *gojsonschema.Schema
	kindSchemas   map[string]*gojsonschema.Schema
}

// New builds a Registry with the built-in envelope schema for every kind.
func New() (*Registry, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(envelopeSchema))
	if err != nil {
		return nil, fmt.Errorf("compile envelope schema: %w", err)
	}
	return &Registry{
		defaultSchema: schema,
		kindSchemas:   map[string]*gojsonschema.Schema{},
	}, nil
}

// Load reads an event registry file and compiles per-kind schemas on top of
// the built-in envelope schema.
func Load(path string) (*Registry, error) {
	reg, err := New()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file EventRegistry
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse event registry: %w", err)
	}

	for _, entry := range file.Events {
		if entry.EnvelopeSchema == nil {
			continue
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(entry.EnvelopeSchema))
		if err != nil {
			return nil, fmt.Errorf("compile schema for kind %s: %w", entry.Kind, err)
		}
		reg.kindSchemas[entry.Kind] = schema
	}
	return reg, nil
}

// Validate checks a serialized envelope against the schema registered for its
// kind, falling back to the built-in envelope schema.
func (r *Registry) Validate(kind string, envelopeJSON []byte) error {
	schema := r.defaultSchema
	if s, ok := r.kindSchemas[kind]; ok {
		schema = s
	}

	res, err := schema.Validate(gojsonschema.NewBytesLoader(envelopeJSON))
	if err != nil {
		return fmt.Errorf("validate envelope: %w", err)
	}
	if !res.Valid() {
		first := res.Errors()[0]
		return fmt.Errorf("envelope schema violation at %s: %s", first.Field(), first.Description())
	}
	return nil
}
