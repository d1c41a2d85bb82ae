// pkg/registry/schema.go
package registry

// EventRegistry is the on-disk description of every event this service emits.
type EventRegistry struct {
	Version     string       `json:"version"`
	LastUpdated string       `json:"lastUpdated"`
	Events      []EventEntry `json:"events"`
}

// EventEntry describes one event kind: where it goes and what shape it has.
type EventEntry struct {
	Kind           string                 `json:"kind"`
	Description    string                 `json:"description"`
	Topic          string                 `json:"topic"`
	SchemaVersion  string                 `json:"schemaVersion"`
	EnvelopeSchema map[string]interface{} `json:"envelopeSchema"`
}
