// internal/models/event.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// EventKind tags what happened to the record carried in an envelope.
type EventKind string

const (
	EventCreate EventKind = "CREATE"
	EventUpdate EventKind = "UPDATE"
)

// EventSchemaVersion is the envelope schema version tag stamped on every publish.
const EventSchemaVersion = "1.0"

// EventEnvelope is the wire format sent to downstream consumers.
// TraceID is fresh per publish; Payload is the Application or Decision record.
type EventEnvelope struct {
	Event     EventKind   `json:"event"`
	TraceID   string      `json:"traceId"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEventEnvelope builds an envelope with a fresh trace id and emission timestamp.
func NewEventEnvelope(kind EventKind, payload interface{}) EventEnvelope {
	return EventEnvelope{
		Event:     kind,
		TraceID:   uuid.New().String(),
		Version:   EventSchemaVersion,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
