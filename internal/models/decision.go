// internal/models/decision.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// DecisionValue is the adjudication outcome recorded for an application.
type DecisionValue string

const (
	DecisionApproved DecisionValue = "APPROVED"
	DecisionRejected DecisionValue = "REJECTED"
)

// Valid reports whether v is an accepted decision value.
func (v DecisionValue) Valid() bool {
	return v == DecisionApproved || v == DecisionRejected
}

// Decision is the one-time adjudication of an application by an officer.
// At most one Decision ever exists per application; it is immutable once created.
type Decision struct {
	ID            uuid.UUID     `json:"id"`
	ApplicationID uuid.UUID     `json:"applicationId"`
	ApproverID    uuid.UUID     `json:"approverId"`
	Decision      DecisionValue `json:"decision"`
	Comment       string        `json:"comment,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}
