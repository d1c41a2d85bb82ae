// internal/events/publisher.go

// Package events delivers lifecycle notifications to downstream consumers.
// Publishing is best effort: a failed delivery is counted and logged but
// never fails the request that triggered it.
package events

import (
	"context"

	"mortgage-api/internal/models"
)

// Publisher hands an event to the transport. Implementations must not block
// the caller on delivery and must not return transport errors.
type Publisher interface {
	Publish(ctx context.Context, kind models.EventKind, key string, payload interface{})
}

// NopPublisher discards all events. Used when the topic is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.EventKind, string, interface{}) {}
