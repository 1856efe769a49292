package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oicomi/oicomi/internal/shared/domain"
)

// Envelope is the wire form of a domain event.
type Envelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	RoutingKey    string          `json:"routing_key"`
	OccurredAt    time.Time       `json:"occurred_at"`
	IdentityID    string          `json:"identity_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// Encode wraps a domain event into its envelope. The event value itself is
// marshalled as the payload, so event structs carry their own JSON tags.
func Encode(event domain.DomainEvent, identityID string) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	env := Envelope{
		EventID:       event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		RoutingKey:    event.RoutingKey(),
		OccurredAt:    event.OccurredAt(),
		IdentityID:    identityID,
		Payload:       payload,
	}
	return json.Marshal(env)
}

// PublishEvent encodes the event and publishes it under its routing key.
func PublishEvent(ctx context.Context, pub Publisher, event domain.DomainEvent, identityID string) error {
	body, err := Encode(event, identityID)
	if err != nil {
		return err
	}
	return pub.Publish(ctx, event.RoutingKey(), body)
}
