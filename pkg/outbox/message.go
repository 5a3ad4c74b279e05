// Package outbox stores domain events next to the state change that caused
// them and delivers them to the event bus afterwards.
package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending     = "pending"
	StatusDispatching = "dispatching"
	StatusSent        = "sent"
	StatusFailed      = "failed"
)

// Message is one event waiting for delivery.
type Message struct {
	ID            uuid.UUID  `json:"id" bson:"_id"`
	Topic         string     `json:"topic" bson:"topic"`
	Key           string     `json:"key" bson:"key"`
	Payload       []byte     `json:"payload" bson:"payload"`
	Status        string     `json:"status" bson:"status"`
	Attempts      int        `json:"attempts" bson:"attempts"`
	LastError     string     `json:"lastError,omitempty" bson:"last_error,omitempty"`
	NextAttemptAt time.Time  `json:"nextAttemptAt" bson:"next_attempt_at"`
	LeaseUntil    *time.Time `json:"leaseUntil,omitempty" bson:"lease_until,omitempty"`
	CreatedAt     time.Time  `json:"createdAt" bson:"created_at"`
	SentAt        *time.Time `json:"sentAt,omitempty" bson:"sent_at,omitempty"`
}

// NewMessage marshals event into a pending message keyed by key.
func NewMessage(topic, key string, event any) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal %s event: %w", topic, err)
	}
	now := time.Now().UTC()
	return &Message{
		ID:            uuid.New(),
		Topic:         topic,
		Key:           key,
		Payload:       payload,
		Status:        StatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
	}, nil
}
