// Package outbox records side effects inside the writing transaction and relays
// them to Kafka afterwards, so a committed write always has a durable trace of
// what it owes downstream.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry is one pending message.
type Entry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       json.RawMessage
	CreatedAt     time.Time
	Attempts      int
	LastError     string
	ProcessedAt   *time.Time
}

// NewEntry marshals payload into a fresh entry.
func NewEntry(aggregateType, aggregateID, eventType string, payload any, now time.Time) (*Entry, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal outbox payload: %w", err)
	}
	return &Entry{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       raw,
		CreatedAt:     now,
	}, nil
}

// Key partitions messages so one aggregate's history stays ordered.
func (e *Entry) Key() string {
	return e.AggregateType + ":" + e.AggregateID
}

// Store persists entries. Append joins the transaction in ctx. ClaimBatch must
// run inside a transaction; claimed rows stay locked until it ends.
type Store interface {
	Append(ctx context.Context, e *Entry) error
	ClaimBatch(ctx context.Context, limit, maxAttempts int) ([]*Entry, error)
	MarkProcessed(ctx context.Context, entryID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, entryID uuid.UUID, reason string) error
}

// Publisher delivers one entry downstream.
type Publisher interface {
	Publish(ctx context.Context, e *Entry) error
}
