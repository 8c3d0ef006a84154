package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/groblegark/hrmart/internal/model"
)

// Event topic constants
const (
	TopicRunStarted   = "hrmart.run.started"
	TopicRunCompleted = "hrmart.run.completed"
	TopicRunFailed    = "hrmart.run.failed"
	TopicQualityAlert = "hrmart.quality.alert"
)

// Envelope wraps every published event with a unique id and emit time.
type Envelope struct {
	EventID   string    `json:"event_id"`
	Topic     string    `json:"topic"`
	EmittedAt time.Time `json:"emitted_at"`
	Payload   any       `json:"payload"`
}

// NewEnvelope assigns a fresh event id and wraps the payload.
func NewEnvelope(topic string, payload any) Envelope {
	return Envelope{
		EventID:   uuid.NewString(),
		Topic:     topic,
		EmittedAt: time.Now().UTC(),
		Payload:   payload,
	}
}

// Event types

type RunStarted struct {
	RunID   string   `json:"run_id"`
	BatchID string   `json:"batch_id"`
	Feeds   []string `json:"feeds"`
}

type RunCompleted struct {
	Report *model.RunReport `json:"report"`
}

type RunFailed struct {
	RunID  string `json:"run_id"`
	Reason string `json:"reason"`
}

// QualityAlert is emitted for each degraded run so downstream consumers can
// page without polling run reports.
type QualityAlert struct {
	RunID              string         `json:"run_id"`
	MalformedRecords   int            `json:"malformed_records"`
	AmbiguousTiebreaks int            `json:"ambiguous_tiebreaks"`
	InvalidRescinds    int            `json:"invalid_rescinds"`
	UnresolvedFKs      map[string]int `json:"unresolved_fks,omitempty"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
