// Package events publishes moderation-relevant domain events for downstream
// consumers (notification and review tooling). Publishing is best effort: a
// failed publish never fails the write that caused it.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Type string

const (
	TakeCreated   Type = "take.created"
	TakeHidden    Type = "take.hidden"
	TakeUnhidden  Type = "take.unhidden"
	ReportCreated Type = "report.created"
)

type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       Type      `json:"type"`
	TakeID     uuid.UUID `json:"takeId"`
	Category   string    `json:"category,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Automatic  bool      `json:"automatic,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func New(t Type, takeID uuid.UUID) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		TakeID:     takeID,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// NopPublisher logs events at debug level and drops them. Used when no broker
// is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(_ context.Context, evt Event) error {
	log.Debug().Str("type", string(evt.Type)).Str("take_id", evt.TakeID.String()).Msg("event dropped (no broker)")
	return nil
}

func (NopPublisher) Close() error { return nil }
