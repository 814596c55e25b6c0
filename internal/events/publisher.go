// Package events publishes content lifecycle notifications to a Redis stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/domain"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/logger"
	"github.com/redis/go-redis/v9"
)

// DefaultStream is the stream events are appended to.
const DefaultStream = "content-mirror:events"

// Envelope is the JSON document stored in the stream's "event" field. It carries a summary of
// the record rather than its full tree.
type Envelope struct {
	EventID     uuid.UUID        `json:"event_id"`
	Type        domain.EventType `json:"type"`
	Timestamp   time.Time        `json:"timestamp"`
	ContentID   int64            `json:"content_id"`
	ExternalID  string           `json:"external_id"`
	Model       string           `json:"model"`
	ContentType string           `json:"content_type"`
	Path        *string          `json:"path"`
	Locale      *string          `json:"locale"`
	PublishedAt *time.Time       `json:"published_at"`
}

// NewEnvelope builds the envelope for event.
func NewEnvelope(event domain.ContentEvent) Envelope {
	env := Envelope{
		EventID:   uuid.New(),
		Type:      event.Type,
		Timestamp: event.OccurredAt,
	}
	if env.Timestamp.IsZero() {
		env.Timestamp = time.Now().UTC()
	}
	if r := event.Record; r != nil {
		env.ContentID = r.ID
		env.ExternalID = r.ExternalID
		env.Model = r.ModelName
		env.ContentType = r.Type.String()
		env.Path = r.Path
		env.Locale = r.Locale
		env.PublishedAt = r.PublishedAt
	}
	return env
}

// Publisher appends events to a capped Redis stream. A nil *Publisher drops everything.
type Publisher struct {
	client *redis.Client
	stream string
	maxLen int64
	log    logger.Logger
}

// NewPublisher creates a Publisher. It returns nil when client is nil.
func NewPublisher(client *redis.Client, stream string, maxLen int64, log logger.Logger) *Publisher {
	if client == nil {
		return nil
	}
	if stream == "" {
		stream = DefaultStream
	}
	return &Publisher{client: client, stream: stream, maxLen: maxLen, log: log}
}

// Publish appends event to the stream.
func (p *Publisher) Publish(ctx context.Context, event domain.ContentEvent) error {
	if p == nil {
		return nil
	}

	env := NewEnvelope(event)
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"type":  string(env.Type),
			"event": string(payload),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	streamID, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("publish %s to stream: %w", env.Type, err)
	}

	p.log.Debug("Published content event",
		logger.String("event_type", string(env.Type)),
		logger.ExternalID(env.ExternalID),
		logger.String("stream_id", streamID),
	)
	return nil
}
