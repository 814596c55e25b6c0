package domain

import "time"

// EventType names a content lifecycle notification.
type EventType string

const (
	EventContentUpdated     EventType = "content.updated"
	EventContentPublished   EventType = "content.published"
	EventContentUnpublished EventType = "content.unpublished"
)

// ContentEvent is emitted after a record is persisted.
type ContentEvent struct {
	Type       EventType      `json:"type"`
	Record     *ContentRecord `json:"record"`
	OccurredAt time.Time      `json:"occurred_at"`
}
