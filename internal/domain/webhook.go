package domain

import "time"

// WebhookRecord is a stored change notification and its processing outcome.
type WebhookRecord struct {
	ID          int64               `json:"id"`
	URL         string              `json:"url"`
	Headers     map[string][]string `json:"headers"`
	Payload     map[string]any      `json:"payload"`
	Exception   *string             `json:"exception"`
	ProcessedAt *time.Time          `json:"processed_at"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// IsProcessed reports whether processing has completed, successfully or not.
func (w *WebhookRecord) IsProcessed() bool {
	return w.ProcessedAt != nil
}

// Failed reports whether processing completed with an exception.
func (w *WebhookRecord) Failed() bool {
	return w.IsProcessed() && w.Exception != nil && *w.Exception != ""
}
