// Package webhook records inbound change notifications and processes them in the background.
package webhook

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/jonesrussell/north-cloud/content-mirror/internal/domain"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/logger"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

const (
	payloadKey   = "newValue"
	bearerPrefix = "bearer "
)

// ErrUnauthorized is returned by Authorize for a missing or wrong token.
var ErrUnauthorized = errors.New("the authorization token is invalid")

// Store persists webhook records.
type Store interface {
	Create(ctx context.Context, record *domain.WebhookRecord) error
	FindByID(ctx context.Context, id int64) (*domain.WebhookRecord, error)
	MarkProcessed(ctx context.Context, id int64, processedAt time.Time, exception *string) error
}

// Enqueuer schedules background processing of a webhook record.
type Enqueuer interface {
	Enqueue(ctx context.Context, webhookID int64) error
}

// Ingester ingests one content payload.
type Ingester interface {
	Ingest(ctx context.Context, payload map[string]any) error
}

// Deps contains the collaborators of a Lifecycle.
type Deps struct {
	Store     Store
	Queue     Enqueuer
	Ingester  Ingester
	Telemetry *telemetry.Provider
	Logger    logger.Logger
	Now       func() time.Time
}

// Lifecycle moves webhook records from received to processed.
type Lifecycle struct {
	store     Store
	queue     Enqueuer
	ingester  Ingester
	telemetry *telemetry.Provider
	log       logger.Logger
	now       func() time.Time
}

// New creates a Lifecycle.
func New(deps Deps) *Lifecycle {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Lifecycle{
		store:     deps.Store,
		queue:     deps.Queue,
		ingester:  deps.Ingester,
		telemetry: deps.Telemetry,
		log:       deps.Logger,
		now:       now,
	}
}

// Authorize checks header against the configured token in constant time. The header may carry
// the raw token or "Bearer <token>". An empty token disables the check.
func Authorize(token, header string) error {
	if token == "" {
		return nil
	}
	header = strings.TrimSpace(header)
	if len(header) > len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		header = strings.TrimSpace(header[len(bearerPrefix):])
	}
	if header == "" || subtle.ConstantTimeCompare([]byte(header), []byte(token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// StripSecrets returns a copy of headers without authorization headers.
func StripSecrets(headers map[string][]string) map[string][]string {
	out := make(map[string][]string, len(headers))
	for name, values := range headers {
		if strings.Contains(strings.ToLower(name), "authorization") {
			continue
		}
		out[name] = append([]string(nil), values...)
	}
	return out
}

// Receive stores the notification and enqueues it. The returned error only reports failures to
// store or enqueue; processing happens later.
func (l *Lifecycle) Receive(
	ctx context.Context, url string, headers map[string][]string, payload map[string]any,
) (*domain.WebhookRecord, error) {
	record := &domain.WebhookRecord{
		URL:     url,
		Headers: StripSecrets(headers),
		Payload: payload,
	}
	if err := l.store.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("store webhook: %w", err)
	}
	if err := l.queue.Enqueue(ctx, record.ID); err != nil {
		return record, err
	}

	l.telemetry.RecordWebhookReceived()
	l.log.Info("Webhook received", logger.WebhookID(record.ID))
	return record, nil
}

// Process ingests the stored notification with id and stamps it processed. Ingest failures
// and panics are recorded on the record, not returned. Records that were already processed
// are left alone, and so are jobs whose record no longer exists.
func (l *Lifecycle) Process(ctx context.Context, id int64) error {
	ctx, span := l.telemetry.StartSpan(ctx, "webhook.process", attribute.Int64("webhook.id", id))
	defer span.End()

	record, err := l.store.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		l.log.Warn("Dropping job for missing webhook", logger.WebhookID(id))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load webhook %d: %w", id, err)
	}
	if record.IsProcessed() {
		l.log.Debug("Webhook already processed", logger.WebhookID(id))
		return nil
	}

	exception := l.run(ctx, record.Payload)
	if err := l.store.MarkProcessed(ctx, id, l.now(), exception); err != nil {
		return fmt.Errorf("mark webhook %d processed: %w", id, err)
	}

	if exception != nil {
		l.telemetry.RecordWebhookProcessed(telemetry.OutcomeFailure)
		l.log.Warn("Webhook processing failed",
			logger.WebhookID(id),
			logger.String("exception", *exception),
		)
		return nil
	}

	l.telemetry.RecordWebhookProcessed(telemetry.OutcomeSuccess)
	l.log.Info("Webhook processed", logger.WebhookID(id))
	return nil
}

// run ingests the payload and turns any error or panic into an exception description.
func (l *Lifecycle) run(ctx context.Context, payload map[string]any) (exception *string) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("panic: %v\n%s", r, debug.Stack())
			exception = &msg
		}
	}()

	content, ok := payload[payloadKey].(map[string]any)
	if !ok {
		// Deletions carry a null newValue.
		l.log.Debug("Webhook has no new value")
		return nil
	}

	if err := l.ingester.Ingest(ctx, content); err != nil {
		msg := err.Error()
		return &msg
	}
	return nil
}
