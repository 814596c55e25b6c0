// Package ingest turns remote content payloads into persisted ContentRecords.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/content-mirror/internal/domain"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/logger"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/symbols"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ModelNames resolves remote model IDs.
type ModelNames interface {
	Name(ctx context.Context, id string) (string, bool, error)
}

// Store persists content records.
type Store interface {
	FindByExternalID(ctx context.Context, externalID string) (*domain.ContentRecord, error)
	Upsert(ctx context.Context, record *domain.ContentRecord) error
}

// SymbolResolver inlines referenced content.
type SymbolResolver interface {
	Resolve(ctx context.Context, tree any, trail *symbols.Trail, ingest symbols.IngestFunc) (any, error)
}

// AssetLocalizer rewrites remote media URLs.
type AssetLocalizer interface {
	Localize(ctx context.Context, tree any) (any, error)
}

// EventSink receives lifecycle notifications.
type EventSink interface {
	Publish(ctx context.Context, event domain.ContentEvent) error
}

// Deps contains the collaborators of an Ingestor. Events, Telemetry and Now are optional.
type Deps struct {
	Models    ModelNames
	Store     Store
	Symbols   SymbolResolver
	Assets    AssetLocalizer
	Events    EventSink
	Telemetry *telemetry.Provider
	Logger    logger.Logger
	Now       func() time.Time
}

// Ingestor upserts content records from remote payloads.
type Ingestor struct {
	models    ModelNames
	store     Store
	symbols   SymbolResolver
	assets    AssetLocalizer
	events    EventSink
	telemetry *telemetry.Provider
	log       logger.Logger
	now       func() time.Time
}

// New creates an Ingestor.
func New(deps Deps) *Ingestor {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Ingestor{
		models:    deps.Models,
		store:     deps.Store,
		symbols:   deps.Symbols,
		assets:    deps.Assets,
		events:    deps.Events,
		telemetry: deps.Telemetry,
		log:       deps.Logger,
		now:       now,
	}
}

// Ingest upserts the record described by payload. Payloads that do not describe content are
// ignored without error; remote and storage failures are returned.
func (i *Ingestor) Ingest(ctx context.Context, payload map[string]any) error {
	return i.ingest(ctx, payload, symbols.NewTrail())
}

func (i *Ingestor) ingest(ctx context.Context, payload map[string]any, trail *symbols.Trail) error {
	start := i.now()
	ctx, span := i.telemetry.StartSpan(ctx, "ingest.content")
	defer span.End()

	record, transition, err := i.persist(ctx, payload, trail)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		i.telemetry.RecordIngest(telemetry.OutcomeFailed, i.now().Sub(start))
		return err
	}
	if record == nil {
		i.telemetry.RecordIngest(telemetry.OutcomeSkipped, 0)
		return nil
	}

	span.SetAttributes(
		attribute.String("content.external_id", record.ExternalID),
		attribute.String("content.model", record.ModelName),
	)

	i.emit(ctx, domain.EventContentUpdated, record)
	if transition != "" {
		i.emit(ctx, transition, record)
	}

	i.telemetry.RecordIngest(telemetry.OutcomeIngested, i.now().Sub(start))
	i.log.Info("Content ingested",
		logger.ExternalID(record.ExternalID),
		logger.Model(record.ModelName),
		logger.String("type", record.Type.String()),
		logger.Bool("published", record.PublishedAt != nil),
	)
	return nil
}

// persist normalizes and saves payload. It returns a nil record when the payload is skipped.
func (i *Ingestor) persist(
	ctx context.Context, payload map[string]any, trail *symbols.Trail,
) (*domain.ContentRecord, domain.EventType, error) {
	draft, reason := Extract(payload)
	if reason != "" {
		i.log.Debug("Skipping payload", logger.String("reason", string(reason)))
		return nil, "", nil
	}

	model, ok, err := i.models.Name(ctx, draft.ModelID)
	if err != nil {
		return nil, "", fmt.Errorf("resolve model %s: %w", draft.ModelID, err)
	}
	if !ok {
		i.log.Debug("Skipping payload with unknown model",
			logger.ExternalID(draft.ExternalID),
			logger.String("model_id", draft.ModelID),
		)
		return nil, "", nil
	}

	trail.Enter(symbols.Ref{Model: model, Entry: draft.ExternalID})

	blocks, err := i.normalize(ctx, draft.Content.Data.Blocks, trail)
	if err != nil {
		return nil, "", fmt.Errorf("normalize %s: %w", draft.ExternalID, err)
	}

	prior, err := i.store.FindByExternalID(ctx, draft.ExternalID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, "", fmt.Errorf("load content %s: %w", draft.ExternalID, err)
	}

	record := &domain.ContentRecord{
		Type:       draft.Type,
		ExternalID: draft.ExternalID,
		ModelName:  model,
		Name:       draft.Name,
		Title:      draft.Title,
		Path:       draft.Path,
		Locale:     draft.Locale,
		Content:    domain.NewContent(blocks, draft.Content.Data.Inputs),
		RawPayload: payload,
		Fields:     draft.Fields,
	}

	now := i.now()
	wasPublished := false
	if prior != nil {
		record.PublishedAt = prior.PublishedAt
		wasPublished = prior.IsPublished(now)
	}

	var transition domain.EventType
	if wasPublished != draft.Published {
		if draft.Published {
			record.Publish(now)
			transition = domain.EventContentPublished
		} else {
			record.Unpublish()
			transition = domain.EventContentUnpublished
		}
	}

	if err := i.store.Upsert(ctx, record); err != nil {
		return nil, "", err
	}
	return record, transition, nil
}

// normalize resolves symbols, then localizes assets.
func (i *Ingestor) normalize(ctx context.Context, blocks []any, trail *symbols.Trail) ([]any, error) {
	var tree any = blocks

	tree, err := i.symbols.Resolve(ctx, tree, trail, i.ingest)
	if err != nil {
		return nil, fmt.Errorf("resolve symbols: %w", err)
	}
	tree, err = i.assets.Localize(ctx, tree)
	if err != nil {
		return nil, fmt.Errorf("localize assets: %w", err)
	}

	out, ok := tree.([]any)
	if !ok {
		return nil, fmt.Errorf("normalized tree has type %T", tree)
	}
	return out, nil
}

func (i *Ingestor) emit(ctx context.Context, eventType domain.EventType, record *domain.ContentRecord) {
	if i.events == nil {
		return
	}
	event := domain.ContentEvent{Type: eventType, Record: record, OccurredAt: i.now()}
	if err := i.events.Publish(ctx, event); err != nil {
		i.log.Warn("Failed to publish content event",
			logger.String("event_type", string(eventType)),
			logger.ExternalID(record.ExternalID),
			logger.Error(err),
		)
	}
}
