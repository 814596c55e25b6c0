// Package mirror runs bulk ingestion: fetching every entry of a model from the remote listing
// and re-ingesting stored payloads.
package mirror

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonesrussell/north-cloud/content-mirror/internal/domain"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/logger"
)

// DefaultPageSize is the listing page size used when none is configured.
const DefaultPageSize = 100

// ErrNoPayload is returned when a stored record has no raw payload to replay.
var ErrNoPayload = errors.New("no stored payload")

// Source pages through the remote listing of one model.
type Source interface {
	EachContent(ctx context.Context, model string, pageSize int, fn func(map[string]any) error) error
}

// Catalog lists every known model.
type Catalog interface {
	All(ctx context.Context) ([]domain.ModelRef, error)
}

// Records reads stored content records.
type Records interface {
	ListIDs(ctx context.Context) ([]int64, error)
	FindByID(ctx context.Context, id int64) (*domain.ContentRecord, error)
}

// Ingester ingests one content payload.
type Ingester interface {
	Ingest(ctx context.Context, payload map[string]any) error
}

// Deps contains the collaborators of a Syncer.
type Deps struct {
	Source   Source
	Catalog  Catalog
	Records  Records
	Ingester Ingester
	PageSize int
	Logger   logger.Logger
}

// Stats counts the outcome of a bulk run.
type Stats struct {
	Ingested int
	Failed   int
}

func (s *Stats) add(other Stats) {
	s.Ingested += other.Ingested
	s.Failed += other.Failed
}

// Syncer mirrors remote content in bulk. A failing entry is logged and counted; the run continues.
type Syncer struct {
	source   Source
	catalog  Catalog
	records  Records
	ingester Ingester
	pageSize int
	log      logger.Logger
}

// New creates a Syncer.
func New(deps Deps) *Syncer {
	pageSize := deps.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Syncer{
		source:   deps.Source,
		catalog:  deps.Catalog,
		records:  deps.Records,
		ingester: deps.Ingester,
		pageSize: pageSize,
		log:      log,
	}
}

// FetchModel ingests every listed entry of model.
func (s *Syncer) FetchModel(ctx context.Context, model string) (Stats, error) {
	var stats Stats
	log := s.log.With(logger.Model(model))

	err := s.source.EachContent(ctx, model, s.pageSize, func(payload map[string]any) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.ingester.Ingest(ctx, payload); err != nil {
			stats.Failed++
			log.Warn("Failed to ingest entry", logger.Any("id", payload["id"]), logger.Error(err))
			return nil
		}
		stats.Ingested++
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("fetch model %s: %w", model, err)
	}

	log.Info("Model fetched", logger.Int("ingested", stats.Ingested), logger.Int("failed", stats.Failed))
	return stats, nil
}

// FetchAll ingests every listed entry of every model in the catalog.
func (s *Syncer) FetchAll(ctx context.Context) (Stats, error) {
	models, err := s.catalog.All(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list models: %w", err)
	}

	var total Stats
	for _, model := range models {
		stats, fetchErr := s.FetchModel(ctx, model.Name)
		total.add(stats)
		if fetchErr != nil {
			if ctx.Err() != nil {
				return total, fetchErr
			}
			s.log.Error("Failed to fetch model", logger.Model(model.Name), logger.Error(fetchErr))
		}
	}
	return total, nil
}

// Refresh re-ingests the stored raw payload of one record.
func (s *Syncer) Refresh(ctx context.Context, id int64) error {
	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load content %d: %w", id, err)
	}
	if len(record.RawPayload) == 0 {
		return fmt.Errorf("content %d: %w", id, ErrNoPayload)
	}
	if err = s.ingester.Ingest(ctx, record.RawPayload); err != nil {
		return fmt.Errorf("refresh content %d: %w", id, err)
	}
	return nil
}

// RefreshAll re-ingests every stored record.
func (s *Syncer) RefreshAll(ctx context.Context) (Stats, error) {
	ids, err := s.records.ListIDs(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list contents: %w", err)
	}

	var stats Stats
	for _, id := range ids {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stats, ctxErr
		}
		if refreshErr := s.Refresh(ctx, id); refreshErr != nil {
			stats.Failed++
			s.log.Warn("Failed to refresh content", logger.Int64("content_id", id), logger.Error(refreshErr))
			continue
		}
		stats.Ingested++
	}
	return stats, nil
}
