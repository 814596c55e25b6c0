// Package symbols resolves Symbol blocks, which reference other content entries by model and
// entry id, and inlines the referenced trees.
package symbols

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/content-mirror/internal/blocktree"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/domain"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/logger"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/telemetry"
	"github.com/mitchellh/mapstructure"
)

const (
	symbolComponent = "Symbol"
	symbolOption    = "symbol"
	contentKey      = "content"
)

// Ref identifies a referenced content entry.
type Ref struct {
	Model string `mapstructure:"model"`
	Entry string `mapstructure:"entry"`
}

func (r Ref) String() string {
	return r.Model + ":" + r.Entry
}

// RefOf extracts the reference carried by a Symbol block.
func RefOf(b blocktree.Block) (Ref, bool) {
	if b.Name() != symbolComponent {
		return Ref{}, false
	}
	raw, ok := b.MapOption(symbolOption)
	if !ok {
		return Ref{}, false
	}

	var ref Ref
	if err := mapstructure.Decode(raw, &ref); err != nil {
		return Ref{}, false
	}
	if ref.Model == "" || ref.Entry == "" {
		return Ref{}, false
	}
	return ref, true
}

// Trail records the references entered during one top-level ingest, so that cyclic references
// are fetched at most once. It is not safe for concurrent use.
type Trail struct {
	entered map[Ref]struct{}
}

// NewTrail creates an empty Trail.
func NewTrail() *Trail {
	return &Trail{entered: make(map[Ref]struct{})}
}

// Enter marks ref and reports whether it was not already marked.
func (t *Trail) Enter(ref Ref) bool {
	if _, ok := t.entered[ref]; ok {
		return false
	}
	t.entered[ref] = struct{}{}
	return true
}

// Store looks up published local records.
type Store interface {
	FindPublishedByRef(ctx context.Context, model, externalID string, now time.Time) (*domain.ContentRecord, error)
}

// Source fetches a single remote content payload.
type Source interface {
	ContentByID(ctx context.Context, model, id string) (map[string]any, error)
}

// IngestFunc runs a fetched payload through the full ingest pipeline.
type IngestFunc func(ctx context.Context, payload map[string]any, trail *Trail) error

// Resolver fetches missing symbol targets and inlines stored symbol content.
type Resolver struct {
	walker    *blocktree.Walker
	store     Store
	source    Source
	telemetry *telemetry.Provider
	log       logger.Logger
	now       func() time.Time
}

// NewResolver creates a Resolver.
func NewResolver(walker *blocktree.Walker, store Store, source Source, tp *telemetry.Provider, log logger.Logger) *Resolver {
	return &Resolver{
		walker:    walker,
		store:     store,
		source:    source,
		telemetry: tp,
		log:       log,
		now:       time.Now,
	}
}

// Collect returns the distinct references in tree, in first-seen order.
func (r *Resolver) Collect(tree any) []Ref {
	var refs []Ref
	seen := make(map[Ref]struct{})
	_ = r.walker.Traverse(tree, func(b blocktree.Block) error {
		if ref, ok := RefOf(b); ok {
			if _, dup := seen[ref]; !dup {
				seen[ref] = struct{}{}
				refs = append(refs, ref)
			}
		}
		return nil
	})
	return refs
}

// Resolve makes sure every referenced entry has been attempted, then returns a copy of tree
// where each Symbol block carries the stored tree of its target in options.symbol.content, or an
// empty tree when the target could not be resolved. Fetch and nested ingest failures degrade to
// an empty tree; store failures are returned.
func (r *Resolver) Resolve(ctx context.Context, tree any, trail *Trail, ingest IngestFunc) (any, error) {
	for _, ref := range r.Collect(tree) {
		if err := r.ensure(ctx, ref, trail, ingest); err != nil {
			return nil, err
		}
	}

	return r.walker.Transform(tree, func(b blocktree.Block) (blocktree.Block, error) {
		ref, ok := RefOf(b)
		if !ok {
			return b, nil
		}

		content := domain.EmptyContent()
		record, err := r.lookup(ctx, ref)
		if err != nil {
			return nil, err
		}
		if record != nil {
			content = record.Content
		}

		symbol, _ := b.MapOption(symbolOption)
		symbol[contentKey] = content.Value()
		return b, nil
	})
}

func (r *Resolver) ensure(ctx context.Context, ref Ref, trail *Trail, ingest IngestFunc) error {
	if !trail.Enter(ref) {
		r.log.Debug("Symbol already in ingest chain", logger.String("symbol", ref.String()))
		return nil
	}

	record, err := r.lookup(ctx, ref)
	if err != nil {
		return err
	}
	if record != nil {
		return nil
	}

	payload, err := r.source.ContentByID(ctx, ref.Model, ref.Entry)
	if err != nil {
		r.telemetry.RecordSymbolFetch(telemetry.OutcomeFailure)
		r.log.Warn("Failed to fetch symbol content",
			logger.String("symbol", ref.String()),
			logger.Error(err),
		)
		return nil
	}
	r.telemetry.RecordSymbolFetch(telemetry.OutcomeSuccess)

	if ingestErr := ingest(ctx, payload, trail); ingestErr != nil {
		r.log.Warn("Failed to ingest symbol content",
			logger.String("symbol", ref.String()),
			logger.Error(ingestErr),
		)
	}
	return nil
}

func (r *Resolver) lookup(ctx context.Context, ref Ref) (*domain.ContentRecord, error) {
	record, err := r.store.FindPublishedByRef(ctx, ref.Model, ref.Entry, r.now())
	switch {
	case err == nil:
		return record, nil
	case errors.Is(err, domain.ErrNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("look up symbol %s: %w", ref, err)
	}
}
