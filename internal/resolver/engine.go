// Package resolver answers which published content satisfies a request path and locale.
package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/content-mirror/internal/database"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/domain"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/telemetry"
)

const (
	lookupPage     = "page"
	lookupSections = "sections"
)

// Store queries published records.
type Store interface {
	FindPublished(ctx context.Context, q database.PublishedQuery) ([]domain.ContentRecord, error)
}

// Engine resolves pages and sections with locale fallback.
type Engine struct {
	store     Store
	pageModel string
	defaults  Locale
	telemetry *telemetry.Provider
	now       func() time.Time
}

// NewEngine creates an Engine. pageModel restricts page lookups to one model when non-empty;
// defaults fills in the locale policy for requests that do not name a locale.
func NewEngine(store Store, pageModel string, defaults Locale, tp *telemetry.Provider) *Engine {
	return &Engine{
		store:     store,
		pageModel: pageModel,
		defaults:  defaults,
		telemetry: tp,
		now:       time.Now,
	}
}

// LocaleFor returns the policy for a requested locale, falling back to the default locale when
// requested is empty.
func (e *Engine) LocaleFor(requested string) Locale {
	l := e.defaults
	if requested != "" {
		l.Locale = requested
	}
	return l
}

// Defaults returns the configured locale policy.
func (e *Engine) Defaults() Locale {
	return e.defaults
}

// ResolvePage returns the published page for path. It returns domain.ErrNotFound when no
// record satisfies the locale policy.
func (e *Engine) ResolvePage(ctx context.Context, path string, l Locale) (*domain.ContentRecord, error) {
	candidates, err := e.store.FindPublished(ctx, database.PublishedQuery{
		Type:    domain.ContentTypePage,
		Model:   e.pageModel,
		Path:    domain.NormalizePath(path),
		Locales: l.Allowed(),
		Now:     e.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("resolve page: %w", err)
	}

	rec := Select(candidates, l)
	e.telemetry.RecordLookup(lookupPage, rec != nil)
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

// ResolveSections returns one published section per model for path. Sections with a null path
// match every path.
func (e *Engine) ResolveSections(ctx context.Context, path string, l Locale) ([]domain.ContentRecord, error) {
	candidates, err := e.store.FindPublished(ctx, database.PublishedQuery{
		Type:          domain.ContentTypeSection,
		Path:          domain.NormalizePath(path),
		IncludeGlobal: true,
		Locales:       l.Allowed(),
		Now:           e.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("resolve sections: %w", err)
	}

	sections := SelectPerModel(candidates, l)
	e.telemetry.RecordLookup(lookupSections, len(sections) > 0)
	return sections, nil
}
