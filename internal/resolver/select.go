package resolver

import (
	"sort"

	"github.com/jonesrussell/north-cloud/content-mirror/internal/domain"
)

// Locale describes a request locale and its fallback policy.
type Locale struct {
	Locale          string
	Fallback        string
	FallbackEnabled bool
}

// usesFallback reports whether the fallback tier applies.
func (l Locale) usesFallback() bool {
	return l.FallbackEnabled && l.Fallback != "" && l.Fallback != l.Locale
}

// Allowed returns the locales a candidate record may carry besides null.
func (l Locale) Allowed() []string {
	if l.usesFallback() {
		return []string{l.Locale, l.Fallback}
	}
	return []string{l.Locale}
}

// Select picks one record from candidates: an exact locale match, then the fallback locale when
// enabled, then a locale-agnostic record. Within a tier a path-specific record beats a global one
// and the lowest ID wins. It returns nil when no tier matches.
func Select(candidates []domain.ContentRecord, l Locale) *domain.ContentRecord {
	ordered := make([]*domain.ContentRecord, 0, len(candidates))
	for i := range candidates {
		ordered = append(ordered, &candidates[i])
	}
	sort.SliceStable(ordered, func(a, b int) bool {
		pa, pb := ordered[a].Path != nil, ordered[b].Path != nil
		if pa != pb {
			return pa
		}
		return ordered[a].ID < ordered[b].ID
	})

	if rec := firstWithLocale(ordered, &l.Locale); rec != nil {
		return rec
	}
	if l.usesFallback() {
		if rec := firstWithLocale(ordered, &l.Fallback); rec != nil {
			return rec
		}
	}
	return firstWithLocale(ordered, nil)
}

func firstWithLocale(records []*domain.ContentRecord, locale *string) *domain.ContentRecord {
	for _, rec := range records {
		switch {
		case locale == nil && rec.Locale == nil:
			return rec
		case locale != nil && rec.Locale != nil && *rec.Locale == *locale:
			return rec
		}
	}
	return nil
}

// SelectPerModel applies Select independently to each model group and returns the winners
// sorted by model name.
func SelectPerModel(candidates []domain.ContentRecord, l Locale) []domain.ContentRecord {
	groups := make(map[string][]domain.ContentRecord)
	for _, rec := range candidates {
		groups[rec.ModelName] = append(groups[rec.ModelName], rec)
	}

	models := make([]string, 0, len(groups))
	for model := range groups {
		models = append(models, model)
	}
	sort.Strings(models)

	selected := make([]domain.ContentRecord, 0, len(models))
	for _, model := range models {
		if rec := Select(groups[model], l); rec != nil {
			selected = append(selected, *rec)
		}
	}
	return selected
}
