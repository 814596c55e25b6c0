package blocktree

import (
	"fmt"
	"slices"
)

// builtinChildPaths lists where built-in editor components keep nested block trees in their
// options.
var builtinChildPaths = map[string][]string{
	"Columns":   {"columns.*.blocks"},
	"Tabs":      {"tabs.*.label", "tabs.*.content"},
	"Accordion": {"items.*.title", "items.*.detail"},
	"Carousel":  {"slides.*.content"},
}

// Registry maps component names to the option paths holding child block trees.
// It is immutable once built and safe for concurrent use.
type Registry struct {
	patterns map[string][]Pattern
}

// NewRegistry builds a registry from the built-in components plus extra, whose patterns are
// appended to any built-in entry of the same name.
func NewRegistry(extra map[string][]string) (*Registry, error) {
	merged := make(map[string][]string, len(builtinChildPaths)+len(extra))
	for name, raw := range builtinChildPaths {
		merged[name] = slices.Clone(raw)
	}
	for name, raw := range extra {
		for _, r := range raw {
			if !slices.Contains(merged[name], r) {
				merged[name] = append(merged[name], r)
			}
		}
	}

	r := &Registry{patterns: make(map[string][]Pattern, len(merged))}
	for name, raw := range merged {
		for _, s := range raw {
			p, err := ParsePattern(s)
			if err != nil {
				return nil, fmt.Errorf("component %s: %w", name, err)
			}
			r.patterns[name] = append(r.patterns[name], p)
		}
	}

	return r, nil
}

// DefaultRegistry returns a registry of the built-in components only.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(nil)
	if err != nil {
		panic(err)
	}
	return r
}

// Patterns returns the child path patterns declared for component. The slice must not be modified.
func (r *Registry) Patterns(component string) []Pattern {
	if r == nil {
		return nil
	}
	return r.patterns[component]
}

// Components returns the registered component names in sorted order.
func (r *Registry) Components() []string {
	names := make([]string, 0, len(r.patterns))
	for name := range r.patterns {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
