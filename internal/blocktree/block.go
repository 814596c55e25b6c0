// Package blocktree walks and rewrites visual-editor block trees.
//
// A tree is decoded JSON: map[string]any, []any and scalars. A map carrying both an "@type"
// discriminator and a "component" descriptor is a component Block; every other value is opaque
// and only traversed structurally. Child block trees live either in a block's "children" list or
// inside its options at paths declared per component name in a Registry.
package blocktree

import (
	"maps"
	"slices"
)

// Well-known keys of a component block.
const (
	TypeKey      = "@type"
	ComponentKey = "component"
	ChildrenKey  = "children"
	NameKey      = "name"
	OptionsKey   = "options"
)

// ElementType is the discriminator value of built-in editor components.
const ElementType = "@builder.io/sdk:Element"

// Block is a component block node. It aliases the underlying map, so writes through its
// setters are visible in the tree that contains it.
type Block map[string]any

// AsBlock reports whether v is a component block.
func AsBlock(v any) (Block, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	_, hasType := m[TypeKey]
	_, hasComponent := m[ComponentKey]
	if !hasType || !hasComponent {
		return nil, false
	}
	return Block(m), true
}

// Type returns the block discriminator, or "" when it is not a string.
func (b Block) Type() string {
	s, _ := b[TypeKey].(string)
	return s
}

func (b Block) component() map[string]any {
	c, _ := b[ComponentKey].(map[string]any)
	return c
}

// Name returns the component name, or "" when absent.
func (b Block) Name() string {
	s, _ := b.component()[NameKey].(string)
	return s
}

// IsBuiltin reports whether b is the built-in editor component called name.
func (b Block) IsBuiltin(name string) bool {
	return b.Type() == ElementType && b.Name() == name
}

// Options returns the component options map, or nil when absent or malformed.
func (b Block) Options() map[string]any {
	o, _ := b.component()[OptionsKey].(map[string]any)
	return o
}

// Option returns a single option value.
func (b Block) Option(key string) (any, bool) {
	v, ok := b.Options()[key]
	return v, ok
}

// StringOption returns an option that holds a non-empty string.
func (b Block) StringOption(key string) (string, bool) {
	v, _ := b.Option(key)
	s, ok := v.(string)
	return s, ok && s != ""
}

// MapOption returns an option that holds a map.
func (b Block) MapOption(key string) (map[string]any, bool) {
	v, _ := b.Option(key)
	m, ok := v.(map[string]any)
	return m, ok
}

// SetOption writes an option, creating the component descriptor and options map when missing.
func (b Block) SetOption(key string, value any) {
	component := b.component()
	if component == nil {
		component = map[string]any{}
		b[ComponentKey] = component
	}
	options, ok := component[OptionsKey].(map[string]any)
	if !ok {
		options = map[string]any{}
		component[OptionsKey] = options
	}
	options[key] = value
}

// Clone returns a deep copy of a decoded JSON value.
func Clone(v any) any {
	switch n := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, child := range n {
			out[k] = Clone(child)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, child := range n {
			out[i] = Clone(child)
		}
		return out
	default:
		return v
	}
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
