package blocktree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Wildcard matches any single map key or list index.
const Wildcard = "*"

// Path is a concrete sequence of map keys and decimal list indices.
type Path []string

func (p Path) String() string {
	return strings.Join(p, ".")
}

// Pattern is a dot-separated path whose segments may be glob expressions ("*", "col*").
type Pattern struct {
	raw      string
	segments []string
}

// ParsePattern parses a dot-separated pattern such as "columns.*.blocks".
func ParsePattern(raw string) (Pattern, error) {
	if strings.TrimSpace(raw) == "" {
		return Pattern{}, fmt.Errorf("parse pattern: empty pattern")
	}

	segments := strings.Split(raw, ".")
	for _, seg := range segments {
		if seg == "" {
			return Pattern{}, fmt.Errorf("parse pattern %q: empty segment", raw)
		}
		if !doublestar.ValidatePattern(seg) {
			return Pattern{}, fmt.Errorf("parse pattern %q: invalid segment %q", raw, seg)
		}
	}

	return Pattern{raw: raw, segments: segments}, nil
}

func (p Pattern) String() string {
	return p.raw
}

// Resolve returns every concrete path in root matched by p, in key order.
// Branches that are missing or hold the wrong type are skipped.
func (p Pattern) Resolve(root any) []Path {
	var out []Path
	p.resolve(root, 0, nil, &out)
	return out
}

func (p Pattern) resolve(node any, depth int, prefix Path, out *[]Path) {
	if depth == len(p.segments) {
		*out = append(*out, append(Path(nil), prefix...))
		return
	}

	seg := p.segments[depth]

	switch n := node.(type) {
	case map[string]any:
		if !hasMeta(seg) {
			if child, ok := n[seg]; ok {
				p.resolve(child, depth+1, append(prefix, seg), out)
			}
			return
		}
		for _, key := range sortedKeys(n) {
			if matchSegment(seg, key) {
				p.resolve(n[key], depth+1, append(prefix, key), out)
			}
		}
	case []any:
		for i, child := range n {
			key := strconv.Itoa(i)
			if matchSegment(seg, key) {
				p.resolve(child, depth+1, append(prefix, key), out)
			}
		}
	default:
	}
}

func hasMeta(seg string) bool {
	return strings.ContainsAny(seg, `*?[{\`)
}

func matchSegment(seg, key string) bool {
	if seg == Wildcard {
		return true
	}
	ok, err := doublestar.Match(seg, key)
	return err == nil && ok
}

// Get returns the value at path.
func Get(root any, path Path) (any, bool) {
	node := root
	for _, key := range path {
		switch n := node.(type) {
		case map[string]any:
			child, ok := n[key]
			if !ok {
				return nil, false
			}
			node = child
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(n) {
				return nil, false
			}
			node = n[i]
		default:
			return nil, false
		}
	}
	return node, true
}

// Set replaces the existing value at path in place. It reports false when the path does not
// exist; it never creates intermediate containers.
func Set(root any, path Path, value any) bool {
	if len(path) == 0 {
		return false
	}

	parent, ok := Get(root, path[:len(path)-1])
	if !ok {
		return false
	}

	last := path[len(path)-1]
	switch n := parent.(type) {
	case map[string]any:
		if _, exists := n[last]; !exists {
			return false
		}
		n[last] = value
		return true
	case []any:
		i, err := strconv.Atoi(last)
		if err != nil || i < 0 || i >= len(n) {
			return false
		}
		n[i] = value
		return true
	default:
		return false
	}
}
