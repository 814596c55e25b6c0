package blocktree

// TransformFunc rewrites a component block. It may mutate b and return it, or return a
// replacement block.
type TransformFunc func(b Block) (Block, error)

// VisitFunc observes a component block.
type VisitFunc func(b Block) error

// Walker visits component blocks reachable through registered option paths and "children".
type Walker struct {
	registry *Registry
}

// NewWalker creates a Walker. A nil registry only follows "children".
func NewWalker(registry *Registry) *Walker {
	return &Walker{registry: registry}
}

// Transform applies fn to every component block in tree and returns the rebuilt tree.
// The input tree is never modified. For each block, fn runs first, then the block's registered
// option sub-trees are transformed and written back, then its children.
func (w *Walker) Transform(tree any, fn TransformFunc) (any, error) {
	return w.transform(Clone(tree), fn)
}

func (w *Walker) transform(node any, fn TransformFunc) (any, error) {
	switch n := node.(type) {
	case []any:
		for i, child := range n {
			out, err := w.transform(child, fn)
			if err != nil {
				return nil, err
			}
			n[i] = out
		}
		return n, nil

	case map[string]any:
		if block, ok := AsBlock(n); ok {
			return w.transformBlock(block, fn)
		}
		for _, key := range sortedKeys(n) {
			out, err := w.transform(n[key], fn)
			if err != nil {
				return nil, err
			}
			n[key] = out
		}
		return n, nil

	default:
		return node, nil
	}
}

func (w *Walker) transformBlock(b Block, fn TransformFunc) (any, error) {
	visited, err := fn(b)
	if err != nil {
		return nil, err
	}
	if visited == nil {
		visited = b
	}

	if options := visited.Options(); options != nil {
		for _, path := range w.childPaths(visited.Name(), options) {
			sub, _ := Get(options, path)
			out, subErr := w.transform(sub, fn)
			if subErr != nil {
				return nil, subErr
			}
			Set(options, path, out)
		}
	}

	if children, ok := visited[ChildrenKey]; ok {
		out, childErr := w.transform(children, fn)
		if childErr != nil {
			return nil, childErr
		}
		visited[ChildrenKey] = out
	}

	return map[string]any(visited), nil
}

// Traverse calls fn for every component block in tree, in the same order as Transform,
// without copying or rebuilding anything.
func (w *Walker) Traverse(tree any, fn VisitFunc) error {
	switch n := tree.(type) {
	case []any:
		for _, child := range n {
			if err := w.Traverse(child, fn); err != nil {
				return err
			}
		}
		return nil

	case map[string]any:
		block, ok := AsBlock(n)
		if !ok {
			for _, key := range sortedKeys(n) {
				if err := w.Traverse(n[key], fn); err != nil {
					return err
				}
			}
			return nil
		}
		if err := fn(block); err != nil {
			return err
		}
		if options := block.Options(); options != nil {
			for _, path := range w.childPaths(block.Name(), options) {
				sub, _ := Get(options, path)
				if err := w.Traverse(sub, fn); err != nil {
					return err
				}
			}
		}
		if children, has := block[ChildrenKey]; has {
			return w.Traverse(children, fn)
		}
		return nil

	default:
		return nil
	}
}

// childPaths resolves the registered patterns for component against options, dropping
// duplicates produced by overlapping patterns.
func (w *Walker) childPaths(component string, options map[string]any) []Path {
	patterns := w.registry.Patterns(component)
	if len(patterns) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var paths []Path
	for _, pattern := range patterns {
		for _, path := range pattern.Resolve(options) {
			key := path.String()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			paths = append(paths, path)
		}
	}
	return paths
}
