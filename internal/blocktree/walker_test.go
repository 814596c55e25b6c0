package blocktree_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/jonesrussell/north-cloud/content-mirror/internal/blocktree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) any {
	t.Helper()

	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

const columnsTree = `[
  {
    "@type": "@builder.io/sdk:Element",
    "id": "cols",
    "component": {
      "name": "Columns",
      "options": {
        "columns": [
          {"blocks": [{"@type": "@builder.io/sdk:Element", "id": "a", "component": {"name": "Text", "options": {}}}]},
          {"width": 50},
          {"blocks": [{"@type": "@builder.io/sdk:Element", "id": "b", "component": {"name": "Text", "options": {}}}]}
        ]
      }
    }
  }
]`

func markVisited(b blocktree.Block) (blocktree.Block, error) {
	b["visited"] = true
	return b, nil
}

func TestTransform_ColumnsWildcardSkipsMissingBranches(t *testing.T) {
	t.Parallel()

	walker := blocktree.NewWalker(blocktree.DefaultRegistry())
	tree := decode(t, columnsTree)

	out, err := walker.Transform(tree, markVisited)
	require.NoError(t, err)

	columns := out.([]any)[0].(map[string]any)["component"].(map[string]any)["options"].(map[string]any)["columns"].([]any)
	require.Len(t, columns, 3)

	first := columns[0].(map[string]any)["blocks"].([]any)[0].(map[string]any)
	third := columns[2].(map[string]any)["blocks"].([]any)[0].(map[string]any)
	assert.Equal(t, true, first["visited"])
	assert.Equal(t, true, third["visited"])
	assert.Equal(t, map[string]any{"width": float64(50)}, columns[1])
}

func TestTransform_DoesNotModifyInput(t *testing.T) {
	t.Parallel()

	walker := blocktree.NewWalker(blocktree.DefaultRegistry())
	tree := decode(t, columnsTree)
	before, err := json.Marshal(tree)
	require.NoError(t, err)

	_, err = walker.Transform(tree, markVisited)
	require.NoError(t, err)

	after, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestTransform_VisitOrder(t *testing.T) {
	t.Parallel()

	tree := decode(t, `{
	  "@type": "@builder.io/sdk:Element", "id": "root",
	  "component": {"name": "Columns", "options": {"columns": [
	    {"blocks": [{"@type": "@builder.io/sdk:Element", "id": "option-child", "component": {"name": "Text"}}]}
	  ]}},
	  "children": [
	    {"@type": "@builder.io/sdk:Element", "id": "structural-child", "component": {"name": "Box"},
	     "children": [{"@type": "@builder.io/sdk:Element", "id": "grandchild", "component": {"name": "Text"}}]}
	  ]
	}`)

	var order []string
	walker := blocktree.NewWalker(blocktree.DefaultRegistry())
	_, err := walker.Transform(tree, func(b blocktree.Block) (blocktree.Block, error) {
		order = append(order, b["id"].(string))
		return b, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "option-child", "structural-child", "grandchild"}, order)

	var traversed []string
	require.NoError(t, walker.Traverse(tree, func(b blocktree.Block) error {
		traversed = append(traversed, b["id"].(string))
		return nil
	}))
	assert.Equal(t, order, traversed)
}

func TestTransform_ChildrenSeeParentMutation(t *testing.T) {
	t.Parallel()

	tree := decode(t, `{"@type": "x", "component": {"name": "Box"}, "children": [
	  {"@type": "x", "component": {"name": "Box"}}
	]}`)

	walker := blocktree.NewWalker(nil)
	out, err := walker.Transform(tree, func(b blocktree.Block) (blocktree.Block, error) {
		if _, isRoot := b["children"]; isRoot {
			b["children"] = append(b["children"].([]any), map[string]any{"@type": "x", "component": map[string]any{"name": "Added"}})
			return b, nil
		}
		b.SetOption("seen", true)
		return b, nil
	})
	require.NoError(t, err)

	children := out.(map[string]any)["children"].([]any)
	require.Len(t, children, 2)
	for _, child := range children {
		block, ok := blocktree.AsBlock(child)
		require.True(t, ok)
		seen, _ := block.Option("seen")
		assert.Equal(t, true, seen)
	}
}

func TestTransform_ToleratesMalformedNodes(t *testing.T) {
	t.Parallel()

	tree := decode(t, `[
	  {"@type": "@builder.io/sdk:Element", "component": "not-a-map"},
	  {"@type": "@builder.io/sdk:Element", "component": {"name": "Columns"}},
	  {"@type": "@builder.io/sdk:Element", "component": {"name": "Columns", "options": {"columns": "oops"}}},
	  {"@type": "@builder.io/sdk:Element", "component": {"name": "Columns", "options": {"columns": [{"blocks": "text"}, 3]}}},
	  {"meta": {"nested": [{"@type": "@builder.io/sdk:Element", "component": {"name": "Image"}}]}},
	  "scalar",
	  12
	]`)

	count := 0
	walker := blocktree.NewWalker(blocktree.DefaultRegistry())
	out, err := walker.Transform(tree, func(b blocktree.Block) (blocktree.Block, error) {
		count++
		return b, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.Len(t, out.([]any), 7)
}

func TestTransform_PropagatesErrors(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	walker := blocktree.NewWalker(blocktree.DefaultRegistry())

	_, err := walker.Transform(decode(t, columnsTree), func(b blocktree.Block) (blocktree.Block, error) {
		if b.Name() == "Text" {
			return nil, errBoom
		}
		return b, nil
	})
	require.ErrorIs(t, err, errBoom)

	err = walker.Traverse(decode(t, columnsTree), func(b blocktree.Block) error {
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)
}

func TestTransform_OverlappingPatternsVisitOnce(t *testing.T) {
	t.Parallel()

	registry, err := blocktree.NewRegistry(map[string][]string{"Columns": {"columns.0.blocks", "col*.*.blocks"}})
	require.NoError(t, err)

	count := 0
	_, err = blocktree.NewWalker(registry).Transform(decode(t, columnsTree), func(b blocktree.Block) (blocktree.Block, error) {
		count++
		return b, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
