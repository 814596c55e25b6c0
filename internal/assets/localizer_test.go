package assets_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/jonesrussell/north-cloud/content-mirror/internal/assets"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/blocktree"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingFetcher maps every URL to "local:<context>:<url>".
type recordingFetcher struct {
	calls []string
	fail  map[string]error
}

func (f *recordingFetcher) Fetch(_ context.Context, assetContext, rawURL string) (string, error) {
	f.calls = append(f.calls, assetContext+" "+rawURL)
	if err := f.fail[rawURL]; err != nil {
		return "", err
	}
	return "local:" + assetContext + ":" + rawURL, nil
}

func decodeTree(t *testing.T, raw string) any {
	t.Helper()

	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func optionsOf(t *testing.T, tree any, index int) map[string]any {
	t.Helper()

	block, ok := blocktree.AsBlock(tree.([]any)[index])
	require.True(t, ok)
	return block.Options()
}

func TestRewriteSrcset(t *testing.T) {
	t.Parallel()

	out, err := assets.RewriteSrcset("http://a/1.png 1x, http://a/2.png 2x", func(u string) (string, error) {
		return strings.Replace(u, "http://a", "/local", 1), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "/local/1.png 1x, /local/2.png 2x", out)

	out, err = assets.RewriteSrcset("http://a/1.png,  http://a/2.png 640w,", func(u string) (string, error) {
		return "x" + u[len(u)-5:], nil
	})
	require.NoError(t, err)
	assert.Equal(t, "x1.png, x2.png 640w", out)
}

func TestLocalize_ImageAndVideo(t *testing.T) {
	t.Parallel()

	tree := decodeTree(t, `[
	  {"@type": "@builder.io/sdk:Element", "component": {"name": "Image", "options": {
	    "image": "https://cdn.example/hero.png",
	    "srcset": "https://cdn.example/hero.png?w=100 100w, https://cdn.example/hero.png?w=200 200w"
	  }}},
	  {"@type": "@builder.io/sdk:Element", "component": {"name": "Video", "options": {
	    "video": "https://cdn.example/clip.mp4",
	    "posterImage": "https://cdn.example/poster.jpg"
	  }}},
	  {"@type": "custom:Element", "component": {"name": "Image", "options": {"image": "https://cdn.example/skip.png"}}},
	  {"@type": "@builder.io/sdk:Element", "component": {"name": "Image", "options": {"image": "/relative.png"}}}
	]`)

	fetcher := &recordingFetcher{}
	localizer := assets.NewLocalizer(blocktree.NewWalker(blocktree.DefaultRegistry()), fetcher, assets.Options{})

	out, err := localizer.Localize(context.Background(), tree)
	require.NoError(t, err)

	image := optionsOf(t, out, 0)
	assert.Equal(t, "local:Image:https://cdn.example/hero.png", image["image"])
	assert.Equal(t,
		"local:Image:https://cdn.example/hero.png?w=100 100w, local:Image:https://cdn.example/hero.png?w=200 200w",
		image["srcset"])

	video := optionsOf(t, out, 1)
	assert.Equal(t, "local:Video:https://cdn.example/clip.mp4", video["video"])
	assert.Equal(t, "local:Video:https://cdn.example/poster.jpg", video["posterImage"])

	assert.Equal(t, "https://cdn.example/skip.png", optionsOf(t, out, 2)["image"])
	assert.Equal(t, "/relative.png", optionsOf(t, out, 3)["image"])
	assert.Len(t, fetcher.calls, 5)

	// The input tree keeps its remote URLs.
	assert.Equal(t, "https://cdn.example/hero.png", optionsOf(t, tree, 0)["image"])
}

func TestLocalize_NestedInColumns(t *testing.T) {
	t.Parallel()

	tree := decodeTree(t, `[{"@type": "@builder.io/sdk:Element", "component": {"name": "Columns", "options": {"columns": [
	  {"blocks": [{"@type": "@builder.io/sdk:Element", "component": {"name": "Image", "options": {"image": "https://cdn.example/a.png"}}}]}
	]}}}]`)

	localizer := assets.NewLocalizer(blocktree.NewWalker(blocktree.DefaultRegistry()), &recordingFetcher{}, assets.Options{})
	out, err := localizer.Localize(context.Background(), tree)
	require.NoError(t, err)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "local:Image:https://cdn.example/a.png")
}

func TestLocalize_FailureAbortsTransform(t *testing.T) {
	t.Parallel()

	tree := decodeTree(t, `[
	  {"@type": "@builder.io/sdk:Element", "component": {"name": "Image", "options": {"image": "https://cdn.example/ok.png"}}},
	  {"@type": "@builder.io/sdk:Element", "component": {"name": "Image", "options": {"image": "https://cdn.example/bad.png"}}}
	]`)

	fetcher := &recordingFetcher{fail: map[string]error{"https://cdn.example/bad.png": errNotServed}}
	localizer := assets.NewLocalizer(blocktree.NewWalker(nil), fetcher, assets.Options{})

	out, err := localizer.Localize(context.Background(), tree)
	require.ErrorIs(t, err, errNotServed)
	assert.Nil(t, out)
}

func TestLocalize_TextImagesOptIn(t *testing.T) {
	t.Parallel()

	raw := `[{"@type": "@builder.io/sdk:Element", "component": {"name": "Text", "options": {
	  "text": "<p>Intro <img src=\"https://cdn.example/inline.png\" alt=\"x\"></p>"
	}}}]`

	disabled := assets.NewLocalizer(blocktree.NewWalker(nil), &recordingFetcher{}, assets.Options{})
	out, err := disabled.Localize(context.Background(), decodeTree(t, raw))
	require.NoError(t, err)
	assert.Contains(t, optionsOf(t, out, 0)["text"], `src="https://cdn.example/inline.png"`)

	enabled := assets.NewLocalizer(blocktree.NewWalker(nil), &recordingFetcher{}, assets.Options{LocalizeTextImages: true})
	out, err = enabled.Localize(context.Background(), decodeTree(t, raw))
	require.NoError(t, err)
	text := optionsOf(t, out, 0)["text"].(string)
	assert.Contains(t, text, `src="local:Image:https://cdn.example/inline.png"`)
	assert.Contains(t, text, "<p>Intro ")
}

func TestLocalize_TextImagesKeepLeadingStyle(t *testing.T) {
	t.Parallel()

	raw := `[{"@type": "@builder.io/sdk:Element", "component": {"name": "Text", "options": {
	  "text": "<style>.hero{color:red}</style><link rel=\"stylesheet\" href=\"/x.css\"><p class=\"hero\"><img src=\"https://cdn.example/a.png\"></p>"
	}}}]`

	localizer := assets.NewLocalizer(blocktree.NewWalker(nil), &recordingFetcher{}, assets.Options{LocalizeTextImages: true})
	out, err := localizer.Localize(context.Background(), decodeTree(t, raw))
	require.NoError(t, err)

	text := optionsOf(t, out, 0)["text"].(string)
	assert.True(t, strings.HasPrefix(text, "<style>.hero{color:red}</style>"), text)
	assert.Contains(t, text, `<link rel="stylesheet" href="/x.css"/>`)
	assert.Contains(t, text, `<p class="hero"><img src="local:Image:https://cdn.example/a.png"/></p>`)
	assert.NotContains(t, text, "<body>")
	assert.NotContains(t, text, "<head>")
}

func TestLocalize_WithCacheEndToEnd(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	downloader := newFakeDownloader(map[string][]byte{"https://cdn.example/a.png": pngBytes})
	cache := assets.NewCache(store, downloader, "builder", nil, logger.NewNop())
	localizer := assets.NewLocalizer(blocktree.NewWalker(nil), cache, assets.Options{})

	tree := decodeTree(t, `[
	  {"@type": "@builder.io/sdk:Element", "component": {"name": "Image", "options": {"image": "https://cdn.example/a.png"}}},
	  {"@type": "@builder.io/sdk:Element", "component": {"name": "Image", "options": {"image": "https://cdn.example/a.png"}}}
	]`)

	out, err := localizer.Localize(context.Background(), tree)
	require.NoError(t, err)
	assert.Equal(t, optionsOf(t, out, 0)["image"], optionsOf(t, out, 1)["image"])
	assert.Equal(t, 1, downloader.calls["https://cdn.example/a.png"])
}
