package assets

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/blocktree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Options toggles optional localization.
type Options struct {
	// LocalizeTextImages rewrites <img src> inside built-in Text blocks.
	LocalizeTextImages bool
}

// Fetcher returns the local URL for a remote asset.
type Fetcher interface {
	Fetch(ctx context.Context, assetContext, rawURL string) (string, error)
}

// Localizer rewrites the media URLs of built-in Image, Video and (optionally) Text blocks.
type Localizer struct {
	walker *blocktree.Walker
	cache  Fetcher
	opts   Options
}

// NewLocalizer creates a Localizer.
func NewLocalizer(walker *blocktree.Walker, cache Fetcher, opts Options) *Localizer {
	return &Localizer{walker: walker, cache: cache, opts: opts}
}

// Localize returns a copy of tree with every asset URL replaced by its local URL.
// The first download or storage failure aborts the whole call.
func (l *Localizer) Localize(ctx context.Context, tree any) (any, error) {
	return l.walker.Transform(tree, func(b blocktree.Block) (blocktree.Block, error) {
		if err := l.localizeBlock(ctx, b); err != nil {
			return nil, err
		}
		return b, nil
	})
}

func (l *Localizer) localizeBlock(ctx context.Context, b blocktree.Block) error {
	switch {
	case b.IsBuiltin("Image"):
		if err := l.rewriteOption(ctx, b, "image", ContextImage); err != nil {
			return err
		}
		if srcset, ok := b.StringOption("srcset"); ok {
			rewritten, err := RewriteSrcset(srcset, func(u string) (string, error) {
				return l.localize(ctx, ContextImage, u)
			})
			if err != nil {
				return err
			}
			b.SetOption("srcset", rewritten)
		}

	case b.IsBuiltin("Video"):
		if err := l.rewriteOption(ctx, b, "video", ContextVideo); err != nil {
			return err
		}
		return l.rewriteOption(ctx, b, "posterImage", ContextVideo)

	case b.IsBuiltin("Text") && l.opts.LocalizeTextImages:
		text, ok := b.StringOption("text")
		if !ok {
			return nil
		}
		rewritten, changed, err := l.rewriteHTMLImages(ctx, text)
		if err != nil {
			return err
		}
		if changed {
			b.SetOption("text", rewritten)
		}
	}

	return nil
}

func (l *Localizer) rewriteOption(ctx context.Context, b blocktree.Block, key, assetContext string) error {
	raw, ok := b.StringOption(key)
	if !ok {
		return nil
	}
	local, err := l.localize(ctx, assetContext, raw)
	if err != nil {
		return err
	}
	b.SetOption(key, local)
	return nil
}

// localize leaves URLs that are not absolute http(s) URLs untouched.
func (l *Localizer) localize(ctx context.Context, assetContext, raw string) (string, error) {
	if !isRemote(raw) {
		return raw, nil
	}
	local, err := l.cache.Fetch(ctx, assetContext, raw)
	if err != nil {
		return "", fmt.Errorf("localize %s: %w", raw, err)
	}
	return local, nil
}

func isRemote(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// RewriteSrcset rewrites each URL of a "url descriptor, url descriptor" list, keeping every
// descriptor and joining entries with ", ".
func RewriteSrcset(srcset string, rewrite func(string) (string, error)) (string, error) {
	entries := strings.Split(srcset, ",")
	out := make([]string, 0, len(entries))

	for _, entry := range entries {
		fields := strings.Fields(entry)
		if len(fields) == 0 {
			continue
		}
		local, err := rewrite(fields[0])
		if err != nil {
			return "", err
		}
		fields[0] = local
		out = append(out, strings.Join(fields, " "))
	}

	return strings.Join(out, ", "), nil
}

func (l *Localizer) rewriteHTMLImages(ctx context.Context, text string) (string, bool, error) {
	if !strings.Contains(text, "<img") {
		return text, false, nil
	}

	doc, err := parseFragment(text)
	if err != nil {
		return "", false, fmt.Errorf("parse text html: %w", err)
	}

	changed := false
	var rewriteErr error
	doc.Find("img[src]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, _ := img.Attr("src")
		local, localizeErr := l.localize(ctx, ContextImage, src)
		if localizeErr != nil {
			rewriteErr = localizeErr
			return false
		}
		if local != src {
			img.SetAttr("src", local)
			changed = true
		}
		return true
	})
	if rewriteErr != nil {
		return "", false, rewriteErr
	}
	if !changed {
		return text, false, nil
	}

	out, err := doc.Html()
	if err != nil {
		return "", false, fmt.Errorf("render text html: %w", err)
	}
	return out, true, nil
}

// parseFragment parses text in body context so leading <style>, <link> and <meta> elements stay
// in place instead of moving to a document head.
func parseFragment(text string) (*goquery.Document, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(text), body)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return goquery.NewDocumentFromNode(body), nil
}
