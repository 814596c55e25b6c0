// Package blobstore stores localized asset bytes and resolves their public URLs.
package blobstore

import (
	"context"
	"strings"
)

// Store is a flat object store addressed by slash-separated paths.
type Store interface {
	Exists(ctx context.Context, path string) (bool, error)
	Put(ctx context.Context, path string, data []byte, contentType string) error
	URL(path string) string
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
