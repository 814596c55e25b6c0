// Package assets downloads remote media referenced by block trees into a blob store and
// rewrites the references to the stored copies.
package assets

import (
	"context"
	"crypto/sha1" //nolint:gosec // content addressing, not security
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/blobstore"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/logger"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/telemetry"
)

// Asset contexts keep different asset classes apart even when they share a URL.
const (
	ContextImage = "Image"
	ContextVideo = "Video"
)

// knownExtensions are the suffixes extensionFor can produce, probed in order when looking
// for an existing object.
var knownExtensions = []string{"", ".svg", ".png", ".jpeg", ".mp4"}

// Downloader fetches remote bytes.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Cache stores each distinct (context, url) pair once, under a content-addressed key.
type Cache struct {
	store      blobstore.Store
	downloader Downloader
	folder     string
	telemetry  *telemetry.Provider
	log        logger.Logger
}

// NewCache creates a Cache writing under folder, which may be empty.
func NewCache(store blobstore.Store, downloader Downloader, folder string, tp *telemetry.Provider, log logger.Logger) *Cache {
	return &Cache{
		store:      store,
		downloader: downloader,
		folder:     strings.Trim(folder, "/"),
		telemetry:  tp,
		log:        log,
	}
}

// Key returns the hex SHA-1 of "context:url".
func Key(assetContext, rawURL string) string {
	sum := sha1.Sum([]byte(assetContext + ":" + rawURL)) //nolint:gosec // content addressing
	return hex.EncodeToString(sum[:])
}

func (c *Cache) objectPath(name string) string {
	if c.folder == "" {
		return name
	}
	return path.Join(c.folder, name)
}

// Fetch returns the public URL of the stored copy of rawURL, downloading it first when no
// object exists for the key. Existing objects are never overwritten.
func (c *Cache) Fetch(ctx context.Context, assetContext, rawURL string) (string, error) {
	key := Key(assetContext, rawURL)

	existing, err := c.find(ctx, key)
	if err != nil {
		return "", err
	}
	if existing != "" {
		c.telemetry.RecordAsset(assetContext, telemetry.OutcomeCached)
		return c.store.URL(existing), nil
	}

	data, err := c.downloader.Download(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("download %s asset: %w", assetContext, err)
	}

	detected := mimetype.Detect(data)
	target := c.objectPath(key + extensionFor(detected.String()))
	if err = c.store.Put(ctx, target, data, detected.String()); err != nil {
		return "", fmt.Errorf("store %s asset: %w", assetContext, err)
	}

	c.telemetry.RecordAsset(assetContext, telemetry.OutcomeDownloaded)
	c.log.Debug("Asset localized",
		logger.URL(rawURL),
		logger.String("context", assetContext),
		logger.String("path", target),
		logger.String("mime", detected.String()),
	)

	return c.store.URL(target), nil
}

func (c *Cache) find(ctx context.Context, key string) (string, error) {
	for _, ext := range knownExtensions {
		candidate := c.objectPath(key + ext)
		exists, err := c.store.Exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check asset %s: %w", candidate, err)
		}
		if exists {
			return candidate, nil
		}
	}
	return "", nil
}

func extensionFor(mime string) string {
	mime = strings.ToLower(mime)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	switch {
	case strings.HasPrefix(mime, "image/svg"):
		return ".svg"
	case mime == "image/png":
		return ".png"
	case mime == "image/jpeg":
		return ".jpeg"
	case mime == "video/mp4":
		return ".mp4"
	default:
		return ""
	}
}
