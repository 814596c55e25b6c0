package bootstrap

import (
	"context"
	"fmt"

	"github.com/jonesrussell/north-cloud/content-mirror/internal/blobstore"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/config"
)

// SetupBlobStore creates the asset store for the configured driver.
func SetupBlobStore(ctx context.Context, cfg *config.Config) (blobstore.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMinIO:
		m := cfg.Storage.MinIO
		store, err := blobstore.NewMinIO(ctx, blobstore.MinIOConfig{
			Endpoint:  m.Endpoint,
			AccessKey: m.AccessKey,
			SecretKey: m.SecretKey,
			Bucket:    m.Bucket,
			UseSSL:    m.UseSSL,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("minio store: %w", err)
		}
		return store, nil
	default:
		store, err := blobstore.NewFilesystem(cfg.Storage.Root, cfg.Storage.PublicURL)
		if err != nil {
			return nil, fmt.Errorf("filesystem store: %w", err)
		}
		return store, nil
	}
}
