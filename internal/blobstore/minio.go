package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOConfig holds the S3-compatible connection settings.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base URL objects are served from. Defaults to the endpoint and bucket.
	PublicURL string
}

// MinIO stores objects in a single bucket.
type MinIO struct {
	client    *miniogo.Client
	bucket    string
	publicURL string
}

// NewMinIO connects to the endpoint and creates the bucket if it does not exist.
func NewMinIO(ctx context.Context, cfg MinIOConfig) (*MinIO, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err = client.MakeBucket(ctx, cfg.Bucket, miniogo.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &MinIO{client: client, bucket: cfg.Bucket, publicURL: publicURL}, nil
}

// Exists reports whether the object is present in the bucket.
func (m *MinIO) Exists(ctx context.Context, path string) (bool, error) {
	_, err := m.client.StatObject(ctx, m.bucket, path, miniogo.StatObjectOptions{})
	if err == nil {
		return true, nil
	}

	resp := miniogo.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, fmt.Errorf("stat object %s: %w", path, err)
}

// Put uploads data as a single object.
func (m *MinIO) Put(ctx context.Context, path string, data []byte, contentType string) error {
	_, err := m.client.PutObject(
		ctx,
		m.bucket,
		path,
		bytes.NewReader(data),
		int64(len(data)),
		miniogo.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return fmt.Errorf("upload object %s: %w", path, err)
	}
	return nil
}

// URL returns the public URL of path.
func (m *MinIO) URL(path string) string {
	return joinURL(m.publicURL, path)
}
