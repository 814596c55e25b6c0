// Package modelcache keeps the remote model catalog (id -> name) in a Redis hash with no
// expiry. A lookup miss refreshes the whole catalog once; Forget is the only invalidation.
package modelcache

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jonesrussell/north-cloud/content-mirror/internal/domain"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/logger"
	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis hash holding the catalog.
const DefaultKey = "content-mirror:models"

// CatalogSource fetches the full model catalog.
type CatalogSource interface {
	Models(ctx context.Context) ([]domain.ModelRef, error)
}

// Cache resolves model IDs to names.
type Cache struct {
	client *redis.Client
	source CatalogSource
	key    string
	log    logger.Logger
}

// New creates a Cache. An empty key uses DefaultKey.
func New(client *redis.Client, source CatalogSource, key string, log logger.Logger) *Cache {
	if key == "" {
		key = DefaultKey
	}
	return &Cache{client: client, source: source, key: key, log: log}
}

// Name returns the model name for id. ok is false when the id is unknown even after a refresh.
func (c *Cache) Name(ctx context.Context, id string) (name string, ok bool, err error) {
	if id == "" {
		return "", false, nil
	}

	name, err = c.client.HGet(ctx, c.key, id).Result()
	switch {
	case err == nil:
		return name, true, nil
	case !errors.Is(err, redis.Nil):
		return "", false, fmt.Errorf("read model cache: %w", err)
	}

	models, err := c.Refresh(ctx)
	if err != nil {
		return "", false, err
	}
	for _, m := range models {
		if m.ID == id {
			return m.Name, true, nil
		}
	}

	c.log.Debug("Unknown model id", logger.String("model_id", id))
	return "", false, nil
}

// All returns the cached catalog sorted by name, fetching it when the cache is empty.
func (c *Cache) All(ctx context.Context) ([]domain.ModelRef, error) {
	entries, err := c.client.HGetAll(ctx, c.key).Result()
	if err != nil {
		return nil, fmt.Errorf("read model cache: %w", err)
	}
	if len(entries) == 0 {
		return c.Refresh(ctx)
	}

	models := make([]domain.ModelRef, 0, len(entries))
	for id, name := range entries {
		models = append(models, domain.ModelRef{ID: id, Name: name})
	}
	sortByName(models)
	return models, nil
}

// Refresh fetches the catalog from the remote source and stores every entry.
func (c *Cache) Refresh(ctx context.Context) ([]domain.ModelRef, error) {
	models, err := c.source.Models(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh model cache: %w", err)
	}
	if len(models) == 0 {
		return models, nil
	}

	values := make(map[string]any, len(models))
	for _, m := range models {
		if m.ID != "" {
			values[m.ID] = m.Name
		}
	}
	if err = c.client.HSet(ctx, c.key, values).Err(); err != nil {
		return nil, fmt.Errorf("write model cache: %w", err)
	}

	c.log.Info("Model catalog cached", logger.Int("models", len(values)))
	sortByName(models)
	return models, nil
}

// Forget drops the cached catalog.
func (c *Cache) Forget(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("clear model cache: %w", err)
	}
	return nil
}

func sortByName(models []domain.ModelRef) {
	sort.Slice(models, func(i, j int) bool {
		if models[i].Name == models[j].Name {
			return models[i].ID < models[j].ID
		}
		return models[i].Name < models[j].Name
	})
}
