package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/domain"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/events"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/logger"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_Publish(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	publisher := events.NewPublisher(client, "", 100, logger.NewNop())
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	record := &domain.ContentRecord{
		ID:          4,
		Type:        domain.ContentTypePage,
		ExternalID:  "abc",
		ModelName:   "page",
		Path:        domain.StringPtr("/about"),
		PublishedAt: &now,
	}

	ctx := context.Background()
	require.NoError(t, publisher.Publish(ctx, domain.ContentEvent{Type: domain.EventContentUpdated, Record: record, OccurredAt: now}))
	require.NoError(t, publisher.Publish(ctx, domain.ContentEvent{Type: domain.EventContentPublished, Record: record, OccurredAt: now}))

	messages, err := client.XRange(ctx, events.DefaultStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, "content.updated", messages[0].Values["type"])
	assert.Equal(t, "content.published", messages[1].Values["type"])

	var env events.Envelope
	require.NoError(t, json.Unmarshal([]byte(messages[1].Values["event"].(string)), &env))
	assert.Equal(t, "abc", env.ExternalID)
	assert.Equal(t, "page", env.ContentType)
	assert.Equal(t, "/about", domain.Deref(env.Path))
	assert.True(t, env.Timestamp.Equal(now))
	assert.NotEqual(t, [16]byte{}, [16]byte(env.EventID))
}

func TestPublisher_NilIsNoOp(t *testing.T) {
	t.Parallel()

	publisher := events.NewPublisher(nil, "", 0, logger.NewNop())
	assert.Nil(t, publisher)
	require.NoError(t, publisher.Publish(context.Background(), domain.ContentEvent{Type: domain.EventContentUpdated}))
}
