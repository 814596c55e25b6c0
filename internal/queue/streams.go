// Package queue hands webhook records to background workers over a Redis stream.
package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultStream is the stream carrying webhook jobs.
	DefaultStream = "content-mirror:webhooks"

	// DefaultGroup is the consumer group processing webhook jobs.
	DefaultGroup = "webhook-workers"

	// WebhookIDField holds the webhook record id in a stream message.
	WebhookIDField = "webhook_id"

	busyGroupPrefix = "BUSYGROUP"
)

// ensureGroup creates the consumer group, and the stream with it, unless the group exists.
func ensureGroup(ctx context.Context, client *redis.Client, stream, group string) error {
	err := client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), busyGroupPrefix) {
		return fmt.Errorf("create consumer group %s: %w", group, err)
	}
	return nil
}
