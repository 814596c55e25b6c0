package queue

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const defaultMaxStreamLen = 10000

// Producer enqueues webhook jobs.
type Producer struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewProducer creates a Producer. Empty or zero settings take the package defaults.
func NewProducer(client *redis.Client, stream string, maxLen int64) *Producer {
	if stream == "" {
		stream = DefaultStream
	}
	if maxLen <= 0 {
		maxLen = defaultMaxStreamLen
	}
	return &Producer{client: client, stream: stream, maxLen: maxLen}
}

// Enqueue adds a job for the webhook record with id.
func (p *Producer) Enqueue(ctx context.Context, webhookID int64) error {
	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{WebhookIDField: strconv.FormatInt(webhookID, 10)},
	}).Err()
	if err != nil {
		return fmt.Errorf("enqueue webhook %d: %w", webhookID, err)
	}
	return nil
}
