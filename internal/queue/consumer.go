package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jonesrussell/north-cloud/content-mirror/internal/logger"
	"github.com/redis/go-redis/v9"
)

const (
	defaultBlockTimeout = 5 * time.Second
	defaultBatchSize    = 10
	errorBackoff        = time.Second
	ackTimeout          = 5 * time.Second

	// pendingID re-reads messages delivered to this consumer but never acknowledged.
	pendingID = "0"
	newID     = ">"
)

// Handler processes one webhook job. A returned error leaves the message pending.
type Handler func(ctx context.Context, webhookID int64) error

// ConsumerConfig configures a Consumer.
type ConsumerConfig struct {
	Stream       string
	Group        string
	ConsumerID   string
	BlockTimeout time.Duration
	BatchSize    int64
}

// Consumer reads webhook jobs as a member of a consumer group.
type Consumer struct {
	client       *redis.Client
	stream       string
	group        string
	consumerID   string
	blockTimeout time.Duration
	batchSize    int64
	log          logger.Logger
}

// NewConsumer creates a Consumer.
func NewConsumer(client *redis.Client, cfg ConsumerConfig, log logger.Logger) (*Consumer, error) {
	if cfg.ConsumerID == "" {
		return nil, errors.New("consumer ID is required")
	}

	c := &Consumer{
		client:       client,
		stream:       cfg.Stream,
		group:        cfg.Group,
		consumerID:   cfg.ConsumerID,
		blockTimeout: cfg.BlockTimeout,
		batchSize:    cfg.BatchSize,
		log:          log,
	}
	if c.stream == "" {
		c.stream = DefaultStream
	}
	if c.group == "" {
		c.group = DefaultGroup
	}
	if c.blockTimeout <= 0 {
		c.blockTimeout = defaultBlockTimeout
	}
	if c.batchSize <= 0 {
		c.batchSize = defaultBatchSize
	}
	return c, nil
}

// Run consumes jobs until ctx is done. Messages left pending by an earlier run of this consumer
// are handled first. Each message is acknowledged once handle returns nil.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	if err := ensureGroup(ctx, c.client, c.stream, c.group); err != nil {
		return err
	}

	c.log.Info("Webhook consumer started",
		logger.String("stream", c.stream),
		logger.String("group", c.group),
		logger.String("consumer", c.consumerID),
	)

	// The pending history is walked once by advancing the cursor past each batch.
	cursor, replaying := pendingID, true
	for {
		if ctx.Err() != nil {
			c.log.Info("Webhook consumer stopped")
			return nil
		}

		messages, err := c.read(ctx, cursor, replaying)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Error("Failed to read webhook jobs", logger.Error(err))
			sleep(ctx, errorBackoff)
			continue
		}

		if replaying {
			if len(messages) == 0 {
				cursor, replaying = newID, false
				continue
			}
			cursor = messages[len(messages)-1].ID
		}

		for _, msg := range messages {
			c.handleMessage(ctx, msg, handle)
		}
	}
}

func (c *Consumer) read(ctx context.Context, cursor string, replaying bool) ([]redis.XMessage, error) {
	args := &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumerID,
		Streams:  []string{c.stream, cursor},
		Count:    c.batchSize,
		Block:    c.blockTimeout,
	}
	if replaying {
		args.Block = -1
	}

	streams, err := c.client.XReadGroup(ctx, args).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read stream %s: %w", c.stream, err)
	}

	var messages []redis.XMessage
	for _, s := range streams {
		messages = append(messages, s.Messages...)
	}
	return messages, nil
}

func (c *Consumer) handleMessage(ctx context.Context, msg redis.XMessage, handle Handler) {
	id, err := parseWebhookID(msg)
	if err != nil {
		c.log.Warn("Dropping malformed webhook job",
			logger.String("message_id", msg.ID),
			logger.Error(err),
		)
		c.ack(ctx, msg.ID)
		return
	}

	if handleErr := handle(ctx, id); handleErr != nil {
		c.log.Error("Webhook job failed, leaving it pending",
			logger.WebhookID(id),
			logger.String("message_id", msg.ID),
			logger.Error(handleErr),
		)
		return
	}
	c.ack(ctx, msg.ID)
}

// ack survives cancellation of ctx so that a job finished during shutdown is not replayed.
func (c *Consumer) ack(ctx context.Context, messageID string) {
	ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ackTimeout)
	defer cancel()

	if err := c.client.XAck(ackCtx, c.stream, c.group, messageID).Err(); err != nil {
		c.log.Warn("Failed to acknowledge webhook job",
			logger.String("message_id", messageID),
			logger.Error(err),
		)
	}
}

func parseWebhookID(msg redis.XMessage) (int64, error) {
	raw, ok := msg.Values[WebhookIDField].(string)
	if !ok {
		return 0, fmt.Errorf("missing %s field", WebhookIDField)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", WebhookIDField, err)
	}
	return id, nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
