package queue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/logger"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/queue"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

func newClient(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newConsumer(t *testing.T, client *redis.Client) *queue.Consumer {
	t.Helper()

	consumer, err := queue.NewConsumer(client, queue.ConsumerConfig{
		ConsumerID:   "worker-1",
		BlockTimeout: 20 * time.Millisecond,
	}, logger.NewNop())
	require.NoError(t, err)
	return consumer
}

// runUntil runs consumer until want ids were handled, then stops it.
func runUntil(t *testing.T, consumer *queue.Consumer, want int, handle queue.Handler) []int64 {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	var (
		mu   sync.Mutex
		seen []int64
	)
	done := make(chan error, 1)
	go func() {
		done <- consumer.Run(ctx, func(ctx context.Context, id int64) error {
			err := handle(ctx, id)
			mu.Lock()
			seen = append(seen, id)
			if len(seen) == want {
				cancel()
			}
			mu.Unlock()
			return err
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(testTimeout + time.Second):
		t.Fatal("consumer did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	return seen
}

func pendingCount(t *testing.T, client *redis.Client) int64 {
	t.Helper()

	pending, err := client.XPendingExt(context.Background(), &redis.XPendingExtArgs{
		Stream: queue.DefaultStream,
		Group:  queue.DefaultGroup,
		Start:  "-",
		End:    "+",
		Count:  100,
	}).Result()
	require.NoError(t, err)
	return int64(len(pending))
}

func TestProducer_Enqueue(t *testing.T) {
	t.Parallel()

	client := newClient(t)
	producer := queue.NewProducer(client, "", 0)

	require.NoError(t, producer.Enqueue(context.Background(), 42))

	messages, err := client.XRange(context.Background(), queue.DefaultStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "42", messages[0].Values[queue.WebhookIDField])
}

func TestConsumer_HandlesAndAcknowledges(t *testing.T) {
	t.Parallel()

	client := newClient(t)
	producer := queue.NewProducer(client, "", 0)
	ctx := context.Background()
	require.NoError(t, producer.Enqueue(ctx, 1))
	require.NoError(t, producer.Enqueue(ctx, 2))

	seen := runUntil(t, newConsumer(t, client), 2, func(context.Context, int64) error { return nil })

	assert.Equal(t, []int64{1, 2}, seen)
	assert.Zero(t, pendingCount(t, client))
}

func TestConsumer_FailedJobIsReplayedOnRestart(t *testing.T) {
	t.Parallel()

	client := newClient(t)
	producer := queue.NewProducer(client, "", 0)
	require.NoError(t, producer.Enqueue(context.Background(), 7))

	consumer := newConsumer(t, client)
	seen := runUntil(t, consumer, 1, func(context.Context, int64) error { return errors.New("database down") })
	assert.Equal(t, []int64{7}, seen)
	assert.Equal(t, int64(1), pendingCount(t, client))

	seen = runUntil(t, consumer, 1, func(context.Context, int64) error { return nil })
	assert.Equal(t, []int64{7}, seen)
	assert.Zero(t, pendingCount(t, client))
}

func TestConsumer_DropsMalformedMessages(t *testing.T) {
	t.Parallel()

	client := newClient(t)
	ctx := context.Background()
	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{
		Stream: queue.DefaultStream,
		Values: map[string]any{queue.WebhookIDField: "not-a-number"},
	}).Err())
	require.NoError(t, queue.NewProducer(client, "", 0).Enqueue(ctx, 3))

	seen := runUntil(t, newConsumer(t, client), 1, func(context.Context, int64) error { return nil })

	assert.Equal(t, []int64{3}, seen)
	assert.Zero(t, pendingCount(t, client))
}

func TestNewConsumer_RequiresID(t *testing.T) {
	t.Parallel()

	_, err := queue.NewConsumer(newClient(t), queue.ConsumerConfig{}, logger.NewNop())
	require.Error(t, err)
}
