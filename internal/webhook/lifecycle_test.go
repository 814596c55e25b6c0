package webhook_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonesrussell/north-cloud/content-mirror/internal/domain"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/logger"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)

type memStore struct {
	records   map[int64]*domain.WebhookRecord
	nextID    int64
	createErr error
	marks     int
}

func newMemStore() *memStore {
	return &memStore{records: map[int64]*domain.WebhookRecord{}}
}

func (s *memStore) Create(_ context.Context, record *domain.WebhookRecord) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	record.ID = s.nextID
	cp := *record
	s.records[record.ID] = &cp
	return nil
}

func (s *memStore) FindByID(_ context.Context, id int64) (*domain.WebhookRecord, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *memStore) MarkProcessed(_ context.Context, id int64, processedAt time.Time, exception *string) error {
	rec, ok := s.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.marks++
	rec.ProcessedAt = &processedAt
	rec.Exception = exception
	return nil
}

type fakeQueue struct {
	ids []int64
	err error
}

func (q *fakeQueue) Enqueue(_ context.Context, id int64) error {
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}

type fakeIngester struct {
	ingestFunc func(ctx context.Context, payload map[string]any) error
	payloads   []map[string]any
}

func (f *fakeIngester) Ingest(ctx context.Context, payload map[string]any) error {
	f.payloads = append(f.payloads, payload)
	if f.ingestFunc != nil {
		return f.ingestFunc(ctx, payload)
	}
	return nil
}

func newLifecycle(store *memStore, queue *fakeQueue, ingester *fakeIngester) *webhook.Lifecycle {
	return webhook.New(webhook.Deps{
		Store:    store,
		Queue:    queue,
		Ingester: ingester,
		Logger:   logger.NewNop(),
		Now:      func() time.Time { return fixedNow },
	})
}

func TestAuthorize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		token   string
		header  string
		wantErr bool
	}{
		{name: "check disabled", token: "", header: "", wantErr: false},
		{name: "raw token", token: "s3cret", header: "s3cret", wantErr: false},
		{name: "bearer token", token: "s3cret", header: "Bearer s3cret", wantErr: false},
		{name: "lowercase bearer", token: "s3cret", header: "bearer s3cret", wantErr: false},
		{name: "missing header", token: "s3cret", header: "", wantErr: true},
		{name: "wrong token", token: "s3cret", header: "Bearer nope", wantErr: true},
		{name: "prefix only", token: "s3cret", header: "s3c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := webhook.Authorize(tt.token, tt.header)
			if tt.wantErr {
				require.ErrorIs(t, err, webhook.ErrUnauthorized)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestStripSecrets(t *testing.T) {
	t.Parallel()

	headers := map[string][]string{
		"Authorization":       {"Bearer x"},
		"proxy-authorization": {"Basic y"},
		"Content-Type":        {"application/json"},
	}

	stripped := webhook.StripSecrets(headers)
	assert.Equal(t, map[string][]string{"Content-Type": {"application/json"}}, stripped)
	assert.Len(t, headers, 3)
}

func TestReceive(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	queue := &fakeQueue{}
	lc := newLifecycle(store, queue, &fakeIngester{})

	payload := map[string]any{"newValue": map[string]any{"id": "abc"}}
	rec, err := lc.Receive(context.Background(), "https://mirror.test/_builder/webhook",
		map[string][]string{"Authorization": {"t"}, "X-Request-Id": {"r1"}}, payload)
	require.NoError(t, err)

	assert.Equal(t, []int64{rec.ID}, queue.ids)
	stored := store.records[rec.ID]
	assert.Equal(t, "https://mirror.test/_builder/webhook", stored.URL)
	assert.NotContains(t, stored.Headers, "Authorization")
	assert.Contains(t, stored.Headers, "X-Request-Id")
	assert.Nil(t, stored.ProcessedAt)
}

func TestReceive_StoreFailure(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.createErr = errors.New("db down")
	queue := &fakeQueue{}

	_, err := newLifecycle(store, queue, &fakeIngester{}).Receive(context.Background(), "/", nil, map[string]any{})
	require.Error(t, err)
	assert.Empty(t, queue.ids)
}

func TestReceive_EnqueueFailure(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	queue := &fakeQueue{err: errors.New("redis down")}

	rec, err := newLifecycle(store, queue, &fakeIngester{}).Receive(context.Background(), "/", nil, map[string]any{})
	require.Error(t, err)
	require.NotNil(t, rec)
	assert.Contains(t, store.records, rec.ID)
}

func TestProcess_Success(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	ingester := &fakeIngester{}
	lc := newLifecycle(store, &fakeQueue{}, ingester)

	rec, err := lc.Receive(context.Background(), "/", nil, map[string]any{"newValue": map[string]any{"id": "abc"}})
	require.NoError(t, err)

	require.NoError(t, lc.Process(context.Background(), rec.ID))

	stored := store.records[rec.ID]
	require.NotNil(t, stored.ProcessedAt)
	assert.Equal(t, fixedNow, *stored.ProcessedAt)
	assert.Nil(t, stored.Exception)
	require.Len(t, ingester.payloads, 1)
	assert.Equal(t, "abc", ingester.payloads[0]["id"])
}

func TestProcess_IngestErrorIsRecorded(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	ingester := &fakeIngester{ingestFunc: func(context.Context, map[string]any) error {
		return errors.New("localize assets: download failed")
	}}
	lc := newLifecycle(store, &fakeQueue{}, ingester)

	rec, err := lc.Receive(context.Background(), "/", nil, map[string]any{"newValue": map[string]any{}})
	require.NoError(t, err)

	require.NoError(t, lc.Process(context.Background(), rec.ID))

	stored := store.records[rec.ID]
	require.NotNil(t, stored.ProcessedAt)
	require.NotNil(t, stored.Exception)
	assert.Contains(t, *stored.Exception, "download failed")
	assert.True(t, stored.Failed())
}

func TestProcess_PanicIsRecorded(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	ingester := &fakeIngester{ingestFunc: func(context.Context, map[string]any) error {
		panic("nil map")
	}}
	lc := newLifecycle(store, &fakeQueue{}, ingester)

	rec, err := lc.Receive(context.Background(), "/", nil, map[string]any{"newValue": map[string]any{}})
	require.NoError(t, err)

	require.NoError(t, lc.Process(context.Background(), rec.ID))

	stored := store.records[rec.ID]
	require.NotNil(t, stored.ProcessedAt)
	require.NotNil(t, stored.Exception)
	assert.Contains(t, *stored.Exception, "panic: nil map")
}

func TestProcess_MissingNewValueIsNoop(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	ingester := &fakeIngester{}
	lc := newLifecycle(store, &fakeQueue{}, ingester)

	rec, err := lc.Receive(context.Background(), "/", nil, map[string]any{"newValue": nil})
	require.NoError(t, err)

	require.NoError(t, lc.Process(context.Background(), rec.ID))

	assert.Empty(t, ingester.payloads)
	assert.NotNil(t, store.records[rec.ID].ProcessedAt)
	assert.Nil(t, store.records[rec.ID].Exception)
}

func TestProcess_AlreadyProcessedIsSkipped(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	ingester := &fakeIngester{}
	lc := newLifecycle(store, &fakeQueue{}, ingester)

	rec, err := lc.Receive(context.Background(), "/", nil, map[string]any{"newValue": map[string]any{}})
	require.NoError(t, err)

	require.NoError(t, lc.Process(context.Background(), rec.ID))
	require.NoError(t, lc.Process(context.Background(), rec.ID))

	assert.Len(t, ingester.payloads, 1)
	assert.Equal(t, 1, store.marks)
}

func TestProcess_UnknownRecord(t *testing.T) {
	t.Parallel()

	ingester := &fakeIngester{}
	err := newLifecycle(newMemStore(), &fakeQueue{}, ingester).Process(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, ingester.payloads)
}
