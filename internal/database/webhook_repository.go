package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/domain"
)

// WebhookRepository stores WebhookRecords in builder_webhooks.
type WebhookRepository struct {
	db *sqlx.DB
}

// NewWebhookRepository creates a WebhookRepository.
func NewWebhookRepository(db *sqlx.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

// Create inserts a received webhook and fills its ID and timestamps.
func (r *WebhookRepository) Create(ctx context.Context, record *domain.WebhookRecord) error {
	headers, err := marshalColumn(record.Headers)
	if err != nil {
		return fmt.Errorf("marshal headers: %w", err)
	}
	payload, err := marshalColumn(record.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	query := `
		INSERT INTO builder_webhooks (url, headers, payload)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	if scanErr := r.db.QueryRowxContext(ctx, query, record.URL, headers, payload).
		Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt); scanErr != nil {
		return fmt.Errorf("create webhook: %w", scanErr)
	}

	return nil
}

// FindByID returns a stored webhook.
func (r *WebhookRepository) FindByID(ctx context.Context, id int64) (*domain.WebhookRecord, error) {
	var row webhookRow
	query := `SELECT ` + webhookColumns + ` FROM builder_webhooks WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get webhook %d: %w", id, err)
	}
	return row.toDomain()
}

// MarkProcessed stamps processed_at and records the failure detail, if any.
func (r *WebhookRepository) MarkProcessed(ctx context.Context, id int64, processedAt time.Time, exception *string) error {
	query := `
		UPDATE builder_webhooks
		SET processed_at = $2, exception = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, processedAt, exception)
	if err != nil {
		return fmt.Errorf("mark webhook %d processed: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark webhook %d processed: rows affected: %w", id, err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}
