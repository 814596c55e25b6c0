package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/domain"
)

const contentColumns = `id, type, builder_id, model, name, title, path, locale, content, builder_data,
	fields, published_at, created_at, updated_at`

type contentRow struct {
	ID          int64          `db:"id"`
	Type        int            `db:"type"`
	BuilderID   string         `db:"builder_id"`
	Model       string         `db:"model"`
	Name        sql.NullString `db:"name"`
	Title       sql.NullString `db:"title"`
	Path        sql.NullString `db:"path"`
	Locale      sql.NullString `db:"locale"`
	Content     types.JSONText `db:"content"`
	BuilderData types.JSONText `db:"builder_data"`
	Fields      types.JSONText `db:"fields"`
	PublishedAt sql.NullTime   `db:"published_at"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r *contentRow) toDomain() (*domain.ContentRecord, error) {
	record := &domain.ContentRecord{
		ID:          r.ID,
		Type:        domain.ContentType(r.Type),
		ExternalID:  r.BuilderID,
		ModelName:   r.Model,
		Name:        nullString(r.Name),
		Title:       nullString(r.Title),
		Path:        nullString(r.Path),
		Locale:      nullString(r.Locale),
		PublishedAt: nullTime(r.PublishedAt),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}

	if err := unmarshalColumn(r.Content, &record.Content); err != nil {
		return nil, fmt.Errorf("content %d: content column: %w", r.ID, err)
	}
	if err := unmarshalColumn(r.BuilderData, &record.RawPayload); err != nil {
		return nil, fmt.Errorf("content %d: builder_data column: %w", r.ID, err)
	}
	if err := unmarshalColumn(r.Fields, &record.Fields); err != nil {
		return nil, fmt.Errorf("content %d: fields column: %w", r.ID, err)
	}

	return record, nil
}

const webhookColumns = `id, url, headers, payload, exception, processed_at, created_at, updated_at`

type webhookRow struct {
	ID          int64          `db:"id"`
	URL         string         `db:"url"`
	Headers     types.JSONText `db:"headers"`
	Payload     types.JSONText `db:"payload"`
	Exception   sql.NullString `db:"exception"`
	ProcessedAt sql.NullTime   `db:"processed_at"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r *webhookRow) toDomain() (*domain.WebhookRecord, error) {
	record := &domain.WebhookRecord{
		ID:          r.ID,
		URL:         r.URL,
		Exception:   nullString(r.Exception),
		ProcessedAt: nullTime(r.ProcessedAt),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}

	if err := unmarshalColumn(r.Headers, &record.Headers); err != nil {
		return nil, fmt.Errorf("webhook %d: headers column: %w", r.ID, err)
	}
	if err := unmarshalColumn(r.Payload, &record.Payload); err != nil {
		return nil, fmt.Errorf("webhook %d: payload column: %w", r.ID, err)
	}

	return record, nil
}

func unmarshalColumn(raw types.JSONText, dest any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

func marshalColumn(v any) (types.JSONText, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return types.JSONText(data), nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
