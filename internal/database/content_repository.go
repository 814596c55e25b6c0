package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/domain"
	"github.com/lib/pq"
)

// ContentRepository stores ContentRecords in builder_contents.
type ContentRepository struct {
	db *sqlx.DB
}

// NewContentRepository creates a ContentRepository.
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// Ping checks database connectivity.
func (r *ContentRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// FindByExternalID returns the record with the given remote identifier.
func (r *ContentRepository) FindByExternalID(ctx context.Context, externalID string) (*domain.ContentRecord, error) {
	query := `SELECT ` + contentColumns + ` FROM builder_contents WHERE builder_id = $1`
	return r.getOne(ctx, query, externalID)
}

// FindByID returns the record with the given local identifier.
func (r *ContentRepository) FindByID(ctx context.Context, id int64) (*domain.ContentRecord, error) {
	query := `SELECT ` + contentColumns + ` FROM builder_contents WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// FindPublishedByRef returns the published record of model with the given remote identifier.
func (r *ContentRepository) FindPublishedByRef(
	ctx context.Context,
	model, externalID string,
	now time.Time,
) (*domain.ContentRecord, error) {
	query := `SELECT ` + contentColumns + ` FROM builder_contents
		WHERE builder_id = $1 AND model = $2 AND published_at IS NOT NULL AND published_at <= $3`
	return r.getOne(ctx, query, externalID, model, now)
}

func (r *ContentRepository) getOne(ctx context.Context, query string, args ...any) (*domain.ContentRecord, error) {
	var row contentRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get content: %w", err)
	}
	return row.toDomain()
}

// PublishedQuery filters published records for locale resolution.
type PublishedQuery struct {
	Type domain.ContentType
	// Model restricts results to one model when set.
	Model string
	// Path is matched exactly against the normalized path.
	Path string
	// IncludeGlobal also matches records whose path is null.
	IncludeGlobal bool
	// Locales lists the allowed locales; records with a null locale always match.
	Locales []string
	Now     time.Time
}

// FindPublished returns published records matching q, ordered by id.
func (r *ContentRepository) FindPublished(ctx context.Context, q PublishedQuery) ([]domain.ContentRecord, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + contentColumns + ` FROM builder_contents
		WHERE type = $1
		AND published_at IS NOT NULL AND published_at <= $2
		AND (locale IS NULL OR locale = ANY($3))`)
	args := []any{int(q.Type), q.Now, pq.Array(q.Locales)}

	args = append(args, q.Path)
	if q.IncludeGlobal {
		fmt.Fprintf(&sb, " AND (path IS NULL OR path = $%d)", len(args))
	} else {
		fmt.Fprintf(&sb, " AND path = $%d", len(args))
	}

	if q.Model != "" {
		args = append(args, q.Model)
		fmt.Fprintf(&sb, " AND model = $%d", len(args))
	}
	sb.WriteString(" ORDER BY id")

	var rows []contentRow
	if err := r.db.SelectContext(ctx, &rows, sb.String(), args...); err != nil {
		return nil, fmt.Errorf("query published content: %w", err)
	}

	records := make([]domain.ContentRecord, 0, len(rows))
	for i := range rows {
		record, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, nil
}

// ListIDs returns every local record id in ascending order.
func (r *ContentRepository) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM builder_contents ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list content ids: %w", err)
	}
	return ids, nil
}

// Upsert inserts record or replaces the row sharing its ExternalID, then fills ID and timestamps.
func (r *ContentRepository) Upsert(ctx context.Context, record *domain.ContentRecord) error {
	content, err := marshalColumn(record.Content)
	if err != nil {
		return fmt.Errorf("marshal content: %w", err)
	}
	raw, err := marshalColumn(record.RawPayload)
	if err != nil {
		return fmt.Errorf("marshal builder data: %w", err)
	}
	fields, err := marshalColumn(record.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	query := `
		INSERT INTO builder_contents
			(type, builder_id, model, name, title, path, locale, content, builder_data, fields, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (builder_id) DO UPDATE SET
			type = EXCLUDED.type,
			model = EXCLUDED.model,
			name = EXCLUDED.name,
			title = EXCLUDED.title,
			path = EXCLUDED.path,
			locale = EXCLUDED.locale,
			content = EXCLUDED.content,
			builder_data = EXCLUDED.builder_data,
			fields = EXCLUDED.fields,
			published_at = EXCLUDED.published_at,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	scanErr := r.db.QueryRowxContext(ctx, query,
		int(record.Type),
		record.ExternalID,
		record.ModelName,
		record.Name,
		record.Title,
		record.Path,
		record.Locale,
		content,
		raw,
		fields,
		record.PublishedAt,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if scanErr != nil {
		return fmt.Errorf("upsert content %s: %w", record.ExternalID, scanErr)
	}

	return nil
}
