// Package postgres implements the document store against PostgreSQL. After
// every successful mutation it announces a change event on the feed so other
// sessions converge without polling.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"complyline/internal/document/feed"
	"complyline/internal/document/models"
	"complyline/internal/document/store"
	"complyline/pkg/platform/sentinel"
)

type Store struct {
	db        *sql.DB
	publisher feed.Publisher
	logger    *slog.Logger
}

type Option func(*Store)

// WithPublisher announces mutations on the change feed. Announcement is
// best-effort: a failed publish is logged, never surfaced, because the store
// write already succeeded.
func WithPublisher(p feed.Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const documentColumns = `id, title, description, category, status, version,
	created_by, created_at, updated_at, expiry_date, pending_since,
	linked_module, linked_item_id, tags, is_locked, file_name, file_size, file_type`

func (s *Store) List(ctx context.Context, filter store.Filter) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents`
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.Categories) > 0 {
		conds = append(conds, "category = ANY("+arg(pq.Array(categoryStrings(filter.Categories)))+")")
	}
	if len(filter.Statuses) > 0 {
		conds = append(conds, "status = ANY("+arg(pq.Array(statusStrings(filter.Statuses)))+")")
	}
	if filter.CreatedBy != "" {
		conds = append(conds, "created_by = "+arg(filter.CreatedBy))
	}
	if filter.ExpiringBefore != nil {
		conds = append(conds, "expiry_date IS NOT NULL AND expiry_date <= "+arg(*filter.ExpiringBefore))
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		conds = append(conds, "(title ILIKE "+arg(pattern)+" OR description ILIKE "+arg(pattern)+")")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY updated_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", sentinel.ErrUnavailable, err)
	}
	return docs, nil
}

func (s *Store) Create(ctx context.Context, doc *models.Document) (*models.Document, error) {
	stored := doc.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = now
	}
	if stored.Version == 0 {
		stored.Version = 1
	}

	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err := s.db.ExecContext(ctx, query, documentArgs(stored)...)
	if err != nil {
		return nil, fmt.Errorf("%w: insert document: %v", sentinel.ErrUnavailable, err)
	}

	s.announce(ctx, feed.Inserted(stored))
	return stored.Clone(), nil
}

func (s *Store) Update(ctx context.Context, doc *models.Document) (*models.Document, error) {
	stored := doc.Clone()
	query := `
		UPDATE documents SET
			title = $2, description = $3, category = $4, status = $5,
			version = $6, updated_at = $7, expiry_date = $8, pending_since = $9,
			linked_module = $10, linked_item_id = $11, tags = $12,
			is_locked = $13, file_name = $14, file_size = $15, file_type = $16
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		stored.ID, stored.Title, stored.Description, string(stored.Category),
		string(stored.Status), stored.Version, stored.UpdatedAt,
		nullTime(stored.ExpiryDate), nullTime(stored.PendingSince),
		string(stored.LinkedModule), stored.LinkedItemID, pq.Array(stored.Tags),
		stored.IsLocked, stored.FileName, stored.FileSize, stored.FileType,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: update document: %v", sentinel.ErrUnavailable, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: update document: %v", sentinel.ErrUnavailable, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: document %s", sentinel.ErrNotFound, stored.ID)
	}

	s.announce(ctx, feed.Updated(stored))
	return stored.Clone(), nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete document: %v", sentinel.ErrUnavailable, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete document: %v", sentinel.ErrUnavailable, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: document %s", sentinel.ErrNotFound, id)
	}

	s.announce(ctx, feed.Deleted(id))
	return nil
}

func (s *Store) announce(ctx context.Context, event feed.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to announce document change",
			"event_type", event.Type,
			"document_id", event.DocumentID(),
			"error", err,
		)
	}
}

func documentArgs(d *models.Document) []any {
	return []any{
		d.ID, d.Title, d.Description, string(d.Category), string(d.Status),
		d.Version, d.CreatedBy, d.CreatedAt, d.UpdatedAt,
		nullTime(d.ExpiryDate), nullTime(d.PendingSince),
		string(d.LinkedModule), d.LinkedItemID, pq.Array(d.Tags),
		d.IsLocked, d.FileName, d.FileSize, d.FileType,
	}
}

func scanDocument(rows *sql.Rows) (*models.Document, error) {
	var (
		doc          models.Document
		category     string
		status       string
		expiryDate   sql.NullTime
		pendingSince sql.NullTime
		linkedModule sql.NullString
		linkedItemID sql.NullString
		tags         pq.StringArray
	)
	err := rows.Scan(
		&doc.ID, &doc.Title, &doc.Description, &category, &status, &doc.Version,
		&doc.CreatedBy, &doc.CreatedAt, &doc.UpdatedAt, &expiryDate, &pendingSince,
		&linkedModule, &linkedItemID, &tags, &doc.IsLocked,
		&doc.FileName, &doc.FileSize, &doc.FileType,
	)
	if err != nil {
		return nil, err
	}
	doc.Category = models.DocumentCategory(category)
	doc.Status = models.DocumentStatus(status)
	if expiryDate.Valid {
		t := expiryDate.Time
		doc.ExpiryDate = &t
	}
	if pendingSince.Valid {
		t := pendingSince.Time
		doc.PendingSince = &t
	}
	doc.LinkedModule = models.ModuleReference(linkedModule.String)
	doc.LinkedItemID = linkedItemID.String
	doc.Tags = []string(tags)
	return &doc, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func categoryStrings(cats []models.DocumentCategory) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}

func statusStrings(statuses []models.DocumentStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// Migrate creates the documents table when it does not exist yet. Kept here
// rather than in a migration tool because the schema is a single table owned
// by this service.
func Migrate(ctx context.Context, db *sql.DB) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS documents (
			id             TEXT PRIMARY KEY,
			title          TEXT NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			category       TEXT NOT NULL,
			status         TEXT NOT NULL,
			version        INTEGER NOT NULL DEFAULT 1,
			created_by     TEXT NOT NULL DEFAULT '',
			created_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL,
			expiry_date    TIMESTAMPTZ,
			pending_since  TIMESTAMPTZ,
			linked_module  TEXT,
			linked_item_id TEXT,
			tags           TEXT[] NOT NULL DEFAULT '{}',
			is_locked      BOOLEAN NOT NULL DEFAULT FALSE,
			file_name      TEXT NOT NULL DEFAULT '',
			file_size      BIGINT NOT NULL DEFAULT 0,
			file_type      TEXT NOT NULL DEFAULT ''
		)
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate documents table: %w", err)
	}
	return nil
}
