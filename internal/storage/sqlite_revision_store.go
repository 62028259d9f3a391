package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteRevisionStore implements RevisionStore backed by SQLite.
type SQLiteRevisionStore struct {
	db *sql.DB
}

// NewSQLiteRevisionStore returns a new SQLiteRevisionStore.
func NewSQLiteRevisionStore(db *sql.DB) *SQLiteRevisionStore {
	return &SQLiteRevisionStore{db: db}
}

// CreateRevision inserts a new revision row.
func (s *SQLiteRevisionStore) CreateRevision(ctx context.Context, r Revision) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO page_revisions (id, page_id, submitted_by, status, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.PageID, r.SubmittedBy, r.Status, r.Content, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting revision: %w", err)
	}
	return nil
}

// GetRevision returns the revision with the given ID, or ErrNotFound.
func (s *SQLiteRevisionStore) GetRevision(ctx context.Context, id string) (*Revision, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, page_id, submitted_by, status, content, created_at, updated_at
		FROM page_revisions WHERE id = ?`, id)

	var r Revision
	err := row.Scan(&r.ID, &r.PageID, &r.SubmittedBy, &r.Status, &r.Content, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning revision: %w", err)
	}
	return &r, nil
}

// UpdateStatus sets the revision's status.
func (s *SQLiteRevisionStore) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE page_revisions SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating revision status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRevisionsForPage returns a page's revisions, newest first.
func (s *SQLiteRevisionStore) ListRevisionsForPage(ctx context.Context, pageID string) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, page_id, submitted_by, status, content, created_at, updated_at
		FROM page_revisions WHERE page_id = ? ORDER BY created_at DESC`, pageID)
	if err != nil {
		return nil, fmt.Errorf("querying revisions: %w", err)
	}
	defer rows.Close()

	var revisions []Revision
	for rows.Next() {
		var r Revision
		if err := rows.Scan(&r.ID, &r.PageID, &r.SubmittedBy, &r.Status, &r.Content, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning revision row: %w", err)
		}
		revisions = append(revisions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating revision rows: %w", err)
	}
	return revisions, nil
}
