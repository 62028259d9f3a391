package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SQLitePageStore implements PageStore and GrantStore backed by SQLite.
type SQLitePageStore struct {
	db *sql.DB
}

// NewSQLitePageStore returns a new SQLitePageStore.
func NewSQLitePageStore(db *sql.DB) *SQLitePageStore {
	return &SQLitePageStore{db: db}
}

// CreatePage inserts a new page row.
func (s *SQLitePageStore) CreatePage(ctx context.Context, p Page) error {
	var parent any
	if p.ParentID != "" {
		parent = p.ParentID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pages (id, parent_id, title, slug, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, parent, p.Title, p.Slug, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting page: %w", err)
	}
	return nil
}

// GetPage returns the page with the given ID, or ErrNotFound.
func (s *SQLitePageStore) GetPage(ctx context.Context, id string) (*Page, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(parent_id, ''), title, slug, created_at
		FROM pages WHERE id = ?`, id)

	var p Page
	err := row.Scan(&p.ID, &p.ParentID, &p.Title, &p.Slug, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning page: %w", err)
	}
	return &p, nil
}

// ListPages returns all pages ordered by creation time.
func (s *SQLitePageStore) ListPages(ctx context.Context) ([]Page, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(parent_id, ''), title, slug, created_at
		FROM pages ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("querying pages: %w", err)
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		var p Page
		if err := rows.Scan(&p.ID, &p.ParentID, &p.Title, &p.Slug, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning page row: %w", err)
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating page rows: %w", err)
	}
	return pages, nil
}

// AncestorsOf walks the parent chain with a recursive CTE and returns the
// ancestor IDs root first, excluding the page itself.
func (s *SQLitePageStore) AncestorsOf(ctx context.Context, pageID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		WITH RECURSIVE chain(id, parent_id, depth) AS (
			SELECT id, parent_id, 0 FROM pages WHERE id = ?
			UNION ALL
			SELECT p.id, p.parent_id, c.depth + 1
			FROM pages p JOIN chain c ON p.id = c.parent_id
		)
		SELECT id FROM chain WHERE depth > 0 ORDER BY depth DESC`, pageID)
	if err != nil {
		return nil, fmt.Errorf("querying page ancestors: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning ancestor id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ancestor rows: %w", err)
	}
	return ids, nil
}

// GrantPagePermission grants a permission type on a page to a group.
func (s *SQLitePageStore) GrantPagePermission(ctx context.Context, groupID int64, pageID, permissionType string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO group_page_permissions (group_id, page_id, permission_type)
		VALUES (?, ?, ?)`,
		groupID, pageID, permissionType,
	)
	if err != nil {
		return fmt.Errorf("inserting page permission: %w", err)
	}
	return nil
}

// GrantsFor returns all grants of the given permission type on any of the
// given pages.
func (s *SQLitePageStore) GrantsFor(ctx context.Context, permissionType string, pageIDs []string) ([]GroupPagePermission, error) {
	if len(pageIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(pageIDs)), ",")
	args := []any{permissionType}
	for _, id := range pageIDs {
		args = append(args, id)
	}

	//nolint:gosec // placeholders contains only "?" tokens
	query := fmt.Sprintf(`
		SELECT group_id, page_id, permission_type
		FROM group_page_permissions
		WHERE permission_type = ? AND page_id IN (%s)`, placeholders)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying page permissions: %w", err)
	}
	defer rows.Close()

	var grants []GroupPagePermission
	for rows.Next() {
		var g GroupPagePermission
		if err := rows.Scan(&g.GroupID, &g.PageID, &g.PermissionType); err != nil {
			return nil, fmt.Errorf("scanning page permission row: %w", err)
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating page permission rows: %w", err)
	}
	return grants, nil
}

// HasGrantsForGroups reports whether any of the given groups holds any page
// permission.
func (s *SQLitePageStore) HasGrantsForGroups(ctx context.Context, groupIDs []int64) (bool, error) {
	return s.hasGrants(ctx, groupIDs, "")
}

// HasGrantsOfType reports whether any of the given groups holds a grant of
// the given permission type.
func (s *SQLitePageStore) HasGrantsOfType(ctx context.Context, groupIDs []int64, permissionType string) (bool, error) {
	return s.hasGrants(ctx, groupIDs, permissionType)
}

func (s *SQLitePageStore) hasGrants(ctx context.Context, groupIDs []int64, permissionType string) (bool, error) {
	if len(groupIDs) == 0 {
		return false, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(groupIDs)), ",")
	var args []any
	for _, id := range groupIDs {
		args = append(args, id)
	}

	//nolint:gosec // placeholders contains only "?" tokens
	query := fmt.Sprintf(`SELECT COUNT(*) FROM group_page_permissions WHERE group_id IN (%s)`, placeholders)
	if permissionType != "" {
		query += ` AND permission_type = ?`
		args = append(args, permissionType)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("counting page permissions: %w", err)
	}
	return n > 0, nil
}
