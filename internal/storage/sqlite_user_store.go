package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SQLiteUserStore implements UserStore backed by SQLite.
type SQLiteUserStore struct {
	db *sql.DB
}

// NewSQLiteUserStore returns a new SQLiteUserStore.
func NewSQLiteUserStore(db *sql.DB) *SQLiteUserStore {
	return &SQLiteUserStore{db: db}
}

// CreateUser inserts a new user row.
func (s *SQLiteUserStore) CreateUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, is_active, is_superuser, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.DisplayName, u.IsActive, u.IsSuperuser, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// GetUser returns the user with the given ID, or ErrNotFound.
func (s *SQLiteUserStore) GetUser(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, is_active, is_superuser, created_at
		FROM users WHERE id = ?`, id)

	var u User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.IsActive, &u.IsSuperuser, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return &u, nil
}

// GetProfile returns the user's notification profile, falling back to the
// default profile when no row exists.
func (s *SQLiteUserStore) GetProfile(ctx context.Context, userID string) (*UserProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, preferred_language, submitted_notifications,
		       approved_notifications, rejected_notifications
		FROM user_profiles WHERE user_id = ?`, userID)

	var p UserProfile
	err := row.Scan(&p.UserID, &p.PreferredLanguage, &p.SubmittedNotifications,
		&p.ApprovedNotifications, &p.RejectedNotifications)
	if errors.Is(err, sql.ErrNoRows) {
		return defaultProfile(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user profile: %w", err)
	}
	return &p, nil
}

// SaveProfile inserts or replaces the user's notification profile.
func (s *SQLiteUserStore) SaveProfile(ctx context.Context, p UserProfile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO user_profiles
		(user_id, preferred_language, submitted_notifications, approved_notifications, rejected_notifications)
		VALUES (?, ?, ?, ?, ?)`,
		p.UserID, p.PreferredLanguage, p.SubmittedNotifications,
		p.ApprovedNotifications, p.RejectedNotifications,
	)
	if err != nil {
		return fmt.Errorf("saving user profile: %w", err)
	}
	return nil
}

// CreateGroup inserts a new group and returns its ID.
func (s *SQLiteUserStore) CreateGroup(ctx context.Context, name string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO groups (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("inserting group: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading group id: %w", err)
	}
	return id, nil
}

// AddUserToGroup adds a user to a group.
func (s *SQLiteUserStore) AddUserToGroup(ctx context.Context, userID string, groupID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO group_memberships (user_id, group_id) VALUES (?, ?)`,
		userID, groupID,
	)
	if err != nil {
		return fmt.Errorf("inserting group membership: %w", err)
	}
	return nil
}

// GroupsOfUser returns the IDs of all groups the user belongs to.
func (s *SQLiteUserStore) GroupsOfUser(ctx context.Context, userID string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT group_id FROM group_memberships WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying group memberships: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning group id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating group memberships: %w", err)
	}
	return ids, nil
}

// ActiveUsersInGroups returns all active users belonging to at least one of
// the given groups.
func (s *SQLiteUserStore) ActiveUsersInGroups(ctx context.Context, groupIDs []int64) ([]User, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(groupIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(groupIDs))
	for i, id := range groupIDs {
		args[i] = id
	}

	//nolint:gosec // placeholders contains only "?" tokens
	query := fmt.Sprintf(`
		SELECT DISTINCT u.id, u.email, u.display_name, u.is_active, u.is_superuser, u.created_at
		FROM users u
		JOIN group_memberships gm ON gm.user_id = u.id
		WHERE u.is_active = 1 AND gm.group_id IN (%s)`, placeholders)

	return s.queryUsers(ctx, query, args...)
}

// ActiveSuperusers returns all active superusers.
func (s *SQLiteUserStore) ActiveSuperusers(ctx context.Context) ([]User, error) {
	return s.queryUsers(ctx, `
		SELECT id, email, display_name, is_active, is_superuser, created_at
		FROM users WHERE is_active = 1 AND is_superuser = 1`)
}

func (s *SQLiteUserStore) queryUsers(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.DisplayName, &u.IsActive, &u.IsSuperuser, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}
	return users, nil
}
