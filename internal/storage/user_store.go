package storage

import (
	"context"
	"time"
)

// User is an identity from the user directory. Read-only from the
// notification core's perspective.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserProfile holds per-user notification preferences.
type UserProfile struct {
	UserID                 string `json:"user_id"`
	PreferredLanguage      string `json:"preferred_language"`
	SubmittedNotifications bool   `json:"submitted_notifications"`
	ApprovedNotifications  bool   `json:"approved_notifications"`
	RejectedNotifications  bool   `json:"rejected_notifications"`
}

// NotificationsEnabled reports whether the profile has notifications for the
// given kind enabled. Unknown kinds are treated as disabled.
func (p *UserProfile) NotificationsEnabled(kind string) bool {
	switch kind {
	case "submitted":
		return p.SubmittedNotifications
	case "approved":
		return p.ApprovedNotifications
	case "rejected":
		return p.RejectedNotifications
	}
	return false
}

// defaultProfile is used for users without a stored profile row: all
// notification kinds enabled, default language.
func defaultProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:                 userID,
		PreferredLanguage:      "en",
		SubmittedNotifications: true,
		ApprovedNotifications:  true,
		RejectedNotifications:  true,
	}
}

// UserStore defines the interface for the user directory.
type UserStore interface {
	// CreateUser inserts a new user.
	CreateUser(ctx context.Context, u User) error
	// GetUser returns the user with the given ID, or ErrNotFound.
	GetUser(ctx context.Context, id string) (*User, error)
	// GetProfile returns the user's notification profile. Users without a
	// stored profile get the default (all kinds enabled, language "en").
	GetProfile(ctx context.Context, userID string) (*UserProfile, error)
	// SaveProfile inserts or replaces a user's notification profile.
	SaveProfile(ctx context.Context, p UserProfile) error
	// CreateGroup inserts a new group and returns its ID.
	CreateGroup(ctx context.Context, name string) (int64, error)
	// AddUserToGroup adds a user to a group. Adding twice is a no-op.
	AddUserToGroup(ctx context.Context, userID string, groupID int64) error
	// GroupsOfUser returns the IDs of all groups the user belongs to.
	GroupsOfUser(ctx context.Context, userID string) ([]int64, error)
	// ActiveUsersInGroups returns all active users belonging to at least one
	// of the given groups. An empty group list yields an empty result.
	ActiveUsersInGroups(ctx context.Context, groupIDs []int64) ([]User, error)
	// ActiveSuperusers returns all active superusers.
	ActiveSuperusers(ctx context.Context) ([]User, error)
}
