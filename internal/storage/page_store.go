package storage

import (
	"context"
	"time"
)

// Page is a node in the hierarchical content tree. ParentID is empty for
// root pages.
type Page struct {
	ID        string    `json:"id"`
	ParentID  string    `json:"parent_id,omitempty"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// GroupPagePermission associates a group with a permission type on a page.
// The permission applies to the page and all of its descendants.
type GroupPagePermission struct {
	GroupID        int64  `json:"group_id"`
	PageID         string `json:"page_id"`
	PermissionType string `json:"permission_type"`
}

// PageStore defines the interface for the content tree.
type PageStore interface {
	// CreatePage inserts a new page.
	CreatePage(ctx context.Context, p Page) error
	// GetPage returns the page with the given ID, or ErrNotFound.
	GetPage(ctx context.Context, id string) (*Page, error)
	// ListPages returns all pages ordered by creation time.
	ListPages(ctx context.Context) ([]Page, error)
	// AncestorsOf returns the IDs of the page's ancestors, root first,
	// excluding the page itself. A root page yields an empty slice.
	AncestorsOf(ctx context.Context, pageID string) ([]string, error)
}

// GrantStore defines the interface for group page permissions.
type GrantStore interface {
	// GrantPagePermission grants a permission type on a page to a group.
	GrantPagePermission(ctx context.Context, groupID int64, pageID, permissionType string) error
	// GrantsFor returns all grants of the given permission type on any of the
	// given pages. An empty page list yields an empty result.
	GrantsFor(ctx context.Context, permissionType string, pageIDs []string) ([]GroupPagePermission, error)
	// HasGrantsForGroups reports whether any of the given groups holds any
	// page permission at all.
	HasGrantsForGroups(ctx context.Context, groupIDs []int64) (bool, error)
	// HasGrantsOfType reports whether any of the given groups holds a grant
	// of the given permission type on any page.
	HasGrantsOfType(ctx context.Context, groupIDs []int64, permissionType string) (bool, error)
}
