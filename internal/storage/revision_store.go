package storage

import (
	"context"
	"time"
)

// Revision statuses.
const (
	RevisionDraft        = "draft"
	RevisionInModeration = "in_moderation"
	RevisionApproved     = "approved"
	RevisionRejected     = "rejected"
)

// Revision is an immutable snapshot of a page's content at submission time.
// Only the status column changes after creation.
type Revision struct {
	ID          string    `json:"id"`
	PageID      string    `json:"page_id"`
	SubmittedBy string    `json:"submitted_by"`
	Status      string    `json:"status"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RevisionStore defines the interface for page revisions.
type RevisionStore interface {
	// CreateRevision inserts a new revision.
	CreateRevision(ctx context.Context, r Revision) error
	// GetRevision returns the revision with the given ID, or ErrNotFound.
	GetRevision(ctx context.Context, id string) (*Revision, error)
	// UpdateStatus sets the revision's status. Returns ErrNotFound if the
	// revision does not exist.
	UpdateStatus(ctx context.Context, id, status string) error
	// ListRevisionsForPage returns a page's revisions, newest first.
	ListRevisionsForPage(ctx context.Context, pageID string) ([]Revision, error)
}
