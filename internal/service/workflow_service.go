// Package service implements the moderation workflow on top of the stores:
// revisions are submitted, approved, or rejected, and each transition
// triggers the matching notification dispatch and an application event.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaharia-lab/pagedesk/internal/eventbus"
	"github.com/shaharia-lab/pagedesk/internal/notification"
	"github.com/shaharia-lab/pagedesk/internal/storage"
)

// Notifier dispatches a notification for a revision event. The bool is the
// aggregate delivery result: true iff every filtered recipient was reached.
type Notifier interface {
	Dispatch(ctx context.Context, revisionID string, kind notification.Kind, excludedUserID string) (bool, error)
}

// EventPublisher is the interface for publishing application events.
// The workflow uses it to emit events without depending on a concrete bus.
type EventPublisher interface {
	Publish(eventType string, payload map[string]string)
}

// WorkflowService manages the moderation lifecycle of page revisions.
type WorkflowService interface {
	// SubmitForModeration snapshots the page content as a new revision in
	// moderation and notifies the moderators.
	SubmitForModeration(ctx context.Context, pageID, actorID, content string) (*storage.Revision, error)
	// Approve marks a revision in moderation as approved and notifies the
	// submitter.
	Approve(ctx context.Context, revisionID, actorID string) error
	// Reject marks a revision in moderation as rejected and notifies the
	// submitter.
	Reject(ctx context.Context, revisionID, actorID string) error
}

// workflowServiceImpl implements WorkflowService.
type workflowServiceImpl struct {
	revisions storage.RevisionStore
	pages     storage.PageStore
	users     storage.UserStore
	notifier  Notifier
	events    EventPublisher
	logger    *slog.Logger
}

// NewWorkflowService creates a new WorkflowService.
func NewWorkflowService(
	revisions storage.RevisionStore,
	pages storage.PageStore,
	users storage.UserStore,
	notifier Notifier,
	events EventPublisher,
	logger *slog.Logger,
) WorkflowService {
	return &workflowServiceImpl{
		revisions: revisions,
		pages:     pages,
		users:     users,
		notifier:  notifier,
		events:    events,
		logger:    logger,
	}
}

// SubmitForModeration snapshots the page content as a new revision.
func (s *workflowServiceImpl) SubmitForModeration(ctx context.Context, pageID, actorID, content string) (*storage.Revision, error) {
	if _, err := s.pages.GetPage(ctx, pageID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &NotFoundError{Resource: "page", ID: pageID}
		}
		return nil, fmt.Errorf("loading page: %w", err)
	}
	if _, err := s.users.GetUser(ctx, actorID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &NotFoundError{Resource: "user", ID: actorID}
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if content == "" {
		content = "{}"
	}

	now := time.Now().UTC()
	rev := storage.Revision{
		ID:          uuid.NewString(),
		PageID:      pageID,
		SubmittedBy: actorID,
		Status:      storage.RevisionInModeration,
		Content:     content,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.revisions.CreateRevision(ctx, rev); err != nil {
		return nil, fmt.Errorf("creating revision: %w", err)
	}

	s.events.Publish(eventbus.EventRevisionSubmitted, map[string]string{
		"revision_id": rev.ID,
		"page_id":     pageID,
		"actor":       actorID,
	})
	s.notify(ctx, rev.ID, notification.KindSubmitted, actorID)

	return &rev, nil
}

// Approve marks a revision as approved.
func (s *workflowServiceImpl) Approve(ctx context.Context, revisionID, actorID string) error {
	return s.moderate(ctx, revisionID, actorID, storage.RevisionApproved,
		eventbus.EventRevisionApproved, notification.KindApproved)
}

// Reject marks a revision as rejected.
func (s *workflowServiceImpl) Reject(ctx context.Context, revisionID, actorID string) error {
	return s.moderate(ctx, revisionID, actorID, storage.RevisionRejected,
		eventbus.EventRevisionRejected, notification.KindRejected)
}

func (s *workflowServiceImpl) moderate(ctx context.Context, revisionID, actorID, status, eventType string, kind notification.Kind) error {
	rev, err := s.revisions.GetRevision(ctx, revisionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &NotFoundError{Resource: "revision", ID: revisionID}
		}
		return fmt.Errorf("loading revision: %w", err)
	}
	if rev.Status != storage.RevisionInModeration {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("revision is %s, not in moderation", rev.Status)}
	}

	if err := s.revisions.UpdateStatus(ctx, revisionID, status); err != nil {
		return fmt.Errorf("updating revision status: %w", err)
	}

	s.events.Publish(eventType, map[string]string{
		"revision_id": revisionID,
		"page_id":     rev.PageID,
		"actor":       actorID,
	})
	s.notify(ctx, revisionID, kind, actorID)

	return nil
}

// notify dispatches the notification for a completed transition. Delivery
// problems are logged; they never fail the workflow operation itself.
func (s *workflowServiceImpl) notify(ctx context.Context, revisionID string, kind notification.Kind, actorID string) {
	allSent, err := s.notifier.Dispatch(ctx, revisionID, kind, actorID)
	if err != nil {
		s.logger.Error("notification dispatch failed",
			slog.String("revision_id", revisionID),
			slog.String("kind", string(kind)),
			slog.Any("error", err),
		)
		return
	}
	if !allSent {
		s.logger.Warn("not all notification emails were delivered",
			slog.String("revision_id", revisionID),
			slog.String("kind", string(kind)),
		)
	}
}
