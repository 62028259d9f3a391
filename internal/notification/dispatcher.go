package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaharia-lab/pagedesk/internal/storage"
)

// publishPermission is the permission type that selects moderators for
// "submitted" notifications.
const publishPermission = "publish"

// RecipientResolver computes the set of users holding a page permission.
type RecipientResolver interface {
	UsersWithPagePermission(ctx context.Context, pageID, permissionType string, includeSuperusers bool) ([]storage.User, error)
}

// UserDirectory is the subset of the user store the dispatcher needs.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (*storage.User, error)
	GetProfile(ctx context.Context, userID string) (*storage.UserProfile, error)
}

// PageLookup loads pages for template context.
type PageLookup interface {
	GetPage(ctx context.Context, id string) (*storage.Page, error)
}

// Dispatcher fans out moderation emails for a revision event. Sends happen
// strictly sequentially, one attempt per recipient, and individual failures
// never abort the loop.
type Dispatcher struct {
	revisions storage.RevisionStore
	pages     PageLookup
	users     UserDirectory
	resolver  RecipientResolver
	provider  Provider
	renderer  *Renderer
	store     storage.NotificationStore
	logger    *slog.Logger
	cfg       Config
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(
	revisions storage.RevisionStore,
	pages PageLookup,
	users UserDirectory,
	resolver RecipientResolver,
	provider Provider,
	renderer *Renderer,
	store storage.NotificationStore,
	logger *slog.Logger,
	cfg Config,
) *Dispatcher {
	return &Dispatcher{
		revisions: revisions,
		pages:     pages,
		users:     users,
		resolver:  resolver,
		provider:  provider,
		renderer:  renderer,
		store:     store,
		logger:    logger,
		cfg:       cfg,
	}
}

// recipient pairs a user with the locale their email should be rendered in.
type recipient struct {
	user   storage.User
	locale string
}

// Dispatch sends the notification for a revision event to every eligible
// recipient and reports aggregate success: true iff every filtered
// recipient's email was delivered.
//
// A missing revision is reported as storage.ErrNotFound. An unrecognized
// kind returns (false, nil) without touching the resolver, renderer, or
// transport. Per-recipient render/send failures are logged and surface only
// through the aggregate result.
func (d *Dispatcher) Dispatch(ctx context.Context, revisionID string, kind Kind, excludedUserID string) (bool, error) {
	rev, err := d.revisions.GetRevision(ctx, revisionID)
	if err != nil {
		return false, fmt.Errorf("loading revision %q: %w", revisionID, err)
	}

	var candidates []storage.User
	switch kind {
	case KindSubmitted:
		candidates, err = d.resolver.UsersWithPagePermission(ctx, rev.PageID, publishPermission, d.cfg.IncludeSuperusers)
		if err != nil {
			return false, fmt.Errorf("resolving recipients: %w", err)
		}
	case KindApproved, KindRejected:
		submitter, err := d.users.GetUser(ctx, rev.SubmittedBy)
		if err != nil {
			return false, fmt.Errorf("loading submitter %q: %w", rev.SubmittedBy, err)
		}
		candidates = []storage.User{*submitter}
	default:
		return false, nil
	}

	recipients, err := d.filterRecipients(ctx, candidates, kind, excludedUserID)
	if err != nil {
		return false, err
	}

	// Nothing to send is not a failure.
	if len(recipients) == 0 {
		return true, nil
	}

	page, err := d.pages.GetPage(ctx, rev.PageID)
	if err != nil {
		return false, fmt.Errorf("loading page %q: %w", rev.PageID, err)
	}

	sent := 0
	for _, rcpt := range recipients {
		subject, err := d.sendOne(ctx, kind, rev, page, rcpt)
		if err != nil {
			d.logger.Error("failed to send notification email",
				slog.String("kind", string(kind)),
				slog.String("recipient", rcpt.user.Email),
				slog.String("subject", subject),
				slog.Any("error", err),
			)
			notificationsFailed.WithLabelValues(string(kind)).Inc()
			d.logDelivery(kind, rcpt.user.Email, subject, err)
			continue
		}
		sent++
		notificationsSent.WithLabelValues(string(kind)).Inc()
		d.logDelivery(kind, rcpt.user.Email, subject, nil)
	}

	return sent == len(recipients), nil
}

// filterRecipients keeps candidates with a usable email address, excluding
// the event actor and anyone whose profile opts out of this kind.
func (d *Dispatcher) filterRecipients(ctx context.Context, candidates []storage.User, kind Kind, excludedUserID string) ([]recipient, error) {
	var recipients []recipient
	for _, u := range candidates {
		if u.Email == "" || u.ID == excludedUserID {
			continue
		}
		profile, err := d.users.GetProfile(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("loading profile of %q: %w", u.ID, err)
		}
		if !profile.NotificationsEnabled(string(kind)) {
			continue
		}
		recipients = append(recipients, recipient{user: u, locale: profile.PreferredLanguage})
	}
	return recipients, nil
}

// sendOne renders and delivers a single recipient's email. The returned
// subject is valid even on send failure so callers can log it.
func (d *Dispatcher) sendOne(ctx context.Context, kind Kind, rev *storage.Revision, page *storage.Page, rcpt recipient) (string, error) {
	in := RenderInput{
		Kind:      kind,
		Revision:  rev,
		Page:      page,
		Recipient: rcpt.user,
		Settings:  SiteSettings{SiteName: d.cfg.SiteName, BaseURL: d.cfg.BaseURL},
		Locale:    rcpt.locale,
	}

	subject, err := d.renderer.Subject(in)
	if err != nil {
		return "", fmt.Errorf("rendering subject: %w", err)
	}
	body, err := d.renderer.Body(in)
	if err != nil {
		return subject, fmt.Errorf("rendering body: %w", err)
	}

	msg := Message{
		Subject: subject,
		Body:    body,
		From:    d.cfg.Sender(),
		To:      []string{rcpt.user.Email},
		Headers: map[string]string{"Auto-Submitted": "auto-generated"},
	}

	if d.cfg.UseHTML {
		html, err := d.renderer.HTMLBody(in)
		if err != nil {
			return subject, fmt.Errorf("rendering html body: %w", err)
		}
		msg.HTMLBody = html
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.sendTimeout())
	defer cancel()

	if err := d.provider.Send(sendCtx, msg); err != nil {
		return subject, fmt.Errorf("sending to %q: %w", rcpt.user.Email, err)
	}
	return subject, nil
}

// logDelivery records the delivery attempt in the notification log. Log
// store failures must not affect the dispatch outcome.
func (d *Dispatcher) logDelivery(kind Kind, email, subject string, sendErr error) {
	entry := storage.NotificationLogEntry{
		Kind:      string(kind),
		Recipient: email,
		Provider:  d.provider.Name(),
		Subject:   subject,
		Status:    "sent",
		CreatedAt: time.Now().UTC(),
	}
	if sendErr != nil {
		entry.Status = "failed"
		entry.ErrorMsg = sendErr.Error()
	}

	if err := d.store.LogNotification(context.Background(), entry); err != nil {
		d.logger.Error("failed to record notification delivery",
			slog.String("kind", string(kind)),
			slog.String("recipient", email),
			slog.Any("error", err),
		)
	}
}
