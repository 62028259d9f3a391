package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/pagedesk/internal/notification"
	"github.com/shaharia-lab/pagedesk/internal/service"
	"github.com/shaharia-lab/pagedesk/internal/storage"
)

// --- stubs ---

type dispatchCall struct {
	revisionID string
	kind       notification.Kind
	excluded   string
}

type stubNotifier struct {
	calls []dispatchCall
	ok    bool
	err   error
}

func (n *stubNotifier) Dispatch(_ context.Context, revisionID string, kind notification.Kind, excludedUserID string) (bool, error) {
	n.calls = append(n.calls, dispatchCall{revisionID, kind, excludedUserID})
	return n.ok, n.err
}

type stubPublisher struct {
	events []string
}

func (p *stubPublisher) Publish(eventType string, _ map[string]string) {
	p.events = append(p.events, eventType)
}

// --- fixture ---

type workflowFixture struct {
	users     *storage.SQLiteUserStore
	pages     *storage.SQLitePageStore
	revisions *storage.SQLiteRevisionStore
	notifier  *stubNotifier
	publisher *stubPublisher
	svc       service.WorkflowService
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()
	db, _, err := storage.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &workflowFixture{
		users:     storage.NewSQLiteUserStore(db),
		pages:     storage.NewSQLitePageStore(db),
		revisions: storage.NewSQLiteRevisionStore(db),
		notifier:  &stubNotifier{ok: true},
		publisher: &stubPublisher{},
	}
	f.svc = service.NewWorkflowService(
		f.revisions, f.pages, f.users, f.notifier, f.publisher,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	ctx := context.Background()
	require.NoError(t, f.users.CreateUser(ctx, storage.User{
		ID: "author", Email: "author@example.com", IsActive: true, CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, f.users.CreateUser(ctx, storage.User{
		ID: "mod", Email: "mod@example.com", IsActive: true, CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, f.pages.CreatePage(ctx, storage.Page{
		ID: "p1", Title: "Home", Slug: "home", CreatedAt: time.Now().UTC(),
	}))
	return f
}

// --- tests ---

func TestSubmitForModeration(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	rev, err := f.svc.SubmitForModeration(ctx, "p1", "author", `{"title":"Home"}`)
	require.NoError(t, err)
	assert.Equal(t, storage.RevisionInModeration, rev.Status)
	assert.Equal(t, "author", rev.SubmittedBy)

	stored, err := f.revisions.GetRevision(ctx, rev.ID)
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Home"}`, stored.Content)

	assert.Equal(t, []string{"revision.submitted"}, f.publisher.events)
	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, dispatchCall{rev.ID, notification.KindSubmitted, "author"}, f.notifier.calls[0])
}

func TestSubmitForModeration_UnknownPage(t *testing.T) {
	f := newWorkflowFixture(t)

	_, err := f.svc.SubmitForModeration(context.Background(), "nope", "author", "{}")
	var nf *service.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "page", nf.Resource)
	assert.Empty(t, f.notifier.calls)
}

func TestSubmitForModeration_UnknownUser(t *testing.T) {
	f := newWorkflowFixture(t)

	_, err := f.svc.SubmitForModeration(context.Background(), "p1", "ghost", "{}")
	var nf *service.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "user", nf.Resource)
}

func TestApprove(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	rev, err := f.svc.SubmitForModeration(ctx, "p1", "author", "{}")
	require.NoError(t, err)

	require.NoError(t, f.svc.Approve(ctx, rev.ID, "mod"))

	stored, err := f.revisions.GetRevision(ctx, rev.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.RevisionApproved, stored.Status)

	assert.Equal(t, []string{"revision.submitted", "revision.approved"}, f.publisher.events)
	require.Len(t, f.notifier.calls, 2)
	assert.Equal(t, dispatchCall{rev.ID, notification.KindApproved, "mod"}, f.notifier.calls[1])
}

func TestReject(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	rev, err := f.svc.SubmitForModeration(ctx, "p1", "author", "{}")
	require.NoError(t, err)

	require.NoError(t, f.svc.Reject(ctx, rev.ID, "mod"))

	stored, err := f.revisions.GetRevision(ctx, rev.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.RevisionRejected, stored.Status)
	assert.Equal(t, dispatchCall{rev.ID, notification.KindRejected, "mod"}, f.notifier.calls[1])
}

func TestApprove_InvalidTransitions(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	t.Run("missing revision", func(t *testing.T) {
		err := f.svc.Approve(ctx, "nope", "mod")
		var nf *service.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "revision", nf.Resource)
	})

	t.Run("already approved", func(t *testing.T) {
		rev, err := f.svc.SubmitForModeration(ctx, "p1", "author", "{}")
		require.NoError(t, err)
		require.NoError(t, f.svc.Approve(ctx, rev.ID, "mod"))

		err = f.svc.Approve(ctx, rev.ID, "mod")
		var ve *service.ValidationError
		require.ErrorAs(t, err, &ve)
	})
}

func TestWorkflow_NotifierProblemsDoNotFailOperation(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	t.Run("partial delivery", func(t *testing.T) {
		f.notifier.ok = false
		_, err := f.svc.SubmitForModeration(ctx, "p1", "author", "{}")
		assert.NoError(t, err)
	})

	t.Run("dispatch error", func(t *testing.T) {
		f.notifier.err = assert.AnError
		_, err := f.svc.SubmitForModeration(ctx, "p1", "author", "{}")
		assert.NoError(t, err)
	})
}
