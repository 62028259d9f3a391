package api_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/pagedesk/internal/api"
	"github.com/shaharia-lab/pagedesk/internal/i18n"
	"github.com/shaharia-lab/pagedesk/internal/notification"
	"github.com/shaharia-lab/pagedesk/internal/permission"
	"github.com/shaharia-lab/pagedesk/internal/service"
	"github.com/shaharia-lab/pagedesk/internal/storage"
)

// recordingProvider captures outgoing messages instead of delivering them.
type recordingProvider struct {
	sent []notification.Message
}

func (p *recordingProvider) Name() string { return "recording" }

func (p *recordingProvider) Send(_ context.Context, msg notification.Message) error {
	p.sent = append(p.sent, msg)
	return nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, map[string]string) {}

// testHarness bundles the stores, stub provider and router used by every test.
type testHarness struct {
	users     *storage.SQLiteUserStore
	pages     *storage.SQLitePageStore
	revisions *storage.SQLiteRevisionStore
	provider  *recordingProvider
	router    chi.Router
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	db, _, err := storage.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	users := storage.NewSQLiteUserStore(db)
	pages := storage.NewSQLitePageStore(db)
	revisions := storage.NewSQLiteRevisionStore(db)
	notifLog := storage.NewSQLiteNotificationStore(db)
	provider := &recordingProvider{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	translator, err := i18n.Load()
	require.NoError(t, err)
	renderer, err := notification.NewRenderer(translator)
	require.NoError(t, err)

	resolver := permission.NewResolver(users, pages, pages)
	dispatcher := notification.NewDispatcher(
		revisions, pages, users, resolver,
		provider, renderer, notifLog, logger,
		notification.Config{IncludeSuperusers: true, SiteName: "Pagedesk", BaseURL: "http://cms.example.com"},
	)
	workflow := service.NewWorkflowService(revisions, pages, users, dispatcher, nopPublisher{}, logger)
	checker := permission.NewChecker(permission.NewPagePermissionPolicy(users, pages))

	srv := api.New(pages, users, revisions, notifLog, workflow, dispatcher, checker, logger)

	r := chi.NewRouter()
	srv.Mount(r)

	return &testHarness{
		users:     users,
		pages:     pages,
		revisions: revisions,
		provider:  provider,
		router:    r,
	}
}

func (h *testHarness) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *testHarness) request(method, path, userID, body string) *http.Request {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	return req
}

func (h *testHarness) addUser(t *testing.T, id, email string, active, super bool) {
	t.Helper()
	require.NoError(t, h.users.CreateUser(context.Background(), storage.User{
		ID: id, Email: email, DisplayName: id, IsActive: active, IsSuperuser: super,
		CreatedAt: time.Now().UTC(),
	}))
}

func (h *testHarness) addPage(t *testing.T, id, parentID, title string) {
	t.Helper()
	require.NoError(t, h.pages.CreatePage(context.Background(), storage.Page{
		ID: id, ParentID: parentID, Title: title, Slug: id, CreatedAt: time.Now().UTC(),
	}))
}

// seed creates a page tree, an author, a moderator holding publish on the
// root, and a superuser.
func (h *testHarness) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	h.addPage(t, "root", "", "Home")
	h.addPage(t, "child", "root", "News")

	h.addUser(t, "author", "author@example.com", true, false)
	h.addUser(t, "moderator", "moderator@example.com", true, false)
	h.addUser(t, "admin", "admin@example.com", true, true)

	g, err := h.users.CreateGroup(ctx, "publishers")
	require.NoError(t, err)
	require.NoError(t, h.users.AddUserToGroup(ctx, "moderator", g))
	require.NoError(t, h.pages.GrantPagePermission(ctx, g, "root", "publish"))
}

func (h *testHarness) submitRevision(t *testing.T, pageID, userID string) string {
	t.Helper()
	w := h.do(h.request(http.MethodPost, "/pages/"+pageID+"/revisions", userID, `{"content":"{}"}`))
	require.Equal(t, http.StatusCreated, w.Code)

	var rev storage.Revision
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rev))
	return rev.ID
}

// ---------- Pages ----------

func TestListPages_Empty(t *testing.T) {
	h := newHarness(t)

	w := h.do(h.request(http.MethodGet, "/pages", "", ""))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestGetPage(t *testing.T) {
	h := newHarness(t)
	h.seed(t)

	w := h.do(h.request(http.MethodGet, "/pages/child", "", ""))

	require.Equal(t, http.StatusOK, w.Code)
	var page storage.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, "News", page.Title)
	assert.Equal(t, "root", page.ParentID)
}

func TestGetPage_NotFound(t *testing.T) {
	h := newHarness(t)

	w := h.do(h.request(http.MethodGet, "/pages/nope", "", ""))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePage(t *testing.T) {
	h := newHarness(t)
	h.seed(t)

	w := h.do(h.request(http.MethodPost, "/pages", "admin", `{"parent_id":"root","title":"About","slug":"about"}`))

	require.Equal(t, http.StatusCreated, w.Code)
	var page storage.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.NotEmpty(t, page.ID)
	assert.Equal(t, "About", page.Title)
}

func TestCreatePage_RequiresPermission(t *testing.T) {
	h := newHarness(t)
	h.seed(t)

	w := h.do(h.request(http.MethodPost, "/pages", "author", `{"title":"About"}`))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreatePage_RequiresUser(t *testing.T) {
	h := newHarness(t)
	h.seed(t)

	w := h.do(h.request(http.MethodPost, "/pages", "", `{"title":"About"}`))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreatePage_UnknownParent(t *testing.T) {
	h := newHarness(t)
	h.seed(t)

	w := h.do(h.request(http.MethodPost, "/pages", "admin", `{"parent_id":"nope","title":"About"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIdentify_UnknownUser(t *testing.T) {
	h := newHarness(t)

	w := h.do(h.request(http.MethodGet, "/pages", "ghost", ""))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// ---------- Moderation workflow ----------

func TestSubmitRevision_NotifiesModerators(t *testing.T) {
	h := newHarness(t)
	h.seed(t)

	revID := h.submitRevision(t, "child", "author")
	assert.NotEmpty(t, revID)

	var recipients []string
	for _, m := range h.provider.sent {
		recipients = append(recipients, m.To...)
	}
	assert.ElementsMatch(t, []string{"moderator@example.com", "admin@example.com"}, recipients)
}

func TestSubmitRevision_RequiresUser(t *testing.T) {
	h := newHarness(t)
	h.seed(t)

	w := h.do(h.request(http.MethodPost, "/pages/child/revisions", "", `{"content":"{}"}`))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitRevision_UnknownPage(t *testing.T) {
	h := newHarness(t)
	h.seed(t)

	w := h.do(h.request(http.MethodPost, "/pages/nope/revisions", "author", `{"content":"{}"}`))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApproveRevision(t *testing.T) {
	h := newHarness(t)
	h.seed(t)
	revID := h.submitRevision(t, "child", "author")
	h.provider.sent = nil

	w := h.do(h.request(http.MethodPost, "/revisions/"+revID+"/approve", "moderator", ""))

	require.Equal(t, http.StatusOK, w.Code)
	rev, err := h.revisions.GetRevision(context.Background(), revID)
	require.NoError(t, err)
	assert.Equal(t, storage.RevisionApproved, rev.Status)

	require.Len(t, h.provider.sent, 1)
	assert.Equal(t, []string{"author@example.com"}, h.provider.sent[0].To)
}

func TestApproveRevision_RequiresPublish(t *testing.T) {
	h := newHarness(t)
	h.seed(t)
	revID := h.submitRevision(t, "child", "author")

	w := h.do(h.request(http.MethodPost, "/revisions/"+revID+"/approve", "author", ""))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestApproveRevision_Twice(t *testing.T) {
	h := newHarness(t)
	h.seed(t)
	revID := h.submitRevision(t, "child", "author")

	w := h.do(h.request(http.MethodPost, "/revisions/"+revID+"/approve", "moderator", ""))
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(h.request(http.MethodPost, "/revisions/"+revID+"/approve", "moderator", ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRejectRevision(t *testing.T) {
	h := newHarness(t)
	h.seed(t)
	revID := h.submitRevision(t, "child", "author")

	w := h.do(h.request(http.MethodPost, "/revisions/"+revID+"/reject", "moderator", ""))

	require.Equal(t, http.StatusOK, w.Code)
	rev, err := h.revisions.GetRevision(context.Background(), revID)
	require.NoError(t, err)
	assert.Equal(t, storage.RevisionRejected, rev.Status)
}

func TestListRevisions(t *testing.T) {
	h := newHarness(t)
	h.seed(t)
	h.submitRevision(t, "child", "author")

	w := h.do(h.request(http.MethodGet, "/pages/child/revisions", "", ""))

	require.Equal(t, http.StatusOK, w.Code)
	var revs []storage.Revision
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &revs))
	assert.Len(t, revs, 1)
}

// ---------- Notifications ----------

func TestNotificationLog(t *testing.T) {
	h := newHarness(t)
	h.seed(t)
	h.submitRevision(t, "child", "author")

	w := h.do(h.request(http.MethodGet, "/notifications/log", "moderator", ""))

	require.Equal(t, http.StatusOK, w.Code)
	var entries []storage.NotificationLogEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "sent", e.Status)
	}
}

func TestNotificationLog_RequiresPublish(t *testing.T) {
	h := newHarness(t)
	h.seed(t)

	w := h.do(h.request(http.MethodGet, "/notifications/log", "author", ""))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDispatchNotification(t *testing.T) {
	h := newHarness(t)
	h.seed(t)
	revID := h.submitRevision(t, "child", "author")
	h.provider.sent = nil

	w := h.do(h.request(http.MethodPost, "/notifications/dispatch", "admin",
		`{"revision_id":"`+revID+`","kind":"submitted","excluded_user_id":"author"}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"all_sent": true}`, w.Body.String())
	assert.Len(t, h.provider.sent, 2)
}

func TestDispatchNotification_UnknownRevision(t *testing.T) {
	h := newHarness(t)
	h.seed(t)

	w := h.do(h.request(http.MethodPost, "/notifications/dispatch", "admin",
		`{"revision_id":"nope","kind":"submitted"}`))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDispatchNotification_BadKind(t *testing.T) {
	h := newHarness(t)
	h.seed(t)

	w := h.do(h.request(http.MethodPost, "/notifications/dispatch", "admin",
		`{"revision_id":"r1","kind":"published"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
