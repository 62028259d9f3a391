package notification_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/pagedesk/internal/i18n"
	"github.com/shaharia-lab/pagedesk/internal/notification"
	"github.com/shaharia-lab/pagedesk/internal/storage"
)

func newRenderer(t *testing.T) *notification.Renderer {
	t.Helper()
	translator, err := i18n.Load()
	require.NoError(t, err)
	r, err := notification.NewRenderer(translator)
	require.NoError(t, err)
	return r
}

func renderInput(kind notification.Kind, locale string) notification.RenderInput {
	now := time.Now().UTC()
	return notification.RenderInput{
		Kind: kind,
		Revision: &storage.Revision{
			ID: "rev-1", PageID: "page-1", SubmittedBy: "u1",
			Status: storage.RevisionInModeration, CreatedAt: now, UpdatedAt: now,
		},
		Page:      &storage.Page{ID: "page-1", Title: "About <us>"},
		Recipient: storage.User{ID: "u2", Email: "mod@example.com", DisplayName: "Morgan"},
		Settings:  notification.SiteSettings{SiteName: "Pagedesk", BaseURL: "http://cms.example.com"},
		Locale:    locale,
	}
}

func TestRenderer_Subject(t *testing.T) {
	r := newRenderer(t)

	subject, err := r.Subject(renderInput(notification.KindSubmitted, "en"))
	require.NoError(t, err)
	assert.Equal(t, `The page "About <us>" has been submitted for moderation`, subject)
	assert.False(t, strings.HasSuffix(subject, "\n"))
}

func TestRenderer_Body(t *testing.T) {
	r := newRenderer(t)

	body, err := r.Body(renderInput(notification.KindRejected, "en"))
	require.NoError(t, err)
	assert.Contains(t, body, "Hello Morgan,")
	assert.Contains(t, body, `Your page "About <us>" has been rejected.`)
	assert.Contains(t, body, "http://cms.example.com/revisions/rev-1/edit")
	assert.Contains(t, body, "This is an automated message from Pagedesk.")
}

func TestRenderer_BodyFallsBackToEmailWithoutDisplayName(t *testing.T) {
	r := newRenderer(t)

	in := renderInput(notification.KindApproved, "en")
	in.Recipient.DisplayName = ""
	body, err := r.Body(in)
	require.NoError(t, err)
	assert.Contains(t, body, "Hello mod@example.com,")
}

func TestRenderer_HTMLBodyEscapes(t *testing.T) {
	r := newRenderer(t)

	html, err := r.HTMLBody(renderInput(notification.KindSubmitted, "en"))
	require.NoError(t, err)
	// html/template escapes the markup in the page title.
	assert.NotContains(t, html, "About <us>")
	assert.Contains(t, html, "&lt;us&gt;")
}

func TestRenderer_Localized(t *testing.T) {
	r := newRenderer(t)

	body, err := r.Body(renderInput(notification.KindApproved, "pt-BR"))
	require.NoError(t, err)
	assert.Contains(t, body, "Olá Morgan,")
	assert.Contains(t, body, `Sua página "About <us>" foi aprovada para publicação.`)
}
