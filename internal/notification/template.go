package notification

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"golang.org/x/text/message"

	"github.com/shaharia-lab/pagedesk/internal/i18n"
	"github.com/shaharia-lab/pagedesk/internal/storage"
)

// Template keys are derived from the kind: <kind>_subject.txt, <kind>.txt,
// and <kind>.html.
//
//go:embed templates/*.txt templates/*.html
var templateFS embed.FS

// SiteSettings is the site-level context exposed to notification templates.
type SiteSettings struct {
	SiteName string
	BaseURL  string
}

// RenderInput carries everything one recipient's rendering needs. Locale is
// the recipient's preferred language; it only affects this render call.
type RenderInput struct {
	Kind      Kind
	Revision  *storage.Revision
	Page      *storage.Page
	Recipient storage.User
	Settings  SiteSettings
	Locale    string
}

// templateData is the dot value passed to the templates.
type templateData struct {
	Revision  *storage.Revision
	Page      *storage.Page
	Recipient storage.User
	Settings  SiteSettings

	printer *message.Printer
}

// T translates a message key with the recipient's locale.
func (d templateData) T(key string, args ...any) string {
	return d.printer.Sprintf(key, args...)
}

// RecipientName returns the recipient's display name, falling back to the
// email address.
func (d templateData) RecipientName() string {
	if d.Recipient.DisplayName != "" {
		return d.Recipient.DisplayName
	}
	return d.Recipient.Email
}

// Renderer renders subject, text body, and HTML body for a notification kind
// in a given locale.
type Renderer struct {
	text       *texttemplate.Template
	html       *htmltemplate.Template
	translator *i18n.Translator
}

// NewRenderer parses the embedded notification templates.
func NewRenderer(translator *i18n.Translator) (*Renderer, error) {
	text, err := texttemplate.ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("parsing text templates: %w", err)
	}
	html, err := htmltemplate.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing html templates: %w", err)
	}
	return &Renderer{text: text, html: html, translator: translator}, nil
}

// Subject renders the subject line for the input, trimmed of surrounding
// whitespace.
func (r *Renderer) Subject(in RenderInput) (string, error) {
	out, err := r.renderText(fmt.Sprintf("%s_subject.txt", in.Kind), in)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Body renders the plain-text body for the input, trimmed of surrounding
// whitespace.
func (r *Renderer) Body(in RenderInput) (string, error) {
	out, err := r.renderText(fmt.Sprintf("%s.txt", in.Kind), in)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// HTMLBody renders the HTML alternative body for the input.
func (r *Renderer) HTMLBody(in RenderInput) (string, error) {
	var buf bytes.Buffer
	name := fmt.Sprintf("%s.html", in.Kind)
	if err := r.html.ExecuteTemplate(&buf, name, r.data(in)); err != nil {
		return "", fmt.Errorf("rendering template %s: %w", name, err)
	}
	return buf.String(), nil
}

func (r *Renderer) renderText(name string, in RenderInput) (string, error) {
	var buf bytes.Buffer
	if err := r.text.ExecuteTemplate(&buf, name, r.data(in)); err != nil {
		return "", fmt.Errorf("rendering template %s: %w", name, err)
	}
	return buf.String(), nil
}

func (r *Renderer) data(in RenderInput) templateData {
	return templateData{
		Revision:  in.Revision,
		Page:      in.Page,
		Recipient: in.Recipient,
		Settings:  in.Settings,
		printer:   r.translator.Printer(in.Locale),
	}
}
