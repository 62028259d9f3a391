// Package notification dispatches moderation emails for page revision
// events: it resolves the recipient set, applies per-user opt-out
// preferences, renders localized messages, and delivers them one by one,
// reporting only aggregate success.
package notification

import "context"

// Message is the content to be delivered by a Provider.
type Message struct {
	Subject  string
	Body     string
	HTMLBody string
	From     string
	To       []string
	Headers  map[string]string
}

// Provider is the interface for notification delivery backends.
type Provider interface {
	// Name returns the provider identifier (e.g. "smtp").
	Name() string
	// Send delivers the message using the provider's transport.
	Send(ctx context.Context, msg Message) error
}
