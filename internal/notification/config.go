package notification

import "time"

// Kind is a category of revision lifecycle event. The kind selects both the
// recipient strategy and the template set.
type Kind string

// Known notification kinds.
const (
	KindSubmitted Kind = "submitted"
	KindApproved  Kind = "approved"
	KindRejected  Kind = "rejected"
)

// Valid reports whether the kind is one of the known notification kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindSubmitted, KindApproved, KindRejected:
		return true
	}
	return false
}

// fallbackFromAddress is used when neither a notification sender nor a
// site-wide default sender is configured.
const fallbackFromAddress = "webmaster@localhost"

// defaultSendTimeout bounds each individual SMTP delivery.
const defaultSendTimeout = 30 * time.Second

// SMTPConfig holds connection parameters for the SMTP provider.
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	Encryption string // "none", "starttls", "ssl_tls"
}

// Config holds dispatcher behavior settings.
type Config struct {
	// IncludeSuperusers adds active superusers to the recipients of
	// "submitted" notifications.
	IncludeSuperusers bool
	// UseHTML attaches an HTML alternative body to each email.
	UseHTML bool
	// FromAddress is the notification-specific sender address.
	FromAddress string
	// DefaultFromAddress is the site-wide default sender address.
	DefaultFromAddress string
	// SiteName and BaseURL are exposed to notification templates.
	SiteName string
	BaseURL  string
	// SendTimeout bounds each individual delivery. Zero means the default
	// of 30 seconds.
	SendTimeout time.Duration
}

// Sender resolves the From address: notification sender first, then the
// site-wide default, then the hardcoded fallback.
func (c Config) Sender() string {
	if c.FromAddress != "" {
		return c.FromAddress
	}
	if c.DefaultFromAddress != "" {
		return c.DefaultFromAddress
	}
	return fallbackFromAddress
}

func (c Config) sendTimeout() time.Duration {
	if c.SendTimeout > 0 {
		return c.SendTimeout
	}
	return defaultSendTimeout
}
