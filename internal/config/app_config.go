// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds all application-level configuration loaded from environment variables.
type AppConfig struct {
	// Port is the HTTP server port. Defaults to 8960.
	Port int `envconfig:"PORT" default:"8960"`

	// DataDir is the root data directory. Defaults to ~/.pagedesk.
	DataDir string `envconfig:"PAGEDESK_DATA_DIR"`

	// LogLevel sets the minimum log level (debug, info, warn, error). Defaults to info.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// SiteName is used in notification templates. Defaults to "Pagedesk".
	SiteName string `envconfig:"SITE_NAME" default:"Pagedesk"`

	// BaseURL is the externally reachable address of the admin UI, used to
	// build links in notification emails.
	BaseURL string `envconfig:"BASE_URL" default:"http://localhost:8960"`

	// NotificationFromEmail is the sender address for moderation emails.
	// When empty, DefaultFromEmail is used, then a hardcoded fallback.
	NotificationFromEmail string `envconfig:"NOTIFICATION_FROM_EMAIL"`

	// DefaultFromEmail is the site-wide default sender address.
	DefaultFromEmail string `envconfig:"DEFAULT_FROM_EMAIL"`

	// NotificationIncludeSuperusers controls whether superusers receive
	// "submitted for moderation" emails in addition to users holding a
	// publish permission. Defaults to true.
	NotificationIncludeSuperusers bool `envconfig:"NOTIFICATION_INCLUDE_SUPERUSERS" default:"true"`

	// NotificationUseHTML enables an HTML alternative body on moderation
	// emails. Defaults to false.
	NotificationUseHTML bool `envconfig:"NOTIFICATION_USE_HTML" default:"false"`

	// SMTP connection settings.
	SMTPHost       string `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort       int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername   string `envconfig:"SMTP_USERNAME"`
	SMTPPassword   string `envconfig:"SMTP_PASSWORD"`
	SMTPEncryption string `envconfig:"SMTP_ENCRYPTION" default:"starttls"` // "none", "starttls", "ssl_tls"
}

// Load reads AppConfig from environment variables using envconfig.
// DataDir defaults to ~/.pagedesk if not set.
func Load() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".pagedesk")
	}
	return &c, nil
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogDir returns the path to the log directory.
func (c *AppConfig) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// DBPath returns the path to the SQLite database file.
func (c *AppConfig) DBPath() string {
	return filepath.Join(c.DataDir, "pagedesk.db")
}
