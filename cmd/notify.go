package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/pagedesk/internal/config"
	"github.com/shaharia-lab/pagedesk/internal/notification"
	"github.com/shaharia-lab/pagedesk/internal/storage"
)

// NewNotifyCmd returns the "notify" subcommand that dispatches the
// notification for a revision once and exits. Useful for re-sending after a
// mail provider outage.
func NewNotifyCmd(cfg *config.AppConfig) *cobra.Command {
	var revisionID string
	var kind string
	var excludedUser string

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send the moderation notification for a revision",
		Long:  "Resolve the recipients for a revision and deliver the moderation email, without starting the server.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runNotify(cfg, revisionID, kind, excludedUser)
		},
	}

	cmd.Flags().StringVar(&revisionID, "revision", "", "Revision ID to notify about (required)")
	cmd.Flags().StringVar(&kind, "kind", "submitted", "Notification kind: submitted, approved or rejected")
	cmd.Flags().StringVar(&excludedUser, "excluded-user", "", "User ID to exclude from the recipients")
	_ = cmd.MarkFlagRequired("revision")

	return cmd
}

func runNotify(cfg *config.AppConfig, revisionID, kind, excludedUser string) error {
	if !notification.Kind(kind).Valid() {
		return fmt.Errorf("unknown kind %q: must be submitted, approved or rejected", kind)
	}

	sysLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	db, _, err := storage.NewSQLiteDB(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	deps, err := buildNotificationStack(db, cfg, sysLogger)
	if err != nil {
		return err
	}

	allSent, err := deps.dispatcher.Dispatch(context.Background(), revisionID, notification.Kind(kind), excludedUser)
	if err != nil {
		return fmt.Errorf("dispatching notification: %w", err)
	}
	if !allSent {
		return fmt.Errorf("some notifications were not delivered; check the logs")
	}

	fmt.Println("All notifications delivered.")
	return nil
}
