package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/pagedesk/internal/api"
	"github.com/shaharia-lab/pagedesk/internal/build"
	"github.com/shaharia-lab/pagedesk/internal/config"
	"github.com/shaharia-lab/pagedesk/internal/eventbus"
	"github.com/shaharia-lab/pagedesk/internal/i18n"
	"github.com/shaharia-lab/pagedesk/internal/logger"
	"github.com/shaharia-lab/pagedesk/internal/notification"
	"github.com/shaharia-lab/pagedesk/internal/permission"
	"github.com/shaharia-lab/pagedesk/internal/server"
	"github.com/shaharia-lab/pagedesk/internal/service"
	"github.com/shaharia-lab/pagedesk/internal/storage"
)

// NewServeCmd returns the "serve" subcommand that starts the HTTP server.
func NewServeCmd(cfg *config.AppConfig) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the pagedesk API server",
		Long:  "Start the HTTP server exposing the page tree, the moderation workflow and the notification log.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// CLI flags override env config.
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", cfg.Port, "HTTP server port (overrides PORT env var)")

	return cmd
}

func runServe(cfg *config.AppConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := os.MkdirAll(cfg.LogDir(), 0750); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	sysLogger, err := logger.NewSystemLogger(cfg.LogDir(), cfg.SlogLevel())
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	sysLogger.Info("pagedesk starting",
		slog.Int("port", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
		slog.String("version", build.Version),
		slog.String("commit", build.CommitSHA),
		slog.String("build_date", build.BuildDate),
	)

	db, created, err := storage.NewSQLiteDB(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()
	if created {
		sysLogger.Info("created new database", slog.String("path", cfg.DBPath()))
	}

	deps, err := buildNotificationStack(db, cfg, sysLogger)
	if err != nil {
		return err
	}

	bus := eventbus.New(0, sysLogger)
	defer bus.Close()
	bus.Subscribe(func(e eventbus.Event) {
		attrs := make([]any, 0, 2+2*len(e.Payload))
		attrs = append(attrs, slog.String("event", e.Type), slog.Time("at", e.Timestamp))
		for k, v := range e.Payload {
			attrs = append(attrs, slog.String(k, v))
		}
		sysLogger.Info("workflow event", attrs...)
	})

	workflow := service.NewWorkflowService(deps.revisions, deps.pages, deps.users, deps.dispatcher, bus, sysLogger)
	checker := permission.NewChecker(permission.NewPagePermissionPolicy(deps.users, deps.pages))

	apiSrv := api.New(deps.pages, deps.users, deps.revisions, deps.notifLog, workflow, deps.dispatcher, checker, sysLogger)
	srv := server.New(apiSrv, cfg.Port, sysLogger)

	sysLogger.Info("server ready", slog.String("url", fmt.Sprintf("http://localhost:%d", cfg.Port)))

	return srv.Run(ctx)
}

// notificationStack bundles the stores and dispatcher shared by the serve and
// notify commands.
type notificationStack struct {
	users      *storage.SQLiteUserStore
	pages      *storage.SQLitePageStore
	revisions  *storage.SQLiteRevisionStore
	notifLog   *storage.SQLiteNotificationStore
	dispatcher *notification.Dispatcher
}

func buildNotificationStack(db *sql.DB, cfg *config.AppConfig, sysLogger *slog.Logger) (*notificationStack, error) {
	users := storage.NewSQLiteUserStore(db)
	pages := storage.NewSQLitePageStore(db)
	revisions := storage.NewSQLiteRevisionStore(db)
	notifLog := storage.NewSQLiteNotificationStore(db)

	translator, err := i18n.Load()
	if err != nil {
		return nil, fmt.Errorf("loading locale catalogs: %w", err)
	}
	renderer, err := notification.NewRenderer(translator)
	if err != nil {
		return nil, fmt.Errorf("parsing notification templates: %w", err)
	}

	provider := notification.NewSMTPProvider(notification.SMTPConfig{
		Host:       cfg.SMTPHost,
		Port:       cfg.SMTPPort,
		Username:   cfg.SMTPUsername,
		Password:   cfg.SMTPPassword,
		Encryption: cfg.SMTPEncryption,
	})

	resolver := permission.NewResolver(users, pages, pages)
	dispatcher := notification.NewDispatcher(
		revisions, pages, users, resolver,
		provider, renderer, notifLog, sysLogger,
		notification.Config{
			IncludeSuperusers:  cfg.NotificationIncludeSuperusers,
			UseHTML:            cfg.NotificationUseHTML,
			FromAddress:        cfg.NotificationFromEmail,
			DefaultFromAddress: cfg.DefaultFromEmail,
			SiteName:           cfg.SiteName,
			BaseURL:            cfg.BaseURL,
		},
	)

	return &notificationStack{
		users:      users,
		pages:      pages,
		revisions:  revisions,
		notifLog:   notifLog,
		dispatcher: dispatcher,
	}, nil
}
