package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arsarazi/realty/internal/backup"
	"github.com/arsarazi/realty/internal/blog"
	"github.com/arsarazi/realty/internal/config"
	"github.com/arsarazi/realty/internal/contact"
	"github.com/arsarazi/realty/internal/customer"
	"github.com/arsarazi/realty/internal/email"
	"github.com/arsarazi/realty/internal/logging"
	"github.com/arsarazi/realty/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the HTTP API over the configured store, with the optional Redis cache, contact notifications and scheduled backups.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			logging.Setup(cfg.Server.DevMode)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, slog.Default())
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on, overrides server.port")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, err := openStack(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close(logger)

	if err := st.catalog.Refresh(ctx); err != nil {
		return fmt.Errorf("loading listings: %w", err)
	}

	customers := customer.NewRepository(st.db)
	contactOpts := []contact.Option{
		contact.WithCustomers(customers),
		contact.WithLogger(logger),
	}
	if n := newNotifier(cfg); n != nil {
		contactOpts = append(contactOpts, contact.WithNotifier(n))
		logger.Info("contact notifications enabled", "to", cfg.SMTP.NotifyTo)
	}

	if cfg.Backup.Schedule != "" {
		sched := backup.NewScheduler(st.store, cfg.Backup.Dir, cfg.Backup.Keep, logger)
		if err := sched.Start(cfg.Backup.Schedule); err != nil {
			return err
		}
		defer sched.Stop(context.Background())
		logger.Info("scheduled backups enabled", "schedule", cfg.Backup.Schedule, "dir", cfg.Backup.Dir)
	}

	srv, err := web.NewServer(web.Deps{
		Catalog:   st.catalog,
		Customers: customers,
		Contacts:  contact.NewService(contact.NewRepository(st.db), contactOpts...),
		Blog:      blog.NewRepository(st.db),
		Logger:    logger,
		RateLimit: cfg.Server.RateLimit,
	})
	if err != nil {
		return err
	}

	return srv.ListenAndServe(ctx, cfg.Addr())
}

// newNotifier returns the SMTP notifier, or nil when notifications are off.
// The sender defaults to the first recipient.
func newNotifier(cfg *config.Config) *email.Notifier {
	if !cfg.SMTP.Enabled() {
		return nil
	}

	var to []string
	for _, addr := range strings.Split(cfg.SMTP.NotifyTo, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	if len(to) == 0 {
		return nil
	}

	from := cfg.SMTP.From
	if from == "" {
		from = to[0]
	}
	smtpCfg := email.SMTPConfig{
		Host: cfg.SMTP.Host,
		Port: cfg.SMTP.Port,
		User: cfg.SMTP.User,
		Pass: cfg.SMTP.Pass,
		From: from,
	}
	return email.NewNotifier(smtpCfg, cfg.Server.BaseURL, to...)
}
