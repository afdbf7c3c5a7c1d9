package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"

	"aaronromeo.com/triager/handlers"
	"aaronromeo.com/triager/internal/announcer"
	"aaronromeo.com/triager/internal/config"
	"aaronromeo.com/triager/internal/pipeline"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run a triage cycle every poll interval",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		listen, err := cmd.Flags().GetString("listen")
		if err != nil {
			return err
		}
		if listen == "" {
			listen = cfg.Status.Listen
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := newSession(ctx, cmd, cfg)
		if err != nil {
			return err
		}
		defer s.shutdown(context.Background()) //nolint:errcheck

		reports := pipeline.NewReportStore()
		if listen != "" {
			app := newStatusApp(reports)
			go func() {
				if err := app.Listen(listen); err != nil {
					s.logger.Error("status server stopped", slog.Any("error", err))
				}
			}()
			defer app.Shutdown() //nolint:errcheck
			s.logger.Info("status server listening", slog.String("addr", listen))
		}

		announce := announcer.New(announcer.WithWebhookURL(config.WebhookURL()))
		interval := cfg.Poll.IntervalDuration()
		s.logger.Info("watching inbox", slog.Duration("interval", interval))
		watchLoop(ctx, interval, func(ctx context.Context) {
			report, err := s.pipeline.Run(ctx)
			reports.Save(report)
			if err != nil {
				s.logger.Error("poll cycle failed", slog.Any("error", err))
			}
			if err := announce.Announce(ctx, report); err != nil {
				s.logger.Warn("announcement failed", slog.Any("error", err))
			}
		})
		return nil
	},
}

func init() {
	addCommonFlags(watchCmd)
	watchCmd.Flags().String("listen", "", "Address for the status server (overrides status.listen)")
}

func newStatusApp(reports *pipeline.ReportStore) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(otelfiber.Middleware())
	handlers.Register(app, reports)
	return app
}

// watchLoop runs cycle immediately and then on every tick until ctx is done.
// Cycles never overlap; ticks that fire during a cycle are dropped.
func watchLoop(ctx context.Context, interval time.Duration, cycle func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		cycle(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
