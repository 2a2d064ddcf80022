package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-screener/internal/config"
	"github.com/jonathan/resume-screener/internal/matching"
	"github.com/jonathan/resume-screener/internal/observability"
	"github.com/jonathan/resume-screener/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: "Start an HTTP server that runs match sessions in the background and exposes their status, " +
		"results and exports. Scoring weights reload when the config file changes.",
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := appConfig
	opts := []matching.RunnerOption{
		matching.WithLogger(log.Named("runner")),
		matching.WithConcurrency(cfg.Scoring.Concurrency),
	}
	serverOpts := server.Options{
		Server:      cfg.Server,
		RateLimit:   cfg.RateLimit,
		MetricsPath: cfg.Metrics.Path,
		Logger:      log,
	}

	if cfg.Metrics.Enabled {
		metrics := observability.NewMetrics()
		opts = append(opts, matching.WithMetrics(metrics))
		serverOpts.Metrics = metrics
	}

	var managerOpts []matching.ManagerOption
	if cfg.Database.URL != "" {
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		opts = append(opts, matching.WithSink(matching.NewBreakerSink(store, matching.DefaultBreakerSettings(), log)))
		serverOpts.Store = store
		managerOpts = append(managerOpts, matching.WithRetention(cfg.Server.SessionTTL, cfg.Server.MaxSessions))
	} else {
		log.Warn("no database configured; sessions are kept in memory only")
	}

	manager := matching.NewManager(matching.NewRunner(nil, opts...), cfg.Scoring, log.Named("sessions"), managerOpts...)
	onChange := func(c *config.Config) {
		if err := manager.SetDefaults(c.Scoring); err != nil {
			log.Warn("ignoring scoring change", zap.Error(err))
		}
	}
	if loader.Watch(log, onChange) {
		log.Info("watching config for scoring changes", zap.String("file", loader.File()))
	}

	srv := server.New(manager, serverOpts)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
