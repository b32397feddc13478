package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/psilva/leadboard/internal/campaign"
	"github.com/psilva/leadboard/internal/config"
	"github.com/psilva/leadboard/internal/db"
	"github.com/psilva/leadboard/internal/journal"
	"github.com/psilva/leadboard/internal/metrics"
	"github.com/psilva/leadboard/internal/repository"
	"github.com/psilva/leadboard/internal/server"
	"github.com/psilva/leadboard/internal/unipile"
	"github.com/psilva/leadboard/internal/webhook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	RunE:  runServe,
}

var configFile string

func init() {
	serveCmd.Flags().StringVarP(&configFile, "config", "c", "/etc/leadboard/config.yaml", "Path to configuration file")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Local secrets, ignored when absent
	_ = godotenv.Load()

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	// Setup logger
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLogLevel(cfg.Logging.Level),
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLogLevel(cfg.Logging.Level),
		})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	database, err := db.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		return err
	}

	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer j.Close()

	m := metrics.New()

	srv := server.New(cfg, server.Deps{
		Emails:       repository.NewEmailRepository(database.DB),
		Settings:     repository.NewSettingsRepository(database.DB),
		Orchestrator: campaign.New(webhook.NewClient(logger), j, m, logger),
		Unipile:      unipile.New(cfg.Unipile.DSN, cfg.Unipile.APIKey, logger),
		Journal:      j,
		Metrics:      m,
	}, logger)

	// Handle shutdown signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		logger.Info("shutting down...")
		cancel()
	}()

	return srv.Run(ctx)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
