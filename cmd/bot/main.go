package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"relicboard/internal/api"
	"relicboard/internal/config"
	"relicboard/internal/dashboard"
	"relicboard/internal/metrics"
	"relicboard/internal/newrelic"
	"relicboard/internal/retention"
	"relicboard/internal/slack"
	"relicboard/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	// Create context that listens for the interrupt signal from the OS
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fileStore, err := store.NewFileStore(cfg.Storage.DataDir)
	if err != nil {
		log.Fatalf("Failed to open data dir: %v", err)
	}

	m := metrics.New()

	restFactory := func(restAPIKey string) dashboard.RestAPI {
		return newrelic.NewRestClient(cfg.NewRelic.RestBaseURL, restAPIKey, logger, m)
	}
	insightsFactory := func(accountID, queryAPIKey string) dashboard.InsightsAPI {
		return newrelic.NewInsightsClient(cfg.NewRelic.InsightsBaseURL, accountID, queryAPIKey, logger, m)
	}

	slackClient := slack.NewClient(cfg.Slack.BotToken, logger)
	controller := dashboard.NewController(fileStore, restFactory, insightsFactory, slackClient, logger, m)

	// Initialize and start the server
	server, err := api.NewServer(cfg, controller, m, logger)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	var sweeper *retention.Sweeper
	if cfg.Storage.HistoryRetentionDays > 0 {
		sweeper, err = retention.New(fileStore, cfg.Storage.HistoryRetentionDays, logger)
		if err != nil {
			log.Fatalf("Failed to schedule retention sweep: %v", err)
		}
		sweeper.Start()
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "host", cfg.Server.Host, "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()

	// Shutdown gracefully
	if sweeper != nil {
		sweeper.Stop()
	}
	if err := server.Shutdown(context.Background()); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
}
