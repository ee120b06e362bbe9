package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/parking-violations-lookup/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/parking-violations-lookup/internal/adapter/kafka"
	"github.com/couchcryptid/parking-violations-lookup/internal/adapter/opendata"
	"github.com/couchcryptid/parking-violations-lookup/internal/config"
	"github.com/couchcryptid/parking-violations-lookup/internal/lookup"
	"github.com/couchcryptid/parking-violations-lookup/internal/observability"
	"github.com/couchcryptid/parking-violations-lookup/internal/session"
	"github.com/couchcryptid/parking-violations-lookup/internal/view"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	renderer, err := view.NewRenderer()
	if err != nil {
		logger.Error("failed to parse templates", "error", err)
		os.Exit(1)
	}

	client := opendata.NewClient(cfg.OpenDataURL, cfg.OpenDataAppToken, cfg.OpenDataTimeout, metrics, logger)
	fetcher := opendata.NewCoalescingFetcher(client)

	store := session.NewStore(cfg.SessionTTL, cfg.SessionMax,
		session.WithActiveGauge(func(n int) { metrics.SessionsActive.Set(float64(n)) }),
	)

	// Search event feed (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	var publisher lookup.EventPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, metrics, logger)
		publisher = writer
		metrics.EventsEnabled.Set(1)
		logger.Info("search event feed enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("search event feed disabled")
	}

	ctrl := lookup.New(fetcher, store, publisher, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, ctrl, renderer, client, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Expire idle sessions.
	go store.Run(ctx, cfg.SessionSweepInterval)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
