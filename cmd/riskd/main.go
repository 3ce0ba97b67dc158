package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/rockfall-risk-service/internal/adapter/backend"
	"github.com/couchcryptid/rockfall-risk-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/rockfall-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/rockfall-risk-service/internal/adapter/mapbox"
	"github.com/couchcryptid/rockfall-risk-service/internal/alert"
	"github.com/couchcryptid/rockfall-risk-service/internal/chart"
	"github.com/couchcryptid/rockfall-risk-service/internal/config"
	"github.com/couchcryptid/rockfall-risk-service/internal/display"
	"github.com/couchcryptid/rockfall-risk-service/internal/domain"
	"github.com/couchcryptid/rockfall-risk-service/internal/monitor"
	"github.com/couchcryptid/rockfall-risk-service/internal/observability"
	"github.com/couchcryptid/rockfall-risk-service/internal/poller"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, logger,
		backend.WithRateLimit(cfg.BackendRateLimit, cfg.BackendBurst),
		backend.WithClock(clock),
	)

	// Site labelling is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	sources := monitor.Sources{Sensor: client, Weather: client, Predictor: client}
	if cfg.MapboxEnabled {
		locator := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger, mapbox.WithClock(clock))
		sources.Locator = mapbox.NewCachedLocator(locator, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox site labelling enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox site labelling disabled")
	}

	board := display.NewBoard()
	controller := poller.New(client, board, chart.NewWindow(cfg.ChartCapacity, cfg.PollInterval), clock, cfg.PollInterval, logger, metrics)
	dispatcher := alert.NewDispatcher(board, clock, logger, metrics, alert.WithDurations(cfg.AlertDuration, cfg.AlertFade))

	opts := []monitor.Option{monitor.WithReadiness(client)}
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		opts = append(opts, monitor.WithPublisher(writer))
		logger.Info("assessment publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	svc := monitor.New(sources, domain.NewScorer(), controller, dispatcher, board, clock, logger, metrics, opts...)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.API{
		Monitor: svc,
		Board:   board,
		Session: controller,
	}, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	svc.Close()
	if err := controller.Wait(shutdownCtx); err != nil {
		logger.Error("poller did not stop in time", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
