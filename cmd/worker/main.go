// Package main provides the entrypoint for the walkplan background worker.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/walkplan/walkplan/internal/activity"
	"github.com/walkplan/walkplan/internal/config"
	"github.com/walkplan/walkplan/internal/database"
	"github.com/walkplan/walkplan/internal/journey"
	"github.com/walkplan/walkplan/internal/telemetry"
	"github.com/walkplan/walkplan/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "walkplan-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting walkplan worker")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TelemetryEnabled,
		Insecure:       cfg.OTLPInsecure,
		SampleRatio:    cfg.TelemetrySampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	instruments, err := telemetry.NewInstruments(tp.Meter)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize instruments")
	}

	// The refresh only makes sense against shared storage.
	if cfg.StorageDriver != config.StoragePostgres {
		log.Fatal().Str("driver", cfg.StorageDriver).Msg("worker requires postgres storage")
	}
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	journeys := journey.NewService(journey.ServiceConfig{
		Repository: journey.NewPostgresRepository(pool),
		Activity: activity.NewService(activity.ServiceConfig{
			Repository: activity.NewPostgresRepository(pool),
			Logger:     log,
		}),
		Logger:      log,
		Instruments: instruments,
		Calendar:    journey.NewCalendar(cfg.Location, time.Now),
	})

	refreshConfig := worker.DefaultRefreshConfig()
	refreshConfig.Interval = cfg.WorkerInterval
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:    refreshConfig,
		Logger:    log,
		Refresher: journeys,
		Checks: map[string]worker.HealthCheck{
			"database": pool.Ping,
		},
	})

	go job.Start(ctx)

	if cfg.PubSubProjectID != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSubProjectID,
			SubscriptionName: cfg.PubSubSubscription,
			RefreshJob:       job,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer func() { _ = handler.Close() }()

		go func() {
			if err := handler.Start(ctx); err != nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if err := job.HealthCheck(r.Context()); err != nil {
			status, code = err.Error(), http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  status,
			"version": Version,
			"refresh": job.MetricsSnapshot(),
		})
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down worker")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
