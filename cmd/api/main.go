// Package main provides the entrypoint for the walkplan API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/walkplan/walkplan/internal/activity"
	"github.com/walkplan/walkplan/internal/api"
	"github.com/walkplan/walkplan/internal/api/handler"
	"github.com/walkplan/walkplan/internal/api/middleware"
	"github.com/walkplan/walkplan/internal/auth"
	"github.com/walkplan/walkplan/internal/config"
	"github.com/walkplan/walkplan/internal/database"
	"github.com/walkplan/walkplan/internal/geocoding"
	geocodingors "github.com/walkplan/walkplan/internal/geocoding/openrouteservice"
	"github.com/walkplan/walkplan/internal/journey"
	"github.com/walkplan/walkplan/internal/planning"
	"github.com/walkplan/walkplan/internal/provider/resilience"
	"github.com/walkplan/walkplan/internal/replan"
	"github.com/walkplan/walkplan/internal/routing"
	routingors "github.com/walkplan/walkplan/internal/routing/openrouteservice"
	"github.com/walkplan/walkplan/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "walkplan-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting walkplan API")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx := context.Background()

	// Initialize OpenTelemetry
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

	if cfg.TelemetryEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics(tp.Meter)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	instruments, err := telemetry.NewInstruments(tp.Meter)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize instruments")
		os.Exit(1)
	}

	checks := map[string]handler.ReadinessCheck{}

	// Storage
	var (
		journeyRepo  journey.Repository
		activityRepo activity.Repository
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		journeyRepo = journey.NewInMemoryRepository()
		activityRepo = activity.NewInMemoryRepository()
		log.Warn().Msg("using in-memory storage - data is lost on restart")
	default:
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
		log.Info().
			Str("host", cfg.Database.Host).
			Int("port", cfg.Database.Port).
			Str("database", cfg.Database.Database).
			Msg("database connected")

		journeyRepo = journey.NewPostgresRepository(pool)
		activityRepo = activity.NewPostgresRepository(pool)
		checks["database"] = pool.Ping
	}

	// Reverse-geocode cache, shared across instances when Redis is configured
	var geoCache geocoding.Cache = geocoding.NewMemoryCache()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()
		geoCache = geocoding.NewRedisCache(rdb, "walkplan:geocode:")
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info().Str("addr", cfg.RedisAddr).Msg("redis geocode cache enabled")
	}

	if cfg.ORSAPIKey == "" {
		log.Warn().Msg("ORS_API_KEY not set - routing and geocoding requests will fail")
	}

	// Providers
	registry := resilience.NewRegistry()
	routes := routing.NewService(routing.ServiceConfig{
		Provider: routingors.NewClient(routingors.ClientConfig{
			APIKey:   cfg.ORSAPIKey,
			BaseURL:  cfg.ORSBaseURL,
			Registry: registry,
			Logger:   log,
		}),
		Logger:      log,
		Instruments: instruments,
	})
	geo := geocoding.NewService(geocoding.ServiceConfig{
		Provider: geocodingors.NewClient(geocodingors.ClientConfig{
			APIKey:   cfg.ORSAPIKey,
			BaseURL:  cfg.ORSBaseURL,
			Registry: registry,
			Logger:   log,
		}),
		Cache:       geoCache,
		Logger:      log,
		Instruments: instruments,
		Pace:        cfg.GeocodePace,
	})

	// Domain services
	cal := journey.NewCalendar(cfg.Location, time.Now)
	activityService := activity.NewService(activity.ServiceConfig{
		Repository: activityRepo,
		Logger:     log,
	})
	journeyService := journey.NewService(journey.ServiceConfig{
		Repository:  journeyRepo,
		Activity:    activityService,
		Logger:      log,
		Instruments: instruments,
		Calendar:    cal,
	})
	planner := planning.NewPlanner(planning.PlannerConfig{
		Routes:   routes,
		Names:    geo,
		Journeys: journeyService,
		Logger:   log,
	})
	sessions := planning.NewStore(planning.StoreConfig{
		Calendar: cal,
		NewSearcher: func() planning.PlaceSearcher {
			return geocoding.NewSearcher(geo, cfg.SearchDebounce)
		},
	})
	replanner := replan.New(replan.Config{
		Routes:   routes,
		Names:    geo,
		Journeys: journeyService,
		Logger:   log,
	})

	tracker := activity.NewTracker(activity.TrackerConfig{
		Source:   activityService,
		Logger:   log,
		Location: cfg.Location,
	})
	if active, err := journeyService.Active(ctx); err == nil {
		tracker.SetPeriodStart(active.StartDate)
	}
	tracker.Start(ctx)
	defer tracker.Stop()

	// Auth
	if cfg.JWTSigningKey == "" {
		cfg.JWTSigningKey = config.DevJWTSigningKey
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	tokens, err := auth.NewJWTService(auth.JWTConfig{
		SigningKey: cfg.JWTSigningKey,
		OwnerID:    cfg.OwnerID,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token service")
	}

	router := api.NewRouter(api.RouterConfig{
		Version:         Version,
		BuildTime:       BuildTime,
		Logger:          log,
		ServiceName:     serviceName,
		Metrics:         metrics,
		Tokens:          tokens,
		Registry:        registry,
		ReadinessChecks: checks,
		Sessions:        sessions,
		Planner:         planner,
		Journeys:        journeyService,
		Replanner:       replanner,
		Activity:        activityService,
		Tracker:         tracker,
		Location:        cfg.Location,
		RequireTLS:      cfg.RequireTLS,
	})

	// Route calculation can take a while on long walks.
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
