// Package api provides the HTTP API for walkplan.
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/walkplan/walkplan/internal/activity"
	"github.com/walkplan/walkplan/internal/api/handler"
	"github.com/walkplan/walkplan/internal/api/middleware"
	"github.com/walkplan/walkplan/internal/journey"
	"github.com/walkplan/walkplan/internal/planning"
	"github.com/walkplan/walkplan/internal/provider/resilience"
	"github.com/walkplan/walkplan/internal/replan"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// Tokens validates bearer tokens on every route except health and ready.
	Tokens middleware.TokenValidator

	Registry        *resilience.Registry
	ReadinessChecks map[string]handler.ReadinessCheck

	Sessions  *planning.Store
	Planner   *planning.Planner
	Journeys  *journey.Service
	Replanner *replan.Replanner
	Activity  *activity.Service

	// Tracker serves live activity totals (optional).
	Tracker *activity.Tracker

	// Location is the time zone planning dates are read in.
	Location *time.Location

	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "walkplan-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Registry:  cfg.Registry,
		Checks:    cfg.ReadinessChecks,
	})
	planningHandler := handler.NewPlanningHandler(cfg.Sessions, cfg.Planner, cfg.Location, cfg.Logger)
	journeyHandler := handler.NewJourneyHandler(cfg.Journeys, cfg.Tracker, cfg.Logger)
	dayHandler := handler.NewDayHandler(cfg.Journeys, cfg.Replanner, cfg.Logger)
	journalHandler := handler.NewJournalHandler(cfg.Journeys, cfg.Logger)
	activityHandler := handler.NewActivityHandler(cfg.Activity, cfg.Tracker, cfg.Journeys, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.Tokens)

	expensiveRateLimit := middleware.RateLimitByOwner(middleware.ExpensiveRateLimit) // 10 req/min
	uploadRateLimit := middleware.RateLimitByOwner(middleware.UploadRateLimit)       // 20 req/min
	standardRateLimit := middleware.RateLimitByOwner(middleware.StandardRateLimit)   // 120 req/min

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public except status)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Everything else belongs to the owner.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardRateLimit)

			r.Route("/planning/sessions", func(r chi.Router) {
				r.Use(middleware.RequireJSON)
				r.Post("/", planningHandler.CreateSession)
				r.Route("/{sessionId}", func(r chi.Router) {
					r.Get("/", planningHandler.GetSession)
					r.Patch("/", planningHandler.UpdateSession)
					r.Delete("/", planningHandler.DeleteSession)
					r.Post("/next", planningHandler.Next)
					r.Post("/back", planningHandler.Back)
					r.With(expensiveRateLimit).Post("/calculate", planningHandler.Calculate)
					r.Post("/journey", planningHandler.CreateJourney)
					r.Get("/places", planningHandler.SearchPlaces)
				})
			})

			r.Route("/journeys", func(r chi.Router) {
				r.Get("/", journeyHandler.List)
				r.Get("/active", journeyHandler.Active)
				r.Route("/{journeyId}", func(r chi.Router) {
					r.Get("/", journeyHandler.Get)
					r.Delete("/", journeyHandler.Abandon)
					r.Get("/progress", journeyHandler.Progress)
					r.Post("/statuses:refresh", journeyHandler.RefreshStatuses)
					r.Get("/export.kml", journeyHandler.ExportKML)
				})
			})

			r.Route("/days/{dayId}", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireJSON)
					r.Post("/completion", dayHandler.Complete)
					r.Delete("/completion", dayHandler.UndoComplete)
					r.Post("/skip", dayHandler.Skip)
					r.Get("/replan", dayHandler.ReplanDefaults)
					r.With(expensiveRateLimit).Post("/replan", dayHandler.Replan)

					r.Get("/journal", journalHandler.Get)
					r.Put("/journal/text", journalHandler.SaveText)
					r.Put("/journal/photos:order", journalHandler.ReorderPhotos)
				})

				// Multipart upload, so no JSON requirement.
				r.With(uploadRateLimit).Post("/journal/photos", journalHandler.AddPhotos)
				r.Get("/journal/photos/{photoId}", journalHandler.GetPhoto)
				r.Delete("/journal/photos/{photoId}", journalHandler.DeletePhoto)
			})

			r.Route("/activity", func(r chi.Router) {
				r.With(middleware.RequireJSON).Post("/samples", activityHandler.RecordSamples)
				r.Get("/totals", activityHandler.Totals)
				r.Get("/live", activityHandler.Live)
			})
		})
	})

	return r
}
