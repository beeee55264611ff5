package routing

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/walkplan/walkplan/internal/telemetry"
	"github.com/walkplan/walkplan/pkg/polyline"
)

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	Provider Provider
	Logger   zerolog.Logger

	// Instruments records provider call metrics (optional).
	Instruments *telemetry.Instruments

	// CacheTTL is how long a computed route is reused (default: 1 hour).
	CacheTTL time.Duration

	// CacheGridSize quantizes endpoints for the cache key, in degrees
	// (default: 0.0001, roughly 11 m).
	CacheGridSize float64

	// StaleIfErrorTTL allows serving a stale route on provider errors (default: 6 hours).
	StaleIfErrorTTL time.Duration

	// CleanupInterval is how often expired entries are purged (default: 10 minutes).
	CleanupInterval time.Duration
}

// Service calculates walking routes with caching and stale-if-error fallback.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	instruments     *telemetry.Instruments
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration
	cleanupInterval time.Duration
	now             func() time.Time

	mu          sync.RWMutex
	cache       map[string]*cachedRoute
	lastCleanup time.Time
}

type cachedRoute struct {
	route     *WalkingRoute
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new routing service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.0001
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 6 * time.Hour
	}

	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = 10 * time.Minute
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		instruments:     cfg.Instruments,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		cleanupInterval: cleanupInterval,
		now:             time.Now,
		cache:           make(map[string]*cachedRoute),
	}
}

// CalculateWalkingRoute returns the walking route from origin to destination.
// Failures are either ErrNoRouteFound or a *Error describing why the
// calculation failed.
func (s *Service) CalculateWalkingRoute(ctx context.Context, origin, destination Coordinate) (*WalkingRoute, error) {
	if !origin.Valid() {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "INVALID_ORIGIN",
			Message:  "invalid origin coordinates",
			Err:      ErrInvalidCoordinates,
		}
	}
	if !destination.Valid() {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "INVALID_DESTINATION",
			Message:  "invalid destination coordinates",
			Err:      ErrInvalidCoordinates,
		}
	}

	key := s.cacheKey(origin, destination)

	s.mu.RLock()
	if cached, ok := s.cache[key]; ok && s.now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.instruments.CacheLookup(ctx, "walking_route", true)
		s.logger.Debug().Str("cache_key", key).Msg("cache hit for walking route")
		return cached.route, nil
	}
	s.mu.RUnlock()
	s.instruments.CacheLookup(ctx, "walking_route", false)

	return s.fetchRoute(ctx, origin, destination, key)
}

func (s *Service) fetchRoute(ctx context.Context, origin, destination Coordinate, key string) (*WalkingRoute, error) {
	s.logger.Debug().
		Float64("origin_lat", origin.Lat).
		Float64("origin_lon", origin.Lon).
		Float64("dest_lat", destination.Lat).
		Float64("dest_lon", destination.Lon).
		Str("provider", s.provider.Name()).
		Msg("fetching walking route from provider")

	spanCtx, span := telemetry.StartSpan(ctx, "routing.directions", attribute.String("provider", s.provider.Name()))
	start := time.Now()
	route, err := s.requestRoute(spanCtx, origin, destination)
	s.instruments.ProviderCall(ctx, s.provider.Name(), "directions", start, err)
	telemetry.EndSpan(span, err)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		if IsNoRoute(err) {
			return nil, err
		}

		s.logger.Error().Err(err).
			Float64("origin_lat", origin.Lat).
			Float64("origin_lon", origin.Lon).
			Float64("dest_lat", destination.Lat).
			Float64("dest_lon", destination.Lon).
			Msg("failed to fetch walking route")

		if cached, ok := s.cache[key]; ok && s.now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().
				Time("fetched_at", cached.fetchedAt).
				Str("cache_key", key).
				Msg("serving stale walking route due to provider error")
			return cached.route, nil
		}
		return nil, err
	}

	now := s.now()
	s.cache[key] = &cachedRoute{
		route:     route,
		fetchedAt: now,
		expiresAt: now.Add(s.cacheTTL),
	}

	s.logger.Debug().
		Str("cache_key", key).
		Float64("distance_m", route.DistanceMeters).
		Int("points", len(route.Points)).
		Msg("cached walking route")

	s.cleanupIfNeeded()

	return route, nil
}

func (s *Service) requestRoute(ctx context.Context, origin, destination Coordinate) (*WalkingRoute, error) {
	resp, err := s.provider.GetDirections(ctx, DirectionsRequest{
		Origin:      origin,
		Destination: destination,
		Profile:     ProfileWalk,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Routes) == 0 {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "NO_ROUTE",
			Message:  "provider returned no routes",
			Err:      ErrNoRouteFound,
		}
	}

	best := resp.Routes[0]
	points, err := polyline.Decode(best.GeometryPolyline)
	if err != nil {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "INVALID_GEOMETRY",
			Message:  "could not decode route geometry",
			Err:      fmt.Errorf("%w: %w", ErrInvalidGeometry, err),
		}
	}
	if len(points) < 2 {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "INVALID_GEOMETRY",
			Message:  fmt.Sprintf("route geometry has %d points", len(points)),
			Err:      ErrInvalidGeometry,
		}
	}

	return &WalkingRoute{
		DistanceMeters:     best.DistanceMeters,
		Points:             points,
		ExpectedTravelTime: time.Duration(best.DurationSeconds * float64(time.Second)),
		Provider:           resp.Provider,
	}, nil
}

// cacheKey quantizes both endpoints onto the cache grid.
// Format: {profile}:{lat},{lon}:{lat},{lon}.
func (s *Service) cacheKey(origin, destination Coordinate) string {
	q := func(v float64) float64 {
		return math.Floor(v/s.cacheGridSize) * s.cacheGridSize
	}
	return fmt.Sprintf("%s:%.5f,%.5f:%.5f,%.5f",
		ProfileWalk,
		q(origin.Lat), q(origin.Lon),
		q(destination.Lat), q(destination.Lon),
	)
}

// cleanupIfNeeded purges entries past the stale window. Caller holds s.mu.
func (s *Service) cleanupIfNeeded() {
	now := s.now()
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}
	s.lastCleanup = now

	expired := 0
	for key, cached := range s.cache {
		if now.After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.cache, key)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().Int("expired_entries", expired).Msg("cleaned up expired route cache entries")
	}
}

// InvalidateCache clears all cached routes.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedRoute)
}

// CacheStats contains cache statistics.
type CacheStats struct {
	TotalEntries int
	FreshEntries int
	StaleEntries int
	Provider     string
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	stats := CacheStats{TotalEntries: len(s.cache), Provider: s.provider.Name()}
	for _, c := range s.cache {
		switch {
		case now.Before(c.expiresAt):
			stats.FreshEntries++
		case now.Before(c.fetchedAt.Add(s.staleIfErrorTTL)):
			stats.StaleEntries++
		}
	}
	return stats
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}
