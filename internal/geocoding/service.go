package geocoding

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/walkplan/walkplan/internal/segment"
	"github.com/walkplan/walkplan/internal/telemetry"
	"github.com/walkplan/walkplan/pkg/polyline"
)

// ServiceConfig holds configuration for the geocoding service.
type ServiceConfig struct {
	Provider Provider

	// Cache stores reverse lookups (default: in-memory).
	Cache Cache

	Logger      zerolog.Logger
	Instruments *telemetry.Instruments

	// Pace is the minimum spacing between reverse lookups sent to the
	// provider (default: 300ms). A negative value disables pacing.
	Pace time.Duration

	// CacheTTL is how long reverse lookups are kept (default: 30 days).
	CacheTTL time.Duration
}

// Service wraps a geocoding provider with caching, pacing and a
// placeholder fallback for reverse lookups.
type Service struct {
	provider    Provider
	cache       Cache
	logger      zerolog.Logger
	instruments *telemetry.Instruments
	limiter     *rate.Limiter
	cacheTTL    time.Duration
}

// NewService creates a new geocoding service.
func NewService(cfg ServiceConfig) *Service {
	cache := cfg.Cache
	if cache == nil {
		cache = NewMemoryCache()
	}

	pace := cfg.Pace
	if pace == 0 {
		pace = 300 * time.Millisecond
	}
	limit := rate.Inf
	if pace > 0 {
		limit = rate.Every(pace)
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 30 * 24 * time.Hour
	}

	return &Service{
		provider:    cfg.Provider,
		cache:       cache,
		logger:      cfg.Logger,
		instruments: cfg.Instruments,
		limiter:     rate.NewLimiter(limit, 1),
		cacheTTL:    cacheTTL,
	}
}

// Search returns candidate places for query. A blank query returns no results.
func (s *Service) Search(ctx context.Context, query string) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	start := time.Now()
	places, err := s.provider.Search(ctx, query)
	s.instruments.ProviderCall(ctx, s.provider.Name(), "search", start, err)
	if err != nil {
		s.logger.Warn().Err(err).Str("query", query).Msg("place search failed")
		return nil, err
	}
	return places, nil
}

// ReverseGeocode names point. It never fails: lookups that error or find
// nothing yield UnknownLocation.
func (s *Service) ReverseGeocode(ctx context.Context, point polyline.Coordinate) string {
	key := cacheKey(point)

	name, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("reverse geocode cache read failed")
	}
	s.instruments.CacheLookup(ctx, "reverse_geocode", ok)
	if ok {
		return name
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return UnknownLocation
	}

	start := time.Now()
	name, err = s.provider.Reverse(ctx, point)
	s.instruments.ProviderCall(ctx, s.provider.Name(), "reverse", start, err)
	if err != nil {
		s.logger.Warn().Err(err).
			Float64("lat", point.Lat).
			Float64("lon", point.Lon).
			Msg("reverse geocode failed, using placeholder")
		return UnknownLocation
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return UnknownLocation
	}

	if err := s.cache.Set(ctx, key, name, s.cacheTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("reverse geocode cache write failed")
	}
	return name
}

// NameEndpoints labels the start and end of every segment. The first start
// takes originName and the last end takes destinationName; each interior
// split point is looked up once, in day order, and shared by the day that
// ends there and the day that starts there.
func (s *Service) NameEndpoints(ctx context.Context, segs []segment.DaySegment, originName, destinationName string) []EndpointNames {
	if len(segs) == 0 {
		return nil
	}

	names := make([]EndpointNames, len(segs))
	names[0].StartName = originName
	names[len(segs)-1].EndName = destinationName

	for i := 1; i < len(segs); i++ {
		name := s.ReverseGeocode(ctx, segs[i-1].End)
		names[i-1].EndName = name
		names[i].StartName = name
	}

	return names
}
