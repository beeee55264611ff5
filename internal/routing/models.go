// Package routing computes walking routes between two points through an
// external directions provider.
package routing

import (
	"context"
	"errors"
	"time"

	"github.com/walkplan/walkplan/pkg/polyline"
)

// Sentinel errors for routing operations.
var (
	// ErrProviderUnavailable indicates the provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrNoRouteFound indicates no walkable route exists between the points.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrRateLimitExceeded indicates the provider quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidCoordinates indicates out-of-range coordinates.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrInvalidGeometry indicates the provider returned an unusable polyline.
	ErrInvalidGeometry = errors.New("invalid route geometry")
)

// Coordinate is a WGS84 point.
type Coordinate = polyline.Coordinate

// Provider is a directions backend.
type Provider interface {
	// GetDirections retrieves routes between two points.
	GetDirections(ctx context.Context, req DirectionsRequest) (*DirectionsResponse, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
	// SupportedProfiles returns the profiles this provider can route.
	SupportedProfiles() []RouteProfile
}

// RouteProfile is a provider routing profile.
type RouteProfile string

// ProfileWalk is the only profile this service plans with.
const ProfileWalk RouteProfile = "foot-walking"

// DirectionsRequest is the request for computing routes.
type DirectionsRequest struct {
	Origin      Coordinate
	Destination Coordinate
	Profile     RouteProfile
}

// DirectionsResponse holds the routes returned by a provider.
type DirectionsResponse struct {
	Routes    []Route
	Provider  string
	FetchedAt time.Time
}

// Route is a single provider route.
type Route struct {
	GeometryPolyline string // precision 5
	DistanceMeters   float64
	DurationSeconds  float64
	BoundingBox      *BoundingBox
}

// BoundingBox represents a geographic bounding box.
type BoundingBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// WalkingRoute is a decoded walking route ready for segmentation.
type WalkingRoute struct {
	// DistanceMeters is the provider's walking distance; it is authoritative
	// over the polyline's geometric length.
	DistanceMeters     float64
	Points             []Coordinate
	ExpectedTravelTime time.Duration
	Provider           string
}

// Error carries provider detail for a failed route calculation.
type Error struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the failure is transient.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}

// IsNoRoute reports whether err means no route exists.
func IsNoRoute(err error) bool {
	return errors.Is(err, ErrNoRouteFound)
}

// UserMessage returns a message suitable to show the walker for a routing failure.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case IsNoRoute(err):
		return "No walking route could be found between these places."
	case errors.Is(err, ErrInvalidCoordinates):
		return "The selected places have invalid coordinates."
	case errors.Is(err, ErrRateLimitExceeded), errors.Is(err, ErrProviderUnavailable):
		return "The route service is busy right now. Please try again shortly."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Route calculation was interrupted."
	default:
		return "Route calculation failed: " + err.Error()
	}
}
