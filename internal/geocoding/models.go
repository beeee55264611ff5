// Package geocoding resolves place names: forward search for the location
// picker and reverse lookups that label day start and end points.
package geocoding

import (
	"context"
	"errors"

	"github.com/walkplan/walkplan/pkg/polyline"
)

// UnknownLocation is the label used when a reverse lookup yields nothing.
const UnknownLocation = "unknown location"

var (
	// ErrProviderUnavailable indicates the geocoder is down or rejected the request.
	ErrProviderUnavailable = errors.New("geocoding provider unavailable")
	// ErrRateLimitExceeded indicates the geocoder quota has been exceeded.
	ErrRateLimitExceeded = errors.New("geocoding rate limit exceeded")
	// ErrSuperseded is returned by a search that a newer search replaced.
	ErrSuperseded = errors.New("search superseded by a newer query")
)

// Place is a named, selectable location.
type Place struct {
	Name     string              `json:"name"`
	Subtitle string              `json:"subtitle,omitempty"`
	Point    polyline.Coordinate `json:"point"`
}

// Provider is a geocoding backend.
type Provider interface {
	// Search returns candidate places for free text.
	Search(ctx context.Context, query string) ([]Place, error)
	// Reverse returns a human-readable name for point, or "" when nothing is known.
	Reverse(ctx context.Context, point polyline.Coordinate) (string, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// EndpointNames labels one day's start and end.
type EndpointNames struct {
	StartName string `json:"startName"`
	EndName   string `json:"endName"`
}
