// Package openrouteservice implements routing.Provider on the
// OpenRouteService directions API.
package openrouteservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/walkplan/walkplan/internal/provider/resilience"
	"github.com/walkplan/walkplan/internal/routing"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "openrouteservice"

	// DefaultBaseURL is the OpenRouteService API base URL.
	DefaultBaseURL = "https://api.openrouteservice.org"

	// DefaultTimeout is the default per-attempt timeout.
	DefaultTimeout = 15 * time.Second
)

// HTTPDoer executes HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the directions client.
type ClientConfig struct {
	APIKey  string
	BaseURL string

	// HTTPClient overrides the resilient client (tests).
	HTTPClient HTTPDoer

	Timeout  time.Duration
	Registry *resilience.Registry
	Logger   zerolog.Logger
}

// Client is an OpenRouteService directions client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

var _ routing.Provider = (*Client)(nil)

// NewClient creates a new directions client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName + "-directions")
		clientCfg.Timeout = timeout
		clientCfg.Registry = cfg.Registry
		clientCfg.Logger = cfg.Logger
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// SupportedProfiles returns the supported routing profiles.
func (c *Client) SupportedProfiles() []routing.RouteProfile {
	return []routing.RouteProfile{routing.ProfileWalk}
}

// GetDirections retrieves a walking route between two points.
func (c *Client) GetDirections(ctx context.Context, req routing.DirectionsRequest) (*routing.DirectionsResponse, error) {
	profile := req.Profile
	if profile == "" {
		profile = routing.ProfileWalk
	}
	if profile != routing.ProfileWalk {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "UNSUPPORTED_PROFILE",
			Message:  fmt.Sprintf("profile %q is not supported", profile),
			Err:      routing.ErrNoRouteFound,
		}
	}

	body, err := json.Marshal(directionsRequest{
		Coordinates: [][]float64{
			{req.Origin.Lon, req.Origin.Lat},
			{req.Destination.Lon, req.Destination.Lat},
		},
		Geometry: true,
		Units:    "m",
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v2/directions/%s", c.baseURL, profile)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", c.apiKey)
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Float64("origin_lat", req.Origin.Lat).
		Float64("origin_lon", req.Origin.Lon).
		Float64("dest_lat", req.Destination.Lat).
		Float64("dest_lon", req.Destination.Lon).
		Msg("requesting walking directions from ORS")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach routing provider",
			Err:      fmt.Errorf("%w: %w", routing.ErrProviderUnavailable, err),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, mapError(resp.StatusCode, respBody)
	}

	var orsResp directionsResponse
	if err := json.Unmarshal(respBody, &orsResp); err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "DECODE_FAILED",
			Message:  "could not decode directions response",
			Err:      err,
		}
	}

	return toDirectionsResponse(&orsResp), nil
}

// mapError maps an ORS error response to a routing error.
func mapError(statusCode int, body []byte) error {
	var orsErr errorResponse
	_ = json.Unmarshal(body, &orsErr)

	message := orsErr.Error.Message
	if message == "" {
		message = fmt.Sprintf("routing provider returned status %d", statusCode)
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		return &routing.Error{Provider: ProviderName, Code: "RATE_LIMIT", Message: "API rate limit exceeded", Err: routing.ErrRateLimitExceeded}
	case statusCode == http.StatusForbidden || statusCode == http.StatusUnauthorized:
		return &routing.Error{Provider: ProviderName, Code: "FORBIDDEN", Message: "API access denied, check the API key", Err: routing.ErrProviderUnavailable}
	case statusCode == http.StatusNotFound,
		orsErr.Error.Code == errorCodeRouteNotFound,
		orsErr.Error.Code == errorCodePointNotFound:
		return &routing.Error{Provider: ProviderName, Code: "NO_ROUTE", Message: message, Err: routing.ErrNoRouteFound}
	case orsErr.Error.Code == errorCodeDistanceLimit:
		return &routing.Error{Provider: ProviderName, Code: "DISTANCE_LIMIT", Message: message}
	case statusCode == http.StatusBadRequest:
		return &routing.Error{Provider: ProviderName, Code: "BAD_REQUEST", Message: message, Err: routing.ErrInvalidCoordinates}
	case statusCode >= 500:
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("SERVER_%d", statusCode),
			Message:  "routing provider is temporarily unavailable",
			Err:      routing.ErrProviderUnavailable,
		}
	default:
		return &routing.Error{Provider: ProviderName, Code: fmt.Sprintf("HTTP_%d", statusCode), Message: message}
	}
}

func toDirectionsResponse(resp *directionsResponse) *routing.DirectionsResponse {
	routes := make([]routing.Route, 0, len(resp.Routes))
	for i := range resp.Routes {
		r := &resp.Routes[i]
		route := routing.Route{
			GeometryPolyline: r.Geometry,
			DistanceMeters:   r.Summary.Distance,
			DurationSeconds:  r.Summary.Duration,
		}
		if len(r.BBox) >= 4 {
			route.BoundingBox = &routing.BoundingBox{
				MinLon: r.BBox[0],
				MinLat: r.BBox[1],
				MaxLon: r.BBox[2],
				MaxLat: r.BBox[3],
			}
		}
		routes = append(routes, route)
	}

	return &routing.DirectionsResponse{
		Routes:    routes,
		Provider:  ProviderName,
		FetchedAt: time.Now(),
	}
}
