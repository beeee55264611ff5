// Package openrouteservice implements geocoding.Provider on the
// OpenRouteService (Pelias) geocoding API.
package openrouteservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/walkplan/walkplan/internal/geocoding"
	"github.com/walkplan/walkplan/internal/provider/resilience"
	"github.com/walkplan/walkplan/pkg/polyline"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "openrouteservice-geocode"

	// DefaultBaseURL is the OpenRouteService API base URL.
	DefaultBaseURL = "https://api.openrouteservice.org"

	// DefaultSearchSize caps the number of search candidates.
	DefaultSearchSize = 10
)

// HTTPDoer executes HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the geocoding client.
type ClientConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient HTTPDoer
	Timeout    time.Duration
	Registry   *resilience.Registry
	Logger     zerolog.Logger

	// Language is the preferred label language (e.g. "ko").
	Language string

	// SearchSize caps search results (default: 10).
	SearchSize int
}

// Client is an ORS geocoding client.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	searchSize int
	httpClient HTTPDoer
	logger     zerolog.Logger
}

var _ geocoding.Provider = (*Client)(nil)

// NewClient creates a geocoding client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	size := cfg.SearchSize
	if size <= 0 {
		size = DefaultSearchSize
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		if cfg.Timeout > 0 {
			clientCfg.Timeout = cfg.Timeout
		}
		clientCfg.MaxRetries = 2
		clientCfg.Registry = cfg.Registry
		clientCfg.Logger = cfg.Logger
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		language:   cfg.Language,
		searchSize: size,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Search returns places matching query.
func (c *Client) Search(ctx context.Context, query string) ([]geocoding.Place, error) {
	params := url.Values{}
	params.Set("text", query)
	params.Set("size", strconv.Itoa(c.searchSize))

	var fc featureCollection
	if err := c.get(ctx, "/geocode/search", params, &fc); err != nil {
		return nil, err
	}

	places := make([]geocoding.Place, 0, len(fc.Features))
	for _, f := range fc.Features {
		point, ok := f.point()
		if !ok {
			continue
		}
		places = append(places, geocoding.Place{
			Name:     f.Properties.displayName(),
			Subtitle: f.Properties.subtitle(),
			Point:    point,
		})
	}

	c.logger.Debug().Str("query", query).Int("results", len(places)).Msg("geocode search")
	return places, nil
}

// Reverse returns the nearest place name for point, or "" when none.
func (c *Client) Reverse(ctx context.Context, point polyline.Coordinate) (string, error) {
	params := url.Values{}
	params.Set("point.lat", strconv.FormatFloat(point.Lat, 'f', 6, 64))
	params.Set("point.lon", strconv.FormatFloat(point.Lon, 'f', 6, 64))
	params.Set("size", "1")

	var fc featureCollection
	if err := c.get(ctx, "/geocode/reverse", params, &fc); err != nil {
		return "", err
	}
	if len(fc.Features) == 0 {
		return "", nil
	}
	return fc.Features[0].Properties.localityName(), nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("lang", c.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", geocoding.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return geocoding.ErrRateLimitExceeded
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: status %d", geocoding.ErrProviderUnavailable, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
