package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public Mapbox API host.
const DefaultBaseURL = "https://api.mapbox.com"

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithRateLimit sets the requests-per-second limit for lookups. A value
// of zero or less disables limiting.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// Client is a reverse geocoding API client.
type Client struct {
	accessToken string
	baseURL     string
	httpClient  HTTPClient
	limiter     *rate.Limiter
}

// NewClient creates a reverse geocoding client authenticated with accessToken.
func NewClient(accessToken string, opts ...ClientOption) *Client {
	c := &Client{
		accessToken: accessToken,
		baseURL:     DefaultBaseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		limiter:     rate.NewLimiter(10, 10),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Reverse returns the places at at. A non-2xx status or a response without
// features is reported as no result, not as an error.
func (c *Client) Reverse(ctx context.Context, at Coordinates) ([]Feature, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "geocode: rate limit")
		}
	}

	reqURL := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s",
		c.baseURL,
		FormatCoordinates(at.Lng, at.Lat),
		url.Values{"access_token": {c.accessToken}}.Encode(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		zap.L().Warn("geocode: reverse lookup failed",
			zap.Int("status", resp.StatusCode),
			zap.String("status_text", http.StatusText(resp.StatusCode)),
		)
		return []Feature{}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}

	var parsed reverseResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}
	if len(parsed.Features) == 0 {
		return []Feature{}, nil
	}
	return parsed.Features, nil
}
