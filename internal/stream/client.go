package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrClosed is returned by Next after Close.
var ErrClosed = eris.New("stream: connection closed")

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client. It must not time out whole
// requests, since a stream stays open until the search finishes.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithToken sets the bearer token sent with the stream request.
func WithToken(token string) ClientOption {
	return WithAuthorization("Bearer " + token)
}

// WithAuthorization sets the full Authorization header value, for tokens
// that carry their own type.
func WithAuthorization(value string) ClientOption {
	return func(c *Client) {
		c.authorization = value
	}
}

// Client opens search event streams.
type Client struct {
	baseURL       string
	authorization string
	httpClient    HTTPClient
}

// NewClient creates a stream client for the API at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// StreamURL returns the event stream endpoint of sessionID.
func (c *Client) StreamURL(sessionID string) string {
	return fmt.Sprintf("%s/map/search-sse/%s", c.baseURL, url.PathEscape(sessionID))
}

// Connect opens the event stream of sessionID. The connection lives until
// Close is called, the server ends the stream or ctx is cancelled.
func (c *Client) Connect(ctx context.Context, sessionID string) (*Conn, error) {
	if sessionID == "" {
		return nil, eris.New("stream: empty session id")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.StreamURL(sessionID), nil)
	if err != nil {
		return nil, eris.Wrap(err, "stream: build request")
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if c.authorization != "" {
		req.Header.Set("Authorization", c.authorization)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "stream: connect")
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, handleAPIError(resp.StatusCode)
	}

	return &Conn{
		body:    resp.Body,
		decoder: newDecoder(resp.Body),
	}, nil
}

func handleAPIError(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return eris.New("stream: authentication failed - please run 'geofeed login' to set a valid token")
	case http.StatusForbidden:
		return eris.New("stream: access to this search session was denied")
	case http.StatusNotFound:
		return eris.New("stream: search session not found - it may have expired")
	case http.StatusTooManyRequests:
		return eris.New("stream: rate limit exceeded - please try again later")
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return eris.Errorf("stream: server error (%d) - please try again later", statusCode)
	default:
		return eris.Errorf("stream: unexpected status %d", statusCode)
	}
}

// Conn is an open event stream. Next must be called from a single
// goroutine; Close may be called from any goroutine.
type Conn struct {
	body    io.ReadCloser
	decoder *decoder

	closeOnce sync.Once
	closeErr  error
	mu        sync.Mutex
	closed    bool
}

// Next returns the next classified event. Events with unregistered names
// are skipped. It returns io.EOF when the server ends the stream and
// ErrClosed once the connection has been closed locally.
func (c *Conn) Next() (Event, error) {
	for {
		f, err := c.decoder.next()
		if err != nil {
			if c.isClosed() {
				return Event{}, ErrClosed
			}
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, eris.Wrap(err, "stream: read event")
		}

		kind, p := classify(f.name)
		if kind == KindUnknown {
			zap.L().Debug("stream: ignoring event", zap.String("event", f.name))
			continue
		}

		return Event{
			Kind:     kind,
			Name:     f.name,
			ID:       f.id,
			Platform: p,
			Data:     json.RawMessage(f.data),
		}, nil
	}
}

// Close ends the connection. Calling it more than once is safe.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		c.closeErr = c.body.Close()
	})
	return c.closeErr
}

func (c *Conn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
