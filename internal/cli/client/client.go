package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/die-net/lrucache"
	"github.com/gregjones/httpcache"
	"github.com/rs/zerolog"

	"github.com/shiftdesk/shiftdesk/internal/cli/session"
)

const (
	// DefaultBaseURL is used when neither the environment nor the config file sets one
	DefaultBaseURL = "http://localhost:8080"

	// AdminTokenHeader carries the admin credential on every admin request
	AdminTokenHeader = "X-Admin-Token"

	defaultTimeout = 30 * time.Second
	maxCacheAge    = 5 * 60 // seconds
)

// RequestHook runs before every request with the current session.
// ok is false when nobody is signed in.
type RequestHook func(req *http.Request, s session.Session, ok bool)

// APIError is a non-2xx response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// Client represents an HTTP client for the shiftdesk API
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *session.Store
	hooks      []RequestHook
	logger     zerolog.Logger
	cacheBytes int64
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHook appends a request hook after the built-in credentials hook
func WithHook(hook RequestHook) Option {
	return func(c *Client) {
		c.hooks = append(c.hooks, hook)
	}
}

// WithLogger sets the client logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With().Str("component", "api_client").Logger()
	}
}

// WithCache caches responses in memory according to the server's
// Cache-Control headers, up to maxBytes. The cache wraps whichever HTTP client
// the other options settle on, regardless of option order.
func WithCache(maxBytes int64) Option {
	return func(c *Client) {
		c.cacheBytes = maxBytes
	}
}

// withCacheTransport returns a copy of httpClient whose transport goes
// through an in-memory cache
func withCacheTransport(httpClient *http.Client, maxBytes int64) *http.Client {
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	cached := *httpClient
	cached.Transport = &httpcache.Transport{
		Cache:               lrucache.New(maxBytes, maxCacheAge),
		Transport:           base,
		MarkCachedResponses: true,
	}
	return &cached
}

// New creates the API client. The store may be nil for anonymous use.
func New(baseURL string, store *session.Store, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		store:      store,
		hooks:      []RequestHook{credentialsHook},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cacheBytes > 0 {
		c.httpClient = withCacheTransport(c.httpClient, c.cacheBytes)
	}
	return c
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// credentialsHook attaches the bearer token and, for admins, the admin header.
// Sessions stored without a token fall back to the phone number.
func credentialsHook(req *http.Request, s session.Session, ok bool) {
	if !ok {
		return
	}
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}
	if s.IsAdmin {
		credential := s.Token
		if credential == "" {
			credential = s.Phone
		}
		if credential != "" {
			req.Header.Set(AdminTokenHeader, credential)
		}
	}
}

func (c *Client) current() (session.Session, bool) {
	if c.store == nil {
		return session.Session{}, false
	}
	return c.store.Current()
}

// do sends a JSON request and decodes a JSON response into out when non-nil
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	s, ok := c.current()
	for _, hook := range c.hooks {
		hook(req, s, ok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Bool("cached", resp.Header.Get(httpcache.XFromCache) != "").
		Msg("API request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, respBody)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	message := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		message = payload.Error
		if payload.Details != "" {
			message += ": " + payload.Details
		}
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: message}
}
