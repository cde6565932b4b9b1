// ABOUTME: HTTP client for the Samar Blogs API
// ABOUTME: Single chokepoint for backend calls, carrying cookie and bearer fallback credentials

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/samarblogs/blogcli/internal/config"
	"github.com/samarblogs/blogcli/internal/tokenstore"
)

// maxBodyBytes caps how much of a response body is read
const maxBodyBytes = 10 << 20

const userAgent = "samar-blogs-cli"

var (
	// ErrNetwork means the backend could not be reached at all
	ErrNetwork = errors.New("network unavailable, check your connection")
	// ErrTimeout means the request deadline passed before a response arrived
	ErrTimeout = errors.New("request timed out")
	// ErrCanceled means the caller canceled the request
	ErrCanceled = errors.New("request canceled")
	// ErrInvalidResponse means the backend answered with a body that is not JSON
	ErrInvalidResponse = errors.New("invalid response from server")
)

// APIError is a non-2xx response from the backend
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Unauthorized reports whether the backend rejected our credentials
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// errorBody matches the error shapes the backend produces
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Client is the API client for the Samar Blogs backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     tokenstore.Store
	limiter    *rate.Limiter
	jar        *sessionJar
	cookiePath string
}

// Option configures a Client
type Option func(*Client)

// WithTokenStore sets where the fallback bearer token is read from
func WithTokenStore(s tokenstore.Store) Option {
	return func(c *Client) {
		c.tokens = s
	}
}

// WithHTTPClient replaces the underlying http.Client. A cookie jar is
// attached if it has none.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithCookieFile persists the session cookie to path between runs
func WithCookieFile(path string) Option {
	return func(c *Client) {
		c.cookiePath = path
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRateLimit throttles outgoing requests. rps <= 0 disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New creates a new API client with the given base URL
func New(baseURL string, opts ...Option) (*Client, error) {
	if err := config.ValidateURL(baseURL); err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens: tokenstore.NewMemory(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient.Jar == nil {
		jar, err := newSessionJar(baseURL, c.cookiePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.jar = jar
		c.httpClient.Jar = jar
	}

	return c, nil
}

// ClearCredentials drops the session cookie and the fallback token
// locally, whatever the backend thinks of them.
func (c *Client) ClearCredentials() {
	if c.jar != nil {
		c.jar.Reset()
	}
	if err := c.tokens.Clear(); err != nil {
		slog.Warn("Failed to clear fallback token", "error", err)
	}
}

// BaseURL returns the backend URL requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Tokens returns the fallback token store
func (c *Client) Tokens() tokenstore.Store {
	return c.tokens
}

// Request sends method path to the backend and returns the JSON body
// verbatim. body is JSON-encoded when non-nil. The session cookie is
// always sent; the fallback token, when stored, is sent as a bearer
// token too and the server decides which one counts.
func (c *Client) Request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, c.handleRequestError(ctx, err)
			}
			// Wait refuses up front when the deadline is closer than the next token
			return nil, ErrTimeout
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Load()
	if err != nil {
		slog.Warn("Failed to read fallback token", "error", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	slog.Debug("API request", "method", method, "path", path, "request_id", requestID, "bearer", token != "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.handleRequestError(ctx, err)
	}

	slog.Debug("API response", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.handleErrorResponse(resp.StatusCode, data)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(data) {
		return nil, ErrInvalidResponse
	}
	return json.RawMessage(data), nil
}

// do sends a request and decodes the response into out when non-nil
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	raw, err := c.Request(ctx, method, path, in)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// handleRequestError converts transport failures to the client's error taxonomy
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ErrCanceled
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return ErrTimeout
	}
	slog.Debug("Transport failure", "base_url", c.baseURL, "error", err)
	return fmt.Errorf("cannot connect to backend at %s: %w", c.baseURL, ErrNetwork)
}

// handleErrorResponse builds an APIError and drops the fallback token on 401
func (c *Client) handleErrorResponse(status int, data []byte) error {
	if status == http.StatusUnauthorized {
		if err := c.tokens.Clear(); err != nil {
			slog.Warn("Failed to clear rejected fallback token", "error", err)
		}
	}

	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return &APIError{Status: status, Message: fmt.Sprintf("API error (status %d)", status)}
	}

	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	if msg == "" {
		msg = "API error"
	}
	return &APIError{Status: status, Message: msg}
}

// ErrorMessage turns any client error into text fit for display
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrNetwork):
		return "Unable to reach the server. Please check your connection and try again."
	case errors.Is(err, ErrTimeout):
		return "The server took too long to respond. Please try again."
	case errors.Is(err, ErrCanceled):
		return "Request canceled."
	case errors.Is(err, ErrInvalidResponse):
		return "The server sent an unexpected response. Please try again later."
	default:
		return err.Error()
	}
}
