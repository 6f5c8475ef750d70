package radon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/patthub/impact-measurement-tool/internal/config"
	"github.com/patthub/impact-measurement-tool/internal/impact"
)

const (
	impactsPath     = "impacts"
	evaluationsPath = "evaluations"

	maxResponseBytes = 32 << 20
)

var (
	// ErrNotObject is returned when the response body is valid JSON but not an object.
	ErrNotObject = errors.New("response is not a JSON object")

	// ErrDecode is returned when the response body is not valid JSON.
	ErrDecode = errors.New("failed to decode response")

	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

type (
	// Client talks to the RAD-on open-data API.
	Client struct {
		baseURL    string
		httpClient *http.Client
		limiter    *RateLimiter
		cfg        *Config
		logger     *slog.Logger
	}

	// ClientOption configures a Client.
	ClientOption func(*Client)

	// Page is one decoded page of results.
	Page struct {
		// Results holds the object entries of the "results" array; other entries are dropped.
		Results []impact.Record
		// RawCount is the length of the "results" array before filtering.
		RawCount int
		// NextToken is pagination.token, or "" when absent.
		NextToken string
	}

	statusError struct {
		code int
	}
)

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: %d", ErrUnexpectedStatus, e.code)
}

func (e *statusError) Unwrap() error {
	return ErrUnexpectedStatus
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= http.StatusInternalServerError
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger replaces the default JSON logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimiter replaces the limiter derived from Config.RequestsPerSecond.
func WithRateLimiter(l *RateLimiter) ClientOption {
	return func(c *Client) {
		c.limiter = l
	}
}

// NewClient creates a RAD-on client. A nil cfg loads configuration from the environment.
func NewClient(cfg *Config, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		cfg = LoadConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		httpClient: &http.Client{},
		limiter:    NewRateLimiter(cfg.RequestsPerSecond),
		cfg:        cfg,
		logger: slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: config.GetEnvLogLevel("LOG_LEVEL", slog.LevelInfo),
		})),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// FetchPage retrieves one page of impacts for scope, starting at token ("" for the first page).
func (c *Client) FetchPage(ctx context.Context, scope Scope, pageSize int, token string) (Page, error) {
	if err := scope.Validate(); err != nil {
		return Page{}, err
	}

	params := url.Values{}
	params.Set(scope.Param(), scope.Value)

	return c.fetchPage(ctx, impactsPath, params, pageSize, token)
}

func (c *Client) fetchPage(
	ctx context.Context,
	path string,
	params url.Values,
	pageSize int,
	token string,
) (Page, error) {
	params.Set("resultNumbers", strconv.Itoa(pageSize))

	if token != "" {
		params.Set("token", token)
	}

	body, err := c.getJSON(ctx, path, params)
	if err != nil {
		return Page{}, err
	}

	return parsePage(body)
}

// parsePage extracts results and the pagination token from a decoded response body.
func parsePage(body any) (Page, error) {
	obj, ok := body.(map[string]any)
	if !ok {
		return Page{}, ErrNotObject
	}

	var page Page

	if results, ok := obj["results"].([]any); ok {
		page.RawCount = len(results)
		page.Results = make([]impact.Record, 0, len(results))

		for _, r := range results {
			if rec, ok := r.(map[string]any); ok {
				page.Results = append(page.Results, rec)
			}
		}
	}

	if pagination, ok := obj["pagination"].(map[string]any); ok {
		if tok, ok := pagination["token"].(string); ok {
			page.NextToken = tok
		}
	}

	return page, nil
}

// getJSON performs a rate-limited GET with bounded retries and decodes the body as JSON.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values) (any, error) {
	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, path, params.Encode())
	delay := c.cfg.RetryDelay

	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("Retrying RAD-on request",
				slog.String("path", path),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.String("error", lastErr.Error()),
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}

			delay *= 2
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := c.do(ctx, endpoint)
		if err == nil {
			return body, nil
		}

		lastErr = err

		if !isRetryable(ctx, err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", c.cfg.MaxRetries+1, lastErr)
}

func (c *Client) do(ctx context.Context, endpoint string) (any, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

		return nil, &statusError{code: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var body any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return body, nil
}

// isRetryable reports whether a failed attempt may be repeated.
// Transport errors and 429/5xx statuses are retried; decode errors and other statuses are not.
func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	var se *statusError
	if errors.As(err, &se) {
		return se.retryable()
	}

	return !errors.Is(err, ErrDecode)
}
