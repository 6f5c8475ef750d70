// Package radon provides a client for the RAD-on / POL-on open-data API: paginated
// retrieval of impact cases and institution evaluations.
package radon

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/patthub/impact-measurement-tool/internal/config"
)

const (
	// DefaultBaseURL is the public RAD-on open-data endpoint for POL-on datasets.
	DefaultBaseURL = "https://radon.nauka.gov.pl/opendata/polon"

	// DefaultPageSize is the number of records requested per page.
	DefaultPageSize = 50

	defaultTimeout           = 10 * time.Second
	defaultMaxRetries        = 3
	defaultRetryDelay        = 500 * time.Millisecond
	defaultRequestsPerSecond = 5
)

var (
	// ErrInvalidBaseURL is returned when the base URL is empty or not absolute.
	ErrInvalidBaseURL = errors.New("invalid RAD-on base URL")

	// ErrInvalidTimeout is returned when the request timeout is zero or negative.
	ErrInvalidTimeout = errors.New("request timeout must be positive")

	// ErrInvalidRetries is returned when the retry count is negative.
	ErrInvalidRetries = errors.New("max retries cannot be negative")

	// ErrInvalidRate is returned when the request rate is zero or negative.
	ErrInvalidRate = errors.New("requests per second must be positive")
)

// Config holds RAD-on client configuration.
type Config struct {
	BaseURL           string
	Timeout           time.Duration // Bound on each attempt; retries get a fresh timeout
	MaxRetries        int           // Retries after the first attempt
	RetryDelay        time.Duration // Initial backoff, doubled on each retry
	RequestsPerSecond int
	PageSize          int
}

// LoadConfig loads RAD-on configuration from environment variables with fallback to defaults.
func LoadConfig() *Config {
	return &Config{
		BaseURL:           config.GetEnvStr("RADON_BASE_URL", DefaultBaseURL),
		Timeout:           config.GetEnvDuration("RADON_TIMEOUT", defaultTimeout),
		MaxRetries:        config.GetEnvInt("RADON_MAX_RETRIES", defaultMaxRetries),
		RetryDelay:        config.GetEnvDuration("RADON_RETRY_DELAY", defaultRetryDelay),
		RequestsPerSecond: config.GetEnvInt("RADON_REQUESTS_PER_SECOND", defaultRequestsPerSecond),
		PageSize:          config.GetEnvInt("RADON_PAGE_SIZE", DefaultPageSize),
	}
}

// Validate checks if the RAD-on configuration is valid.
func (c *Config) Validate() error {
	u, err := url.Parse(strings.TrimSpace(c.BaseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.BaseURL)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidTimeout, c.Timeout)
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidRetries, c.MaxRetries)
	}

	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidRate, c.RequestsPerSecond)
	}

	return nil
}
