package api

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/patthub/impact-measurement-tool/internal/config"
)

const (
	defaultPort       = 8080
	maxPort           = 65535
	defaultHost       = "0.0.0.0"
	defaultCORSMaxAge = 86400
	defaultTimeout    = 30 * time.Second
	defaultLogLevel   = slog.LevelInfo
)

var (
	// ErrInvalidPort is returned when the port is outside 1-65535.
	ErrInvalidPort = errors.New("invalid port")

	// ErrEmptyHost is returned when no bind host is configured.
	ErrEmptyHost = errors.New("host cannot be empty")

	// ErrInvalidReadTimeout is returned for a zero or negative read timeout.
	ErrInvalidReadTimeout = errors.New("read timeout must be positive")

	// ErrInvalidWriteTimeout is returned for a zero or negative write timeout.
	ErrInvalidWriteTimeout = errors.New("write timeout must be positive")

	// ErrInvalidShutdownTimeout is returned for a zero or negative shutdown timeout.
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
)

type (
	// ServerConfig holds HTTP server configuration. Runtime dependencies are passed to NewServer.
	ServerConfig struct {
		Port               int
		Host               string
		ReadTimeout        time.Duration
		WriteTimeout       time.Duration
		ShutdownTimeout    time.Duration
		LogLevel           slog.Level
		CORSAllowedOrigins []string
		CORSAllowedMethods []string
		CORSAllowedHeaders []string
		CORSMaxAge         int
	}

	// CORSConfig implements middleware.CORSConfig.
	CORSConfig struct {
		AllowedOrigins []string
		AllowedMethods []string
		AllowedHeaders []string
		MaxAge         int
	}
)

// LoadServerConfig reads the IMETO_SERVER_* and IMETO_CORS_* variables.
func LoadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            config.GetEnvInt("IMETO_SERVER_PORT", defaultPort),
		Host:            config.GetEnvStr("IMETO_SERVER_HOST", defaultHost),
		ReadTimeout:     config.GetEnvDuration("IMETO_SERVER_READ_TIMEOUT", defaultTimeout),
		WriteTimeout:    config.GetEnvDuration("IMETO_SERVER_WRITE_TIMEOUT", defaultTimeout),
		ShutdownTimeout: config.GetEnvDuration("IMETO_SERVER_SHUTDOWN_TIMEOUT", defaultTimeout),
		LogLevel:        config.GetEnvLogLevel("LOG_LEVEL", defaultLogLevel),
		CORSAllowedOrigins: config.ParseCommaSeparatedList(
			config.GetEnvStr("IMETO_CORS_ALLOWED_ORIGINS", "*"),
		),
		CORSAllowedMethods: config.ParseCommaSeparatedList(
			config.GetEnvStr("IMETO_CORS_ALLOWED_METHODS", "GET,OPTIONS"),
		),
		CORSAllowedHeaders: config.ParseCommaSeparatedList(
			config.GetEnvStr("IMETO_CORS_ALLOWED_HEADERS", "Content-Type,X-Request-ID"),
		),
		CORSMaxAge: config.GetEnvInt("IMETO_CORS_MAX_AGE", defaultCORSMaxAge),
	}
}

// Address returns host:port.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ToCORSConfig returns the CORS settings in the form the middleware consumes.
func (c *ServerConfig) ToCORSConfig() *CORSConfig {
	return &CORSConfig{
		AllowedOrigins: c.CORSAllowedOrigins,
		AllowedMethods: c.CORSAllowedMethods,
		AllowedHeaders: c.CORSAllowedHeaders,
		MaxAge:         c.CORSMaxAge,
	}
}

func (c *CORSConfig) GetAllowedOrigins() []string { return c.AllowedOrigins }
func (c *CORSConfig) GetAllowedMethods() []string { return c.AllowedMethods }
func (c *CORSConfig) GetAllowedHeaders() []string { return c.AllowedHeaders }
func (c *CORSConfig) GetMaxAge() int              { return c.MaxAge }

// Validate checks ports and timeouts.
func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > maxPort {
		return fmt.Errorf("%w: %d, must be between 1 and %d", ErrInvalidPort, c.Port, maxPort)
	}

	if c.Host == "" {
		return ErrEmptyHost
	}

	if c.ReadTimeout <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidReadTimeout, c.ReadTimeout)
	}

	if c.WriteTimeout <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidWriteTimeout, c.WriteTimeout)
	}

	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidShutdownTimeout, c.ShutdownTimeout)
	}

	return nil
}
