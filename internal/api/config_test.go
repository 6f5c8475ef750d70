package api

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newLocalListener() (net.Listener, error) {
	return net.Listen("tcp", "127.0.0.1:0")
}

func TestLoadServerConfig(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	t.Setenv("IMETO_SERVER_PORT", "9090")
	t.Setenv("IMETO_SERVER_READ_TIMEOUT", "5s")
	t.Setenv("IMETO_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := LoadServerConfig()

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, []string{"GET", "OPTIONS"}, cfg.CORSAllowedMethods)
	assert.Equal(t, "0.0.0.0:9090", cfg.Address())
	assert.NoError(t, cfg.Validate())

	cors := cfg.ToCORSConfig()
	assert.Equal(t, cfg.CORSAllowedOrigins, cors.GetAllowedOrigins())
	assert.Equal(t, defaultCORSMaxAge, cors.GetMaxAge())
}

func TestServerConfigValidate(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr error
	}{
		{"port zero", func(c *ServerConfig) { c.Port = 0 }, ErrInvalidPort},
		{"port too high", func(c *ServerConfig) { c.Port = 70000 }, ErrInvalidPort},
		{"empty host", func(c *ServerConfig) { c.Host = "" }, ErrEmptyHost},
		{"read timeout", func(c *ServerConfig) { c.ReadTimeout = 0 }, ErrInvalidReadTimeout},
		{"write timeout", func(c *ServerConfig) { c.WriteTimeout = -time.Second }, ErrInvalidWriteTimeout},
		{"shutdown timeout", func(c *ServerConfig) { c.ShutdownTimeout = 0 }, ErrInvalidShutdownTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}
}
