package middleware

import (
	"time"

	"github.com/patthub/impact-measurement-tool/internal/config"
)

const (
	defaultGlobalRPS           = 100
	defaultClientRPS           = 20
	defaultMaxClients          = 10000
	burstCapacityMultiplier    = 2
	rateLimiterCleanupInterval = 5 * time.Minute
	rateLimiterIdleTimeout     = time.Hour
)

// Config holds rate limiter configuration.
//
// Limits are requests per second at two tiers: one bucket shared by every request and
// one bucket per client address. A zero burst means 2 × rate.
type Config struct {
	GlobalRPS   int
	ClientRPS   int
	GlobalBurst int
	ClientBurst int

	// TrustProxy keys clients by the first X-Forwarded-For hop instead of the socket address.
	TrustProxy bool

	CleanupInterval time.Duration
	IdleTimeout     time.Duration
	MaxClients      int
}

// LoadConfig reads the IMETO_* rate limit variables.
func LoadConfig() *Config {
	return &Config{
		GlobalRPS:       config.GetEnvInt("IMETO_GLOBAL_RPS", defaultGlobalRPS),
		ClientRPS:       config.GetEnvInt("IMETO_CLIENT_RPS", defaultClientRPS),
		GlobalBurst:     config.GetEnvInt("IMETO_GLOBAL_BURST", 0),
		ClientBurst:     config.GetEnvInt("IMETO_CLIENT_BURST", 0),
		TrustProxy:      config.GetEnvBool("IMETO_TRUST_PROXY", false),
		CleanupInterval: config.GetEnvDuration("IMETO_RATE_LIMIT_CLEANUP_INTERVAL", rateLimiterCleanupInterval),
		IdleTimeout:     config.GetEnvDuration("IMETO_RATE_LIMIT_IDLE_TIMEOUT", rateLimiterIdleTimeout),
		MaxClients:      config.GetEnvInt("IMETO_RATE_LIMIT_MAX_CLIENTS", defaultMaxClients),
	}
}

func burstFor(rps, override int) int {
	if override > 0 {
		return override
	}

	return max(rps*burstCapacityMultiplier, 1)
}
