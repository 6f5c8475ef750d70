// Package config provides configuration and shared test utilities for the imeto services.
//
// Every getter falls back to its default when the variable is unset, blank, or does
// not parse.
package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

var errUnknownValue = errors.New("unknown value")

// lookup reads key, trims it, and converts it with parse.
func lookup[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}

	v, err := parse(raw)
	if err != nil {
		return defaultValue
	}

	return v
}

// GetEnvStr returns the trimmed value of key, e.g. GetEnvStr("RADON_BASE_URL", DefaultBaseURL).
func GetEnvStr(key, defaultValue string) string {
	return lookup(key, defaultValue, func(s string) (string, error) { return s, nil })
}

// GetEnvInt returns key parsed as a base-10 int.
func GetEnvInt(key string, defaultValue int) int {
	return lookup(key, defaultValue, strconv.Atoi)
}

// GetEnvInt64 returns key parsed as a base-10 int64.
func GetEnvInt64(key string, defaultValue int64) int64 {
	return lookup(key, defaultValue, func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	})
}

// GetEnvBool accepts true/1/yes and false/0/no, case-insensitively.
func GetEnvBool(key string, defaultValue bool) bool {
	return lookup(key, defaultValue, func(s string) (bool, error) {
		switch strings.ToLower(s) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		default:
			return false, errUnknownValue
		}
	})
}

// GetEnvDuration returns key parsed with time.ParseDuration ("10s", "500ms").
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	return lookup(key, defaultValue, time.ParseDuration)
}

// GetEnvLogLevel maps debug, info, warn/warning and error to slog levels.
func GetEnvLogLevel(key string, defaultValue slog.Level) slog.Level {
	return lookup(key, defaultValue, func(s string) (slog.Level, error) {
		switch strings.ToLower(s) {
		case "debug":
			return slog.LevelDebug, nil
		case "info":
			return slog.LevelInfo, nil
		case "warn", "warning":
			return slog.LevelWarn, nil
		case "error":
			return slog.LevelError, nil
		default:
			return defaultValue, errUnknownValue
		}
	})
}

// ParseCommaSeparatedList splits input on commas, trims each entry and drops blanks.
func ParseCommaSeparatedList(input string) []string {
	result := []string{}

	for part := range strings.SplitSeq(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
