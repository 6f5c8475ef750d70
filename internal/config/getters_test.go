package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvGetters(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	t.Setenv("IMETO_TEST_STR", "value")
	t.Setenv("IMETO_TEST_INT", "42")
	t.Setenv("IMETO_TEST_BAD_INT", "forty-two")
	t.Setenv("IMETO_TEST_BOOL", "Yes")
	t.Setenv("IMETO_TEST_DURATION", "1500ms")
	t.Setenv("IMETO_TEST_LEVEL", "warning")

	assert.Equal(t, "value", GetEnvStr("IMETO_TEST_STR", "default"))
	assert.Equal(t, "default", GetEnvStr("IMETO_TEST_MISSING", "default"))
	assert.Equal(t, 42, GetEnvInt("IMETO_TEST_INT", 7))
	assert.Equal(t, 7, GetEnvInt("IMETO_TEST_BAD_INT", 7))
	assert.Equal(t, int64(42), GetEnvInt64("IMETO_TEST_INT", 7))
	assert.True(t, GetEnvBool("IMETO_TEST_BOOL", false))
	assert.Equal(t, 1500*time.Millisecond, GetEnvDuration("IMETO_TEST_DURATION", time.Second))
	assert.Equal(t, slog.LevelWarn, GetEnvLogLevel("IMETO_TEST_LEVEL", slog.LevelInfo))

	t.Setenv("IMETO_TEST_BLANK", "   ")
	t.Setenv("IMETO_TEST_BAD_BOOL", "maybe")
	t.Setenv("IMETO_TEST_BAD_LEVEL", "verbose")

	assert.Equal(t, "default", GetEnvStr("IMETO_TEST_BLANK", "default"))
	assert.True(t, GetEnvBool("IMETO_TEST_BAD_BOOL", true))
	assert.Equal(t, slog.LevelError, GetEnvLogLevel("IMETO_TEST_BAD_LEVEL", slog.LevelError))
}

func TestParseCommaSeparatedList(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty input", input: "", expected: []string{}},
		{name: "trims whitespace", input: " a , b ,c", expected: []string{"a", "b", "c"}},
		{name: "drops empty entries", input: "a,,b, ,", expected: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCommaSeparatedList(tt.input))
		})
	}
}
