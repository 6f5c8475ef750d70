package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRadon serves one page of impacts per institution and a single evaluation.
func fakeRadon(t *testing.T) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.HasSuffix(r.URL.Path, "/impacts"):
			inst := r.URL.Query().Get("institutionUuid")
			if inst == "" {
				inst = "kind-" + r.URL.Query().Get("kindCode")
			}

			_, _ = io.WriteString(w, `{"results":[
				{"impactUuid":"`+inst+`-1","titlePl":"Pierwszy"},
				{"impactUuid":"`+inst+`-2","titlePl":"Drugi"},
				{"titlePl":"bez klucza"}
			]}`)
		case strings.HasSuffix(r.URL.Path, "/evaluations"):
			_, _ = io.WriteString(w, `{"results":[{"institutionUuid":"inst-1","evaluationPeriod":"2017-2021"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)

	return ts
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)

	err := cmd.ExecuteContext(t.Context())

	return out.String(), err
}

func setupEnv(t *testing.T) {
	t.Helper()

	ts := fakeRadon(t)

	t.Setenv("RADON_BASE_URL", ts.URL)
	t.Setenv("RADON_RETRY_DELAY", "1ms")
	t.Setenv("RADON_REQUESTS_PER_SECOND", "1000")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("PROMETHEUS_PUSHGATEWAY_URL", "")
	t.Setenv("LOG_LEVEL", "error")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestImpactsCommand_DryRun(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	setupEnv(t)

	file := writeFile(t, "institutions.txt", "inst-1,\n\ninst-2\ninst-1\n")

	out, err := runCLI(t, "impacts", "--dry-run", "--institutions-file", file)
	require.NoError(t, err, "per-record failures do not fail the command")

	assert.Contains(t, out, "institutionUuid=inst-1")
	assert.Contains(t, out, "institutionUuid=inst-2")
	assert.Contains(t, out, "completed_with_errors")
	assert.Contains(t, out, "Total: 2 scope(s), 4 saved, 2 failed")
}

func TestImpactsAllCommand_DryRun(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	setupEnv(t)

	out, err := runCLI(t, "impacts-all", "--dry-run", "--kind-code", "3", "--page-size", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "kindCode=3")
	assert.Contains(t, out, "Total: 1 scope(s), 2 saved, 1 failed")
}

func TestPlanCommand_DryRun(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	setupEnv(t)

	plan := writeFile(t, "plan.yaml", "page_size: 25\ninstitutions:\n  - inst-9\nkind_codes:\n  - \"1\"\n")

	out, err := runCLI(t, "plan", "--dry-run", "--file", plan)
	require.NoError(t, err)
	assert.Contains(t, out, "institutionUuid=inst-9")
	assert.Contains(t, out, "kindCode=1")
	assert.Contains(t, out, "Total: 2 scope(s), 4 saved, 2 failed")
}

func TestEvaluationsCommand_DryRun(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	setupEnv(t)

	out, err := runCLI(t, "evaluations", "--dry-run", "--institution-name", "Uniwersytet")
	require.NoError(t, err)
	assert.Contains(t, out, `Evaluations for "Uniwersytet": 1 saved, 0 failed`)
}

func TestCommandErrors(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	setupEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing institutions file flag", []string{"impacts", "--dry-run"}},
		{"institutions file does not exist", []string{"impacts", "--dry-run", "-f", filepath.Join(t.TempDir(), "none.txt")}},
		{"empty kind code", []string{"impacts-all", "--dry-run", "--kind-code", " "}},
		{"missing plan flag", []string{"plan", "--dry-run"}},
		{"missing institution name", []string{"evaluations", "--dry-run"}},
		{"unexpected argument", []string{"impacts-all", "--dry-run", "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestInvalidRadonConfig(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	setupEnv(t)
	t.Setenv("RADON_BASE_URL", "not a url")

	_, err := runCLI(t, "impacts-all", "--dry-run")
	assert.ErrorContains(t, err, "invalid RAD-on configuration")
}

func TestPushgateway(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	setupEnv(t)

	var pushes atomic.Int32

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && strings.Contains(r.URL.Path, "/metrics/job/imeto_ingester") {
			pushes.Add(1)
		}

		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(gateway.Close)

	_, err := runCLI(t, "impacts-all", "--dry-run", "--pushgateway", gateway.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(1), pushes.Load())
}
