package ingestion_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patthub/impact-measurement-tool/internal/impact"
	"github.com/patthub/impact-measurement-tool/internal/ingestion"
	"github.com/patthub/impact-measurement-tool/internal/radon"
	"github.com/patthub/impact-measurement-tool/internal/storage"
)

func TestPipeline_TwoPagesIntoStore(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	pages := map[string]string{
		"":   `{"results":[{"impactUuid":"p1-a","titlePl":"A"},{"impactUuid":"p1-b"}],"pagination":{"token":"T2"}}`,
		"T2": `{"results":[{"impactUuid":"p2-a","institutionUuid":"other-inst"}],"pagination":{"token":""}}`,
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "inst-A", r.URL.Query().Get("institutionUuid"))

		_, _ = io.WriteString(w, pages[r.URL.Query().Get("token")])
	}))
	t.Cleanup(ts.Close)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	client, err := radon.NewClient(&radon.Config{
		BaseURL:           ts.URL,
		Timeout:           time.Second,
		RetryDelay:        time.Millisecond,
		RequestsPerSecond: 1000,
		PageSize:          2,
	}, radon.WithLogger(logger))
	require.NoError(t, err)

	store := storage.NewMemoryStore()

	ingester := ingestion.NewIngester(client, store,
		ingestion.WithLogger(logger),
		ingestion.WithRunLog(store),
	)

	result := ingester.Run(t.Context(), radon.InstitutionScope("inst-A"), 2)

	assert.Equal(t, ingestion.RunStatusCompleted, result.Status)
	assert.Equal(t, 3, result.Saved)
	assert.Equal(t, 3, result.Inserted)
	assert.Zero(t, result.Failed)

	cases, err := store.List(t.Context(), impact.ListFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, cases, 3)

	wantInstitution := map[string]string{"p1-a": "inst-A", "p1-b": "inst-A", "p2-a": "other-inst"}

	for _, c := range cases {
		require.NotNil(t, c.InstitutionUUID, c.SourceRecordID)
		assert.Equal(t, wantInstitution[c.SourceRecordID], *c.InstitutionUUID)
	}

	again := ingester.Run(t.Context(), radon.InstitutionScope("inst-A"), 2)
	assert.Equal(t, 3, again.Updated, "re-ingesting a scope updates in place")

	n, err := store.Count(t.Context(), impact.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.Len(t, store.Runs(), 2)
}
