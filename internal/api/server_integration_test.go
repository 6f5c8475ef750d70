package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patthub/impact-measurement-tool/internal/api/middleware"
	"github.com/patthub/impact-measurement-tool/internal/config"
	"github.com/patthub/impact-measurement-tool/internal/impact"
	"github.com/patthub/impact-measurement-tool/internal/storage"
)

func TestReadAPIIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	testDB := config.SetupTestDatabase(ctx, t)

	store, err := storage.NewImpactStore(&storage.Connection{DB: testDB.Connection})
	require.NoError(t, err)

	for _, raw := range []impact.Record{
		{"impactUuid": "pg-1", "institutionUuid": "inst-pg", "disciplineCode": "D1", "impactArea": "kultura"},
		{"impactUuid": "pg-2", "institutionUuid": "inst-pg", "disciplineCode": "D2"},
	} {
		c := impact.Normalize(raw)
		_, err := store.Save(ctx, &c)
		require.NoError(t, err)
	}

	handler := newTestServer(t, store, WithEvaluations(store))

	rec := get(t, handler, "/api/v1/impacts?institution_uuid=inst-pg&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)

	list := decode[ImpactListResponse](t, rec)
	assert.Equal(t, 2, list.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "pg-1", list.Items[0].SourceRecordID)

	rec = get(t, handler, "/api/v1/impacts/pg-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"kultura"}, decode[ImpactResponse](t, rec).ImpactAreas)

	assert.Equal(t, http.StatusNotFound, get(t, handler, "/api/v1/impacts/pg-404").Code)
	assert.Equal(t, http.StatusNotFound, get(t, handler, "/api/v1/institutions/inst-pg/evaluation").Code)
	assert.Equal(t, http.StatusOK, get(t, handler, "/ready").Code)

	_, err = testDB.Connection.ExecContext(ctx, `
		INSERT INTO impact_cases (case_id, source_record_id, institution_uuid, document, raw, fetched_at)
		VALUES ('pg-drift', 'pg-drift', 'inst-pg', '{"impact_areas": "not-a-list"}', '{}', NOW())
	`)
	require.NoError(t, err)

	rec = get(t, handler, "/api/v1/impacts/pg-drift")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Impact not found", decode[middleware.Problem](t, rec).Detail)
}
