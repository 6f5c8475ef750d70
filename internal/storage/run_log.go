package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/patthub/impact-measurement-tool/internal/ingestion"
)

var _ ingestion.RunLog = (*ImpactStore)(nil)

// RecordRun inserts the outcome of one ingestion run into ingestion_runs.
// Recording the same run twice overwrites the earlier row.
func (s *ImpactStore) RecordRun(ctx context.Context, r *ingestion.Result) error {
	var errText sql.NullString
	if r.Err != nil {
		errText = sql.NullString{String: r.Err.Error(), Valid: true}
	}

	query := `
		INSERT INTO ingestion_runs (
			run_id, scope_kind, scope_value, page_size, status,
			saved, inserted, updated, failed,
			started_at, finished_at, error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (run_id)
		DO UPDATE SET
			status = EXCLUDED.status,
			saved = EXCLUDED.saved,
			inserted = EXCLUDED.inserted,
			updated = EXCLUDED.updated,
			failed = EXCLUDED.failed,
			finished_at = EXCLUDED.finished_at,
			error = EXCLUDED.error
	`

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.conn.ExecContext(ctx, query,
		r.RunID,
		string(r.Scope.Kind),
		r.Scope.Value,
		r.PageSize,
		string(r.Status),
		r.Saved,
		r.Inserted,
		r.Updated,
		r.Failed,
		r.StartedAt,
		r.FinishedAt,
		errText,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrImpactStoreFailed, classify("record ingestion run", err))
	}

	return nil
}
