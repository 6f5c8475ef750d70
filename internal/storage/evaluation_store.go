package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/patthub/impact-measurement-tool/internal/impact"
)

// evaluationDocument is the JSONB shape of an evaluation.
type evaluationDocument struct {
	ID              *string              `json:"id"`
	InstitutionName *string              `json:"institution_name"`
	Period          string               `json:"evaluation_period"`
	PeriodStart     *int                 `json:"period_start"`
	PeriodEnd       *int                 `json:"period_end"`
	Disciplines     []disciplineDocument `json:"disciplines"`
	LastRefresh     *time.Time           `json:"last_refresh"`
	DataSource      *string              `json:"data_source"`
}

// SaveEvaluation upserts an evaluation keyed by institution UUID, stamping fetched_at.
func (s *ImpactStore) SaveEvaluation(ctx context.Context, e *impact.Evaluation) (bool, error) {
	key, err := impact.ResolveEvaluationKey(e)
	if err != nil {
		return false, err
	}

	document, err := json.Marshal(evaluationDocument{
		ID:              e.ID,
		InstitutionName: e.InstitutionName,
		Period:          e.Period,
		PeriodStart:     e.PeriodStart,
		PeriodEnd:       e.PeriodEnd,
		Disciplines:     toDisciplineDocuments(e.Disciplines),
		LastRefresh:     e.LastRefresh,
		DataSource:      e.DataSource,
	})
	if err != nil {
		return false, fmt.Errorf("%w: failed to marshal evaluation: %w", ErrImpactStoreFailed, err)
	}

	raw, err := marshalJSONB(e.Raw)
	if err != nil {
		return false, fmt.Errorf("%w: failed to marshal raw evaluation: %w", ErrImpactStoreFailed, err)
	}

	fetchedAt := time.Now().UTC()

	query := `
		INSERT INTO institution_evaluations (institution_uuid, evaluation_period, document, raw, fetched_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (institution_uuid)
		DO UPDATE SET
			evaluation_period = EXCLUDED.evaluation_period,
			document = EXCLUDED.document,
			raw = EXCLUDED.raw,
			fetched_at = EXCLUDED.fetched_at
		RETURNING (xmax = 0) AS inserted
	`

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var inserted bool

	err = s.conn.QueryRowContext(ctx, query, key, e.Period, string(document), raw, fetchedAt).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrImpactStoreFailed, classify("upsert evaluation "+key, err))
	}

	e.FetchedAt = fetchedAt

	return inserted, nil
}

// GetEvaluation returns the evaluation stored for institutionUUID, or impact.ErrNotFound.
func (s *ImpactStore) GetEvaluation(ctx context.Context, institutionUUID string) (impact.Evaluation, error) {
	if strings.TrimSpace(institutionUUID) == "" {
		return impact.Evaluation{}, impact.ErrInvalidID
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		document  []byte
		raw       []byte
		fetchedAt time.Time
	)

	err := s.conn.QueryRowContext(ctx,
		`SELECT document, raw, fetched_at FROM institution_evaluations WHERE institution_uuid = $1`,
		institutionUUID,
	).Scan(&document, &raw, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return impact.Evaluation{}, fmt.Errorf("evaluation for %q: %w", institutionUUID, impact.ErrNotFound)
	}

	if err != nil {
		return impact.Evaluation{}, fmt.Errorf("%w: %w", ErrImpactStoreFailed, classify("get evaluation", err))
	}

	var doc evaluationDocument
	if err := json.Unmarshal(document, &doc); err != nil {
		s.logger.Warn("Skipping undecodable evaluation",
			slog.String("institution_uuid", institutionUUID),
			slog.String("error", err.Error()),
		)

		return impact.Evaluation{}, fmt.Errorf("evaluation for %q: %w", institutionUUID, impact.ErrNotFound)
	}

	var rec impact.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return impact.Evaluation{}, fmt.Errorf("%w: failed to decode raw evaluation: %w", ErrImpactStoreFailed, err)
	}

	uuid := institutionUUID

	return impact.Evaluation{
		ID:              doc.ID,
		InstitutionName: doc.InstitutionName,
		InstitutionUUID: &uuid,
		Period:          doc.Period,
		PeriodStart:     doc.PeriodStart,
		PeriodEnd:       doc.PeriodEnd,
		Disciplines:     fromDisciplineDocuments(doc.Disciplines),
		LastRefresh:     doc.LastRefresh,
		DataSource:      doc.DataSource,
		Raw:             rec,
		FetchedAt:       fetchedAt.UTC(),
	}, nil
}
