package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/patthub/impact-measurement-tool/internal/config"
	"github.com/patthub/impact-measurement-tool/internal/impact"
)

// ErrImpactStoreFailed is returned when an impact storage operation fails.
var ErrImpactStoreFailed = errors.New("impact storage failed")

var (
	_ impact.Store           = (*ImpactStore)(nil)
	_ impact.EvaluationStore = (*ImpactStore)(nil)
)

type (
	// ImpactStore persists impact cases, evaluations and run records in PostgreSQL.
	//
	// Each case is one row keyed by impact.ResolveKey: the normalized fields as a JSONB
	// document, the raw source record verbatim, and a handful of promoted columns used
	// for filtering.
	ImpactStore struct {
		conn         *Connection
		logger       *slog.Logger
		queryTimeout time.Duration
	}

	// ImpactStoreOption configures optional ImpactStore behavior.
	ImpactStoreOption func(*ImpactStore)
)

// WithStoreLogger replaces the default JSON logger.
func WithStoreLogger(logger *slog.Logger) ImpactStoreOption {
	return func(s *ImpactStore) {
		s.logger = logger
	}
}

// WithQueryTimeout bounds each store operation. Zero disables the bound.
func WithQueryTimeout(d time.Duration) ImpactStoreOption {
	return func(s *ImpactStore) {
		s.queryTimeout = d
	}
}

// NewImpactStore creates a PostgreSQL-backed impact store.
// Returns ErrNoDatabaseConnection if conn is nil. The store does not own conn.
func NewImpactStore(conn *Connection, opts ...ImpactStoreOption) (*ImpactStore, error) {
	if conn == nil || conn.DB == nil {
		return nil, ErrNoDatabaseConnection
	}

	s := &ImpactStore{
		conn: conn,
		logger: slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: config.GetEnvLogLevel("LOG_LEVEL", slog.LevelInfo),
		})),
		queryTimeout: defaultQueryTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// HealthCheck verifies the database connection is healthy.
func (s *ImpactStore) HealthCheck(ctx context.Context) error {
	return s.conn.HealthCheck(ctx)
}

func (s *ImpactStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, s.queryTimeout)
}

// Save upserts one impact case under its resolved key, replacing every stored field
// and stamping fetched_at. It reports whether the row was newly inserted.
//
// On success c.FetchedAt holds the stamped time.
func (s *ImpactStore) Save(ctx context.Context, c *impact.ImpactCase) (bool, error) {
	key, err := impact.ResolveKey(c)
	if err != nil {
		return false, err
	}

	document, err := json.Marshal(toImpactDocument(c))
	if err != nil {
		return false, fmt.Errorf("%w: failed to marshal document: %w", ErrImpactStoreFailed, err)
	}

	raw, err := marshalJSONB(c.Raw)
	if err != nil {
		return false, fmt.Errorf("%w: failed to marshal raw record: %w", ErrImpactStoreFailed, err)
	}

	fetchedAt := time.Now().UTC()

	// RETURNING (xmax = 0) is true for a fresh insert and false when ON CONFLICT updated.
	query := `
		INSERT INTO impact_cases (
			case_id,
			source_record_id,
			institution_uuid,
			institution_name,
			evaluation_year,
			discipline_code,
			domain_code,
			document,
			raw,
			fetched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (case_id)
		DO UPDATE SET
			source_record_id = EXCLUDED.source_record_id,
			institution_uuid = EXCLUDED.institution_uuid,
			institution_name = EXCLUDED.institution_name,
			evaluation_year = EXCLUDED.evaluation_year,
			discipline_code = EXCLUDED.discipline_code,
			domain_code = EXCLUDED.domain_code,
			document = EXCLUDED.document,
			raw = EXCLUDED.raw,
			fetched_at = EXCLUDED.fetched_at,
			updated_at = CURRENT_TIMESTAMP
		RETURNING (xmax = 0) AS inserted
	`

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var inserted bool

	err = s.conn.QueryRowContext(ctx, query,
		key,
		c.SourceRecordID,
		nullableString(c.InstitutionUUID),
		nullableString(c.InstitutionName),
		nullableInt(c.EvaluationYear),
		nullableString(c.DisciplineCode),
		nullableString(c.DomainCode),
		string(document),
		raw,
		fetchedAt,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrImpactStoreFailed, classify("upsert impact case "+key, err))
	}

	c.FetchedAt = fetchedAt

	s.logger.Debug("Impact case stored",
		slog.String("case_id", key),
		slog.Bool("inserted", inserted),
	)

	return inserted, nil
}

// List returns matching cases ordered by key. Rows whose document no longer decodes
// are skipped and logged.
func (s *ImpactStore) List(ctx context.Context, filter impact.ListFilter) ([]impact.ImpactCase, error) {
	where, args := whereClause(filter.Filter)

	args = append(args, filter.Limit, filter.Skip)

	//nolint:gosec // where is built from fixed fragments, values are parameterized
	query := `
		SELECT case_id, document, raw, fetched_at
		FROM impact_cases` + where + `
		ORDER BY case_id
		LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImpactStoreFailed, classify("list impact cases", err))
	}

	defer func() {
		_ = rows.Close()
	}()

	cases := make([]impact.ImpactCase, 0, filter.Limit)

	for rows.Next() {
		var (
			caseID    string
			document  []byte
			raw       []byte
			fetchedAt time.Time
		)

		if err := rows.Scan(&caseID, &document, &raw, &fetchedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan row: %w", ErrImpactStoreFailed, err)
		}

		c, err := decodeImpactRow(document, raw, fetchedAt)
		if err != nil {
			s.logger.Warn("Skipping undecodable impact case",
				slog.String("case_id", caseID),
				slog.String("error", err.Error()),
			)

			continue
		}

		cases = append(cases, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImpactStoreFailed, classify("iterate impact cases", err))
	}

	return cases, nil
}

// Get returns the case stored under id, or impact.ErrNotFound.
func (s *ImpactStore) Get(ctx context.Context, id string) (impact.ImpactCase, error) {
	if strings.TrimSpace(id) == "" {
		return impact.ImpactCase{}, impact.ErrInvalidID
	}

	query := `SELECT document, raw, fetched_at FROM impact_cases WHERE case_id = $1`

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		document  []byte
		raw       []byte
		fetchedAt time.Time
	)

	err := s.conn.QueryRowContext(ctx, query, id).Scan(&document, &raw, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return impact.ImpactCase{}, fmt.Errorf("impact case %q: %w", id, impact.ErrNotFound)
	}

	if err != nil {
		return impact.ImpactCase{}, fmt.Errorf("%w: %w", ErrImpactStoreFailed, classify("get impact case", err))
	}

	c, err := decodeImpactRow(document, raw, fetchedAt)
	if err != nil {
		s.logger.Warn("Skipping undecodable impact case",
			slog.String("case_id", id),
			slog.String("error", err.Error()),
		)

		return impact.ImpactCase{}, fmt.Errorf("impact case %q: %w", id, impact.ErrNotFound)
	}

	return c, nil
}

// Count returns the number of cases matching filter.
func (s *ImpactStore) Count(ctx context.Context, filter impact.Filter) (int, error) {
	where, args := whereClause(filter)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var n int

	//nolint:gosec // where is built from fixed fragments, values are parameterized
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM impact_cases`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrImpactStoreFailed, classify("count impact cases", err))
	}

	return n, nil
}

// whereClause renders the AND-combined equality filters with positional arguments.
func whereClause(f impact.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if f.InstitutionUUID != nil {
		args = append(args, *f.InstitutionUUID)
		conds = append(conds, "institution_uuid = $"+strconv.Itoa(len(args)))
	}

	if f.DisciplineCode != nil {
		args = append(args, *f.DisciplineCode)
		conds = append(conds, "discipline_code = $"+strconv.Itoa(len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func decodeImpactRow(document, raw []byte, fetchedAt time.Time) (impact.ImpactCase, error) {
	var doc impactDocument
	if err := json.Unmarshal(document, &doc); err != nil {
		return impact.ImpactCase{}, fmt.Errorf("failed to decode document: %w", err)
	}

	var rec impact.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return impact.ImpactCase{}, fmt.Errorf("failed to decode raw record: %w", err)
	}

	return doc.toImpactCase(rec, fetchedAt), nil
}
