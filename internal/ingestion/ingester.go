package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/patthub/impact-measurement-tool/internal/config"
	"github.com/patthub/impact-measurement-tool/internal/events"
	"github.com/patthub/impact-measurement-tool/internal/impact"
	"github.com/patthub/impact-measurement-tool/internal/radon"
)

const recordRunTimeout = 5 * time.Second

type (
	// Ingester runs sequential, per-record-isolated ingestion over one or more scopes.
	Ingester struct {
		source    Source
		sink      Sink
		logger    *slog.Logger
		publisher events.Publisher
		metrics   *Metrics
		runLog    RunLog
		now       func() time.Time
	}

	// Option configures optional Ingester behavior.
	Option func(*Ingester)
)

// WithLogger replaces the default JSON logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Ingester) {
		i.logger = logger
	}
}

// WithPublisher publishes an event for every saved case.
func WithPublisher(p events.Publisher) Option {
	return func(i *Ingester) {
		i.publisher = p
	}
}

// WithMetrics records counters and run durations.
func WithMetrics(m *Metrics) Option {
	return func(i *Ingester) {
		i.metrics = m
	}
}

// WithRunLog records the outcome of every run.
func WithRunLog(l RunLog) Option {
	return func(i *Ingester) {
		i.runLog = l
	}
}

// NewIngester creates an Ingester reading from source and writing to sink.
func NewIngester(source Source, sink Sink, opts ...Option) *Ingester {
	i := &Ingester{
		source: source,
		sink:   sink,
		logger: slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: config.GetEnvLogLevel("LOG_LEVEL", slog.LevelInfo),
		})),
		publisher: events.NopPublisher{},
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// Run ingests every record of one scope. Records are normalized, backfilled with the
// scope's institution, and saved one at a time in source order. A record that fails
// to save is logged and counted; the run continues with the next one.
//
// Run returns when the source sequence is drained or ctx is cancelled.
func (i *Ingester) Run(ctx context.Context, scope radon.Scope, pageSize int) Result {
	if pageSize <= 0 {
		pageSize = radon.DefaultPageSize
	}

	result := Result{
		RunID:     uuid.New(),
		Scope:     scope,
		PageSize:  pageSize,
		StartedAt: i.now().UTC(),
	}
	_ = result.transition(RunStatusRunning)

	kind := string(scope.Kind)
	logger := i.logger.With(
		slog.String("run_id", result.RunID.String()),
		slog.String("scope_kind", kind),
		slog.String("scope_value", scope.Value),
	)

	logger.Info("Starting ingestion run", slog.Int("page_size", pageSize))

	for raw := range i.source.Impacts(ctx, scope, pageSize) {
		if err := ctx.Err(); err != nil {
			result.Err = err

			break
		}

		c := impact.Normalize(raw)
		backfillInstitution(&c, scope)

		inserted, err := i.sink.Save(ctx, &c)
		if err != nil {
			result.Failed++
			i.metrics.ObserveFailed(kind)
			i.logFailure(logger, &c, err)

			continue
		}

		result.Saved++
		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}

		i.metrics.ObserveSaved(kind, inserted)
		i.publish(ctx, logger, result.RunID, &c, inserted)

		if result.Saved%pageSize == 0 {
			logger.Info("Ingestion progress", slog.Int("saved", result.Saved), slog.Int("failed", result.Failed))
		}
	}

	if result.Err == nil && ctx.Err() != nil {
		result.Err = ctx.Err()
	}

	result.FinishedAt = i.now().UTC()
	_ = result.transition(finalStatus(&result))

	i.metrics.ObserveRun(kind, result.Status, result.Duration())
	i.recordRun(ctx, logger, &result)

	logger.Info("Ingestion run finished",
		slog.String("status", string(result.Status)),
		slog.Int("saved", result.Saved),
		slog.Int("inserted", result.Inserted),
		slog.Int("updated", result.Updated),
		slog.Int("failed", result.Failed),
		slog.Duration("duration", result.Duration()),
	)

	return result
}

// RunAll runs each scope to completion before starting the next. It stops early only
// when ctx is cancelled.
func (i *Ingester) RunAll(ctx context.Context, scopes []radon.Scope, pageSize int) Summary {
	var summary Summary

	for _, scope := range scopes {
		if ctx.Err() != nil {
			i.logger.Warn("Context cancelled, skipping remaining scopes",
				slog.Int("remaining", len(scopes)-len(summary.Results)),
			)

			break
		}

		summary.Add(i.Run(ctx, scope, pageSize))
	}

	i.logger.Info("All scopes finished",
		slog.Int("scopes", len(summary.Results)),
		slog.Int("saved", summary.Saved()),
		slog.Int("failed", summary.Failed()),
	)

	return summary
}

// backfillInstitution gives a case fetched for an institution that institution's id when
// the record carries none. Kind-code scopes have no single institution to fill in.
func backfillInstitution(c *impact.ImpactCase, scope radon.Scope) {
	if scope.Kind != radon.ScopeInstitution {
		return
	}

	if c.InstitutionUUID != nil && strings.TrimSpace(*c.InstitutionUUID) != "" {
		return
	}

	v := scope.Value
	c.InstitutionUUID = &v
}

func (i *Ingester) logFailure(logger *slog.Logger, c *impact.ImpactCase, err error) {
	attrs := []any{
		slog.String("source_record_id", c.SourceRecordID),
		slog.String("error", err.Error()),
	}

	if errors.Is(err, impact.ErrValidation) {
		logger.Warn("Skipping invalid impact record", attrs...)

		return
	}

	logger.Error("Failed to save impact record", attrs...)
}

func (i *Ingester) publish(ctx context.Context, logger *slog.Logger, runID uuid.UUID, c *impact.ImpactCase, inserted bool) {
	key, err := impact.ResolveKey(c)
	if err != nil {
		return
	}

	event := events.NewImpactUpserted(runID, key, c.InstitutionUUID, inserted)
	if err := i.publisher.PublishImpact(ctx, event); err != nil {
		logger.Warn("Failed to publish impact event",
			slog.String("case_id", key),
			slog.String("error", err.Error()),
		)
	}
}

func (i *Ingester) recordRun(ctx context.Context, logger *slog.Logger, result *Result) {
	if i.runLog == nil {
		return
	}

	// The run may have ended because ctx was cancelled; still record it.
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordRunTimeout)
	defer cancel()

	if err := i.runLog.RecordRun(recCtx, result); err != nil {
		logger.Error("Failed to record ingestion run", slog.String("error", err.Error()))
	}
}
