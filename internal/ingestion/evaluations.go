package ingestion

import (
	"context"
	"log/slog"

	"github.com/patthub/impact-measurement-tool/internal/impact"
)

// EvaluationResult counts the outcome of one evaluation ingestion.
type EvaluationResult struct {
	InstitutionName string
	Saved           int
	Failed          int
}

// EvaluationIngester stores institution evaluations fetched by institution name.
type EvaluationIngester struct {
	source EvaluationSource
	store  impact.EvaluationStore
	logger *slog.Logger
}

// NewEvaluationIngester shares the logger configuration of an Ingester.
func NewEvaluationIngester(source EvaluationSource, store impact.EvaluationStore, opts ...Option) *EvaluationIngester {
	base := NewIngester(nil, nil, opts...)

	return &EvaluationIngester{
		source: source,
		store:  store,
		logger: base.logger,
	}
}

// Run saves every evaluation returned for institutionName. Records without an
// institution UUID are logged and skipped.
func (e *EvaluationIngester) Run(ctx context.Context, institutionName string, pageSize int) EvaluationResult {
	result := EvaluationResult{InstitutionName: institutionName}
	logger := e.logger.With(slog.String("institution_name", institutionName))

	for raw := range e.source.Evaluations(ctx, institutionName, pageSize) {
		if ctx.Err() != nil {
			break
		}

		ev := impact.NormalizeEvaluation(raw)

		if _, err := e.store.SaveEvaluation(ctx, &ev); err != nil {
			result.Failed++

			logger.Warn("Failed to save evaluation",
				slog.String("period", ev.Period),
				slog.String("error", err.Error()),
			)

			continue
		}

		result.Saved++
	}

	logger.Info("Evaluation ingestion finished",
		slog.Int("saved", result.Saved),
		slog.Int("failed", result.Failed),
	)

	return result
}
