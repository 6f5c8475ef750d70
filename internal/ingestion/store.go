// Package ingestion drives impact-case ingestion runs: it pulls raw records from a
// paginated source, normalizes them and hands them to a sink one by one.
//
// This package defines the ports it needs (Source, Sink, RunLog). Concrete
// implementations live in internal/radon and internal/storage.
package ingestion

import (
	"context"
	"iter"

	"github.com/patthub/impact-measurement-tool/internal/impact"
	"github.com/patthub/impact-measurement-tool/internal/radon"
)

type (
	// Source yields raw impact records for a scope, page by page, lazily.
	//
	// A source never returns an error: fetch failures end the sequence early and are
	// logged by the source.
	Source interface {
		Impacts(ctx context.Context, scope radon.Scope, pageSize int) iter.Seq[impact.Record]
	}

	// EvaluationSource yields raw evaluation records for an institution name.
	EvaluationSource interface {
		Evaluations(ctx context.Context, institutionName string, pageSize int) iter.Seq[impact.Record]
	}

	// Sink persists one normalized case at a time.
	//
	// Save must be an idempotent upsert: re-ingesting the same scope produces no
	// duplicates. inserted reports whether the case was new.
	Sink interface {
		Save(ctx context.Context, c *impact.ImpactCase) (inserted bool, err error)
	}

	// RunLog records the outcome of each run for auditing.
	RunLog interface {
		RecordRun(ctx context.Context, result *Result) error
	}
)
