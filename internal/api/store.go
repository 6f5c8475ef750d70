package api

import (
	"context"

	"github.com/patthub/impact-measurement-tool/internal/impact"
)

// ImpactReader is the read side of impact.Store that the API serves from.
type ImpactReader interface {
	List(ctx context.Context, filter impact.ListFilter) ([]impact.ImpactCase, error)
	Get(ctx context.Context, id string) (impact.ImpactCase, error)
	Count(ctx context.Context, filter impact.Filter) (int, error)
	HealthCheck(ctx context.Context) error
}

// EvaluationReader serves stored institution evaluations.
type EvaluationReader interface {
	GetEvaluation(ctx context.Context, institutionUUID string) (impact.Evaluation, error)
}

var _ ImpactReader = impact.Store(nil)
