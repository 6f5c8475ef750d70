package impact

import "context"

// Store defines what the domain needs for impact persistence and retrieval.
//
// The domain package owns the interface; concrete implementations (PostgreSQL,
// in-memory) live in internal/storage.
//
// Implementations must support:
//   - Idempotency: Save replaces the whole document stored under ResolveKey(c),
//     or creates it, in a single atomic upsert, stamping FetchedAt
//   - Validation: a case without any key fails with ErrMissingKey and nothing is written
//   - Schema drift: stored documents that no longer decode are skipped and logged on read
type Store interface {
	// Save upserts one case. inserted is true when no document existed for the key.
	Save(ctx context.Context, c *ImpactCase) (inserted bool, err error)

	// List returns up to filter.Limit cases after skipping filter.Skip, matching every
	// filter that is set. Ordering is storage-native.
	List(ctx context.Context, filter ListFilter) ([]ImpactCase, error)

	// Get returns the case stored under id, or ErrNotFound.
	Get(ctx context.Context, id string) (ImpactCase, error)

	// Count returns the number of cases matching filter.
	Count(ctx context.Context, filter Filter) (int, error)

	// HealthCheck verifies the storage backend is reachable.
	HealthCheck(ctx context.Context) error
}

// EvaluationStore persists institution evaluations keyed by institution UUID.
type EvaluationStore interface {
	SaveEvaluation(ctx context.Context, e *Evaluation) (inserted bool, err error)
	GetEvaluation(ctx context.Context, institutionUUID string) (Evaluation, error)
}
