package storage

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/patthub/impact-measurement-tool/internal/impact"
	"github.com/patthub/impact-measurement-tool/internal/ingestion"
)

var (
	_ impact.Store           = (*MemoryStore)(nil)
	_ impact.EvaluationStore = (*MemoryStore)(nil)
	_ ingestion.RunLog       = (*MemoryStore)(nil)
)

// MemoryStore is a thread-safe in-memory implementation of the impact, evaluation and
// run-log ports. List returns cases in first-insertion order.
type MemoryStore struct {
	// cases maps the resolved key to a private copy of the case
	cases map[string]impact.ImpactCase
	// order holds keys in first-insertion order
	order       []string
	evaluations map[string]impact.Evaluation
	runs        []ingestion.Result
	mutex       sync.RWMutex
	now         func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cases:       make(map[string]impact.ImpactCase),
		evaluations: make(map[string]impact.Evaluation),
		now:         time.Now,
	}
}

// HealthCheck always succeeds.
func (s *MemoryStore) HealthCheck(context.Context) error {
	return nil
}

// Save replaces or inserts c under its resolved key and stamps FetchedAt.
func (s *MemoryStore) Save(_ context.Context, c *impact.ImpactCase) (bool, error) {
	key, err := impact.ResolveKey(c)
	if err != nil {
		return false, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	c.FetchedAt = s.now().UTC()

	_, existed := s.cases[key]
	if !existed {
		s.order = append(s.order, key)
	}

	s.cases[key] = cloneCase(*c)

	return !existed, nil
}

// List returns matching cases after skip, up to limit.
func (s *MemoryStore) List(_ context.Context, filter impact.ListFilter) ([]impact.ImpactCase, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]impact.ImpactCase, 0, filter.Limit)
	skipped := 0

	for _, key := range s.order {
		if len(out) >= filter.Limit {
			break
		}

		c := s.cases[key]
		if !matches(&c, filter.Filter) {
			continue
		}

		if skipped < filter.Skip {
			skipped++

			continue
		}

		out = append(out, cloneCase(c))
	}

	return out, nil
}

// Get returns the case stored under id.
func (s *MemoryStore) Get(_ context.Context, id string) (impact.ImpactCase, error) {
	if strings.TrimSpace(id) == "" {
		return impact.ImpactCase{}, impact.ErrInvalidID
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	c, ok := s.cases[id]
	if !ok {
		return impact.ImpactCase{}, fmt.Errorf("impact case %q: %w", id, impact.ErrNotFound)
	}

	return cloneCase(c), nil
}

// Count returns the number of cases matching filter.
func (s *MemoryStore) Count(_ context.Context, filter impact.Filter) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	n := 0

	for _, c := range s.cases {
		if matches(&c, filter) {
			n++
		}
	}

	return n, nil
}

// SaveEvaluation replaces or inserts e under its institution UUID.
func (s *MemoryStore) SaveEvaluation(_ context.Context, e *impact.Evaluation) (bool, error) {
	key, err := impact.ResolveEvaluationKey(e)
	if err != nil {
		return false, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	e.FetchedAt = s.now().UTC()

	_, existed := s.evaluations[key]

	stored := *e
	stored.Disciplines = slices.Clone(e.Disciplines)
	stored.Raw = maps.Clone(e.Raw)
	s.evaluations[key] = stored

	return !existed, nil
}

// GetEvaluation returns the evaluation stored for institutionUUID.
func (s *MemoryStore) GetEvaluation(_ context.Context, institutionUUID string) (impact.Evaluation, error) {
	if strings.TrimSpace(institutionUUID) == "" {
		return impact.Evaluation{}, impact.ErrInvalidID
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, ok := s.evaluations[institutionUUID]
	if !ok {
		return impact.Evaluation{}, fmt.Errorf("evaluation for %q: %w", institutionUUID, impact.ErrNotFound)
	}

	e.Disciplines = slices.Clone(e.Disciplines)
	e.Raw = maps.Clone(e.Raw)

	return e, nil
}

// RecordRun appends a run result.
func (s *MemoryStore) RecordRun(_ context.Context, r *ingestion.Result) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.runs = append(s.runs, *r)

	return nil
}

// Runs returns recorded runs in order.
func (s *MemoryStore) Runs() []ingestion.Result {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return slices.Clone(s.runs)
}

func matches(c *impact.ImpactCase, f impact.Filter) bool {
	if f.InstitutionUUID != nil && (c.InstitutionUUID == nil || *c.InstitutionUUID != *f.InstitutionUUID) {
		return false
	}

	if f.DisciplineCode != nil && (c.DisciplineCode == nil || *c.DisciplineCode != *f.DisciplineCode) {
		return false
	}

	return true
}

// cloneCase copies the slice and map fields so callers cannot mutate stored state.
func cloneCase(c impact.ImpactCase) impact.ImpactCase {
	c.ImpactAreas = slices.Clone(c.ImpactAreas)
	if c.ImpactAreas == nil {
		c.ImpactAreas = []string{}
	}

	c.Raw = maps.Clone(c.Raw)
	if c.Raw == nil {
		c.Raw = impact.Record{}
	}

	return c
}
