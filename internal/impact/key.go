package impact

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks input rejected before anything is written.
	ErrValidation = errors.New("validation failed")

	// ErrMissingKey is returned when no idempotency key can be resolved for a case.
	ErrMissingKey = fmt.Errorf("%w: impact case has no identifier (impactUuid, source_record_id or raw id)",
		ErrValidation)

	// ErrMissingInstitution is returned when an evaluation carries no institution UUID.
	ErrMissingInstitution = fmt.Errorf("%w: evaluation has no institution UUID", ErrValidation)

	// ErrInvalidID is returned by lookups given a blank identifier.
	ErrInvalidID = fmt.Errorf("%w: identifier cannot be empty", ErrValidation)

	// ErrNotFound is returned by lookups when no document matches the key.
	ErrNotFound = errors.New("not found")
)

// ResolveKey returns the idempotency key for c, in priority order:
//  1. the explicit case identifier (ImpactUUID)
//  2. SourceRecordID
//  3. an identifier recovered from the raw payload (impactUuid, then id)
//
// Returns ErrMissingKey when none of them is a non-blank string.
func ResolveKey(c *ImpactCase) (string, error) {
	if c == nil {
		return "", ErrMissingKey
	}

	if c.ImpactUUID != nil && strings.TrimSpace(*c.ImpactUUID) != "" {
		return *c.ImpactUUID, nil
	}

	if strings.TrimSpace(c.SourceRecordID) != "" {
		return c.SourceRecordID, nil
	}

	if c.Raw != nil {
		if id := SourceRecordID(c.Raw); strings.TrimSpace(id) != "" {
			return id, nil
		}
	}

	return "", ErrMissingKey
}

// ResolveEvaluationKey returns the institution UUID an evaluation is stored under.
func ResolveEvaluationKey(e *Evaluation) (string, error) {
	if e == nil || e.InstitutionUUID == nil || strings.TrimSpace(*e.InstitutionUUID) == "" {
		return "", ErrMissingInstitution
	}

	return *e.InstitutionUUID, nil
}
