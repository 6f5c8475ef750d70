// Package impact provides the canonical domain models for RAD-on impact cases and
// institution evaluations, together with the normalizer that maps raw source records
// onto them.
//
// These are pure domain models without JSON tags. The storage layer keeps its own
// document shape and the API layer its own response shape, both mapped from here.
package impact

import "time"

type (
	// Record is one raw record as returned by the external source, decoded from JSON.
	// Values are whatever encoding/json produced: string, float64, bool, []any,
	// map[string]any or nil.
	Record = map[string]any

	// ImpactCase is the canonical, normalized description of one research impact.
	ImpactCase struct {
		// ImpactUUID is the explicit case identifier (impactUuid) when the source provides one.
		ImpactUUID *string

		// SourceRecordID is the opaque external identifier: impactUuid, falling back to id.
		// Empty when the source carried neither; it is never fabricated.
		SourceRecordID string

		InstitutionName *string
		InstitutionUUID *string

		// EvaluationYear is nil when the source value was missing or not an integer.
		EvaluationYear *int

		DisciplineName *string
		DisciplineCode *string
		DomainName     *string
		DomainCode     *string

		TitlePL       *string
		TitleEN       *string
		SummaryPL     *string
		SummaryEN     *string
		DescriptionPL *string
		DescriptionEN *string
		ConclusionPL  *string
		ConclusionEN  *string

		// ImpactAreas is never nil; an absent source value yields an empty slice.
		ImpactAreas     []string
		OtherImpactArea *string

		Interdisciplinary     *bool
		InterdisciplinarityPL *string
		InterdisciplinarityEN *string

		DataSource *string

		// Raw is the complete source record, kept verbatim.
		Raw Record

		// FetchedAt is stamped by the store on every write. Zero until persisted.
		FetchedAt time.Time
	}

	// InstitutionImpactSet groups the impact cases of a single institution.
	InstitutionImpactSet struct {
		InstitutionUUID string
		InstitutionName *string
		Cases           []ImpactCase
	}

	// Filter holds the optional equality filters shared by list and count queries.
	// Both filters are AND-combined when set.
	Filter struct {
		InstitutionUUID *string
		DisciplineCode  *string
	}

	// ListFilter is a Filter plus skip/limit pagination.
	ListFilter struct {
		Filter

		Skip  int
		Limit int
	}
)

// NewInstitutionImpactSet builds a set for institutionUUID. The institution name is
// taken from the first case that carries one.
func NewInstitutionImpactSet(institutionUUID string, cases []ImpactCase) InstitutionImpactSet {
	set := InstitutionImpactSet{
		InstitutionUUID: institutionUUID,
		Cases:           cases,
	}

	if set.Cases == nil {
		set.Cases = []ImpactCase{}
	}

	for i := range cases {
		if cases[i].InstitutionName != nil && *cases[i].InstitutionName != "" {
			set.InstitutionName = cases[i].InstitutionName

			break
		}
	}

	return set
}
