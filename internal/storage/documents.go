package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/patthub/impact-measurement-tool/internal/impact"
)

type (
	// impactDocument is the JSONB shape of the normalized fields of an impact case.
	// Raw and fetched_at live in their own columns.
	impactDocument struct {
		ImpactUUID            *string  `json:"impact_uuid"`
		SourceRecordID        string   `json:"source_record_id"`
		InstitutionName       *string  `json:"institution_name"`
		InstitutionUUID       *string  `json:"institution_uuid"`
		EvaluationYear        *int     `json:"evaluation_year"`
		DisciplineName        *string  `json:"discipline_name"`
		DisciplineCode        *string  `json:"discipline_code"`
		DomainName            *string  `json:"domain_name"`
		DomainCode            *string  `json:"domain_code"`
		TitlePL               *string  `json:"title_pl"`
		TitleEN               *string  `json:"title_en"`
		SummaryPL             *string  `json:"summary_pl"`
		SummaryEN             *string  `json:"summary_en"`
		DescriptionPL         *string  `json:"impact_description_pl"`
		DescriptionEN         *string  `json:"impact_description_en"`
		ConclusionPL          *string  `json:"main_conclusion_pl"`
		ConclusionEN          *string  `json:"main_conclusion_en"`
		ImpactAreas           []string `json:"impact_areas"`
		OtherImpactArea       *string  `json:"other_impact_area"`
		Interdisciplinary     *bool    `json:"is_interdisciplinary"`
		InterdisciplinarityPL *string  `json:"interdisciplinarity_pl"`
		InterdisciplinarityEN *string  `json:"interdisciplinarity_en"`
		DataSource            *string  `json:"data_source"`
	}

	disciplineDocument struct {
		Name       string `json:"name"`
		Code       string `json:"code"`
		DomainName string `json:"domain_name"`
		DomainCode string `json:"domain_code"`
		Category   string `json:"category"`
	}
)

func toImpactDocument(c *impact.ImpactCase) impactDocument {
	return impactDocument{
		ImpactUUID:            c.ImpactUUID,
		SourceRecordID:        c.SourceRecordID,
		InstitutionName:       c.InstitutionName,
		InstitutionUUID:       c.InstitutionUUID,
		EvaluationYear:        c.EvaluationYear,
		DisciplineName:        c.DisciplineName,
		DisciplineCode:        c.DisciplineCode,
		DomainName:            c.DomainName,
		DomainCode:            c.DomainCode,
		TitlePL:               c.TitlePL,
		TitleEN:               c.TitleEN,
		SummaryPL:             c.SummaryPL,
		SummaryEN:             c.SummaryEN,
		DescriptionPL:         c.DescriptionPL,
		DescriptionEN:         c.DescriptionEN,
		ConclusionPL:          c.ConclusionPL,
		ConclusionEN:          c.ConclusionEN,
		ImpactAreas:           c.ImpactAreas,
		OtherImpactArea:       c.OtherImpactArea,
		Interdisciplinary:     c.Interdisciplinary,
		InterdisciplinarityPL: c.InterdisciplinarityPL,
		InterdisciplinarityEN: c.InterdisciplinarityEN,
		DataSource:            c.DataSource,
	}
}

func (d *impactDocument) toImpactCase(raw impact.Record, fetchedAt time.Time) impact.ImpactCase {
	areas := d.ImpactAreas
	if areas == nil {
		areas = []string{}
	}

	if raw == nil {
		raw = impact.Record{}
	}

	return impact.ImpactCase{
		ImpactUUID:            d.ImpactUUID,
		SourceRecordID:        d.SourceRecordID,
		InstitutionName:       d.InstitutionName,
		InstitutionUUID:       d.InstitutionUUID,
		EvaluationYear:        d.EvaluationYear,
		DisciplineName:        d.DisciplineName,
		DisciplineCode:        d.DisciplineCode,
		DomainName:            d.DomainName,
		DomainCode:            d.DomainCode,
		TitlePL:               d.TitlePL,
		TitleEN:               d.TitleEN,
		SummaryPL:             d.SummaryPL,
		SummaryEN:             d.SummaryEN,
		DescriptionPL:         d.DescriptionPL,
		DescriptionEN:         d.DescriptionEN,
		ConclusionPL:          d.ConclusionPL,
		ConclusionEN:          d.ConclusionEN,
		ImpactAreas:           areas,
		OtherImpactArea:       d.OtherImpactArea,
		Interdisciplinary:     d.Interdisciplinary,
		InterdisciplinarityPL: d.InterdisciplinarityPL,
		InterdisciplinarityEN: d.InterdisciplinarityEN,
		DataSource:            d.DataSource,
		Raw:                   raw,
		FetchedAt:             fetchedAt.UTC(),
	}
}

func toDisciplineDocuments(ds []impact.Discipline) []disciplineDocument {
	out := make([]disciplineDocument, len(ds))
	for i, d := range ds {
		out[i] = disciplineDocument(d)
	}

	return out
}

func fromDisciplineDocuments(ds []disciplineDocument) []impact.Discipline {
	out := make([]impact.Discipline, len(ds))
	for i, d := range ds {
		out[i] = impact.Discipline(d)
	}

	return out
}

// marshalJSONB marshals a map to JSONB. Nil or empty maps become an empty object
// because raw columns are NOT NULL.
func marshalJSONB(data map[string]any) (string, error) {
	if len(data) == 0 {
		return "{}", nil
	}

	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// nullableString converts an optional string into a SQL NULL-aware value.
func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}

	return sql.NullString{String: *s, Valid: true}
}

func nullableInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}

	return &ns.String
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}

	v := int(ni.Int64)

	return &v
}
