package impact

import "time"

type (
	// Discipline is the evaluation outcome of one discipline within an institution.
	// Fields missing from the source are empty strings.
	Discipline struct {
		Name       string
		Code       string
		DomainName string
		DomainCode string
		Category   string
	}

	// Evaluation summarizes an institution's evaluation over one period.
	Evaluation struct {
		ID              *string
		InstitutionName *string
		InstitutionUUID *string

		// Period is the source string, e.g. "2017-2021". PeriodStart and PeriodEnd
		// are its parsed halves, nil when unparseable.
		Period      string
		PeriodStart *int
		PeriodEnd   *int

		Disciplines []Discipline

		// LastRefresh is parsed from a millisecond epoch string.
		LastRefresh *time.Time
		DataSource  *string

		Raw       Record
		FetchedAt time.Time
	}
)

// NormalizeEvaluation maps one raw evaluation record onto Evaluation.
// Like Normalize it never fails: anything unparseable becomes nil.
func NormalizeEvaluation(raw Record) Evaluation {
	if raw == nil {
		raw = Record{}
	}

	period := ""
	if s := OptionalString(raw["evaluationPeriod"]); s != nil {
		period = *s
	}

	start, end := ParsePeriod(period)

	return Evaluation{
		ID:              nonEmpty(raw[FieldID]),
		InstitutionName: OptionalString(raw[FieldInstitutionName]),
		InstitutionUUID: OptionalString(raw[FieldInstitutionUUID]),
		Period:          period,
		PeriodStart:     start,
		PeriodEnd:       end,
		Disciplines:     parseDisciplines(raw["disciplines"]),
		LastRefresh:     ParseEpochMillis(raw["lastRefresh"]),
		DataSource:      OptionalString(raw[FieldDataSource]),
		Raw:             raw,
	}
}

func parseDisciplines(v any) []Discipline {
	list, ok := v.([]any)
	if !ok {
		return []Discipline{}
	}

	disciplines := make([]Discipline, 0, len(list))

	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}

		disciplines = append(disciplines, Discipline{
			Name:       stringOrEmpty(entry[FieldDisciplineName]),
			Code:       stringOrEmpty(entry[FieldDisciplineCode]),
			DomainName: stringOrEmpty(entry[FieldDomainName]),
			DomainCode: stringOrEmpty(entry[FieldDomainCode]),
			Category:   stringOrEmpty(entry["category"]),
		})
	}

	return disciplines
}

func stringOrEmpty(v any) string {
	if s := OptionalString(v); s != nil {
		return *s
	}

	return ""
}
