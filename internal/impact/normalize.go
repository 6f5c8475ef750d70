package impact

// Source field names used by the RAD-on impacts endpoint.
const (
	FieldImpactUUID          = "impactUuid"
	FieldID                  = "id"
	FieldInstitutionName     = "institutionName"
	FieldInstitutionUUID     = "institutionUuid"
	FieldEvaluationYear      = "evaluationYear"
	FieldDisciplineName      = "disciplineName"
	FieldDisciplineCode      = "disciplineCode"
	FieldDomainName          = "domainName"
	FieldDomainCode          = "domainCode"
	FieldTitlePL             = "titlePl"
	FieldTitleEN             = "titleEn"
	FieldSummaryPL           = "summaryPl"
	FieldSummaryEN           = "summaryEn"
	FieldDescriptionPL       = "impactDescriptionPl"
	FieldDescriptionEN       = "impactDescriptionEn"
	FieldConclusionPL        = "mainConclusionPl"
	FieldConclusionEN        = "mainConclusionEn"
	FieldImpactArea          = "impactArea"
	FieldOtherImpactArea     = "otherImpactArea"
	FieldIsInterdisciplinary = "isInterdisciplinary"
	FieldInterdisciplinePL   = "interdisciplinarityCharacteristicPl"
	FieldInterdisciplineEN   = "interdisciplinarityCharacteristicEn"
	FieldDataSource          = "dataSource"
)

// Normalize maps one raw source record onto the canonical ImpactCase.
//
// It is total: every input, including nil or an empty record, produces a case with
// missing optional fields left nil and ImpactAreas empty. The identifier is never
// invented; a record without impactUuid or id yields an empty SourceRecordID and is
// rejected later by the store.
func Normalize(raw Record) ImpactCase {
	if raw == nil {
		raw = Record{}
	}

	return ImpactCase{
		ImpactUUID:            nonEmpty(raw[FieldImpactUUID]),
		SourceRecordID:        SourceRecordID(raw),
		InstitutionName:       OptionalString(raw[FieldInstitutionName]),
		InstitutionUUID:       OptionalString(raw[FieldInstitutionUUID]),
		EvaluationYear:        ParseInt(raw[FieldEvaluationYear]),
		DisciplineName:        OptionalString(raw[FieldDisciplineName]),
		DisciplineCode:        OptionalString(raw[FieldDisciplineCode]),
		DomainName:            OptionalString(raw[FieldDomainName]),
		DomainCode:            OptionalString(raw[FieldDomainCode]),
		TitlePL:               OptionalString(raw[FieldTitlePL]),
		TitleEN:               OptionalString(raw[FieldTitleEN]),
		SummaryPL:             OptionalString(raw[FieldSummaryPL]),
		SummaryEN:             OptionalString(raw[FieldSummaryEN]),
		DescriptionPL:         OptionalString(raw[FieldDescriptionPL]),
		DescriptionEN:         OptionalString(raw[FieldDescriptionEN]),
		ConclusionPL:          OptionalString(raw[FieldConclusionPL]),
		ConclusionEN:          OptionalString(raw[FieldConclusionEN]),
		ImpactAreas:           StringList(raw[FieldImpactArea]),
		OtherImpactArea:       OptionalString(raw[FieldOtherImpactArea]),
		Interdisciplinary:     OptionalBool(raw[FieldIsInterdisciplinary]),
		InterdisciplinarityPL: OptionalString(raw[FieldInterdisciplinePL]),
		InterdisciplinarityEN: OptionalString(raw[FieldInterdisciplineEN]),
		DataSource:            OptionalString(raw[FieldDataSource]),
		Raw:                   raw,
	}
}

// SourceRecordID returns impactUuid, falling back to id, or "" when neither is set.
func SourceRecordID(raw Record) string {
	if id := nonEmpty(raw[FieldImpactUUID]); id != nil {
		return *id
	}

	if id := nonEmpty(raw[FieldID]); id != nil {
		return *id
	}

	return ""
}

func nonEmpty(v any) *string {
	s := OptionalString(v)
	if s == nil || *s == "" {
		return nil
	}

	return s
}
