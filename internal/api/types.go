package api

import (
	"time"

	"github.com/patthub/impact-measurement-tool/internal/impact"
)

type (
	// HealthStatus is the /health body.
	HealthStatus struct {
		Status      string `json:"status"`
		ServiceName string `json:"serviceName"`
		Version     string `json:"version"`
		Uptime      string `json:"uptime,omitempty"`
	}

	// ImpactResponse is the API shape of one impact case.
	ImpactResponse struct {
		ImpactUUID            *string        `json:"impact_uuid"`
		SourceRecordID        string         `json:"source_record_id"`
		InstitutionName       *string        `json:"institution_name"`
		InstitutionUUID       *string        `json:"institution_uuid"`
		EvaluationYear        *int           `json:"evaluation_year"`
		DisciplineName        *string        `json:"discipline_name"`
		DisciplineCode        *string        `json:"discipline_code"`
		DomainName            *string        `json:"domain_name"`
		DomainCode            *string        `json:"domain_code"`
		TitlePL               *string        `json:"title_pl"`
		TitleEN               *string        `json:"title_en"`
		SummaryPL             *string        `json:"summary_pl"`
		SummaryEN             *string        `json:"summary_en"`
		DescriptionPL         *string        `json:"impact_description_pl"`
		DescriptionEN         *string        `json:"impact_description_en"`
		ConclusionPL          *string        `json:"main_conclusion_pl"`
		ConclusionEN          *string        `json:"main_conclusion_en"`
		ImpactAreas           []string       `json:"impact_areas"`
		OtherImpactArea       *string        `json:"other_impact_area"`
		Interdisciplinary     *bool          `json:"is_interdisciplinary"`
		InterdisciplinarityPL *string        `json:"interdisciplinarity_pl"`
		InterdisciplinarityEN *string        `json:"interdisciplinarity_en"`
		DataSource            *string        `json:"data_source"`
		Raw                   map[string]any `json:"raw"`
		FetchedAt             time.Time      `json:"fetched_at"`
	}

	// ImpactListResponse is one page of impacts plus the unpaged total.
	ImpactListResponse struct {
		Items []ImpactResponse `json:"items"`
		Total int              `json:"total"`
		Skip  int              `json:"skip"`
		Limit int              `json:"limit"`
	}

	// InstitutionImpactsResponse is one page of a single institution's impacts.
	InstitutionImpactsResponse struct {
		InstitutionUUID string           `json:"institution_uuid"`
		InstitutionName *string          `json:"institution_name"`
		Impacts         []ImpactResponse `json:"impacts"`
		Total           int              `json:"total"`
		Skip            int              `json:"skip"`
		Limit           int              `json:"limit"`
	}

	// DisciplineResponse is one discipline category inside an evaluation.
	DisciplineResponse struct {
		Name       string `json:"name"`
		Code       string `json:"code"`
		DomainName string `json:"domain_name"`
		DomainCode string `json:"domain_code"`
		Category   string `json:"category"`
	}

	// EvaluationResponse is the API shape of an institution evaluation.
	EvaluationResponse struct {
		InstitutionUUID *string              `json:"institution_uuid"`
		InstitutionName *string              `json:"institution_name"`
		Period          string               `json:"evaluation_period"`
		PeriodStart     *int                 `json:"period_start"`
		PeriodEnd       *int                 `json:"period_end"`
		Disciplines     []DisciplineResponse `json:"disciplines"`
		LastRefresh     *time.Time           `json:"last_refresh"`
		DataSource      *string              `json:"data_source"`
		FetchedAt       time.Time            `json:"fetched_at"`
	}
)

func toImpactResponse(c *impact.ImpactCase) ImpactResponse {
	areas := c.ImpactAreas
	if areas == nil {
		areas = []string{}
	}

	raw := c.Raw
	if raw == nil {
		raw = impact.Record{}
	}

	return ImpactResponse{
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
		ImpactAreas:           areas,
		OtherImpactArea:       c.OtherImpactArea,
		Interdisciplinary:     c.Interdisciplinary,
		InterdisciplinarityPL: c.InterdisciplinarityPL,
		InterdisciplinarityEN: c.InterdisciplinarityEN,
		DataSource:            c.DataSource,
		Raw:                   raw,
		FetchedAt:             c.FetchedAt,
	}
}

func toImpactResponses(cases []impact.ImpactCase) []ImpactResponse {
	out := make([]ImpactResponse, 0, len(cases))
	for i := range cases {
		out = append(out, toImpactResponse(&cases[i]))
	}

	return out
}

func toEvaluationResponse(e *impact.Evaluation) EvaluationResponse {
	disciplines := make([]DisciplineResponse, 0, len(e.Disciplines))
	for _, d := range e.Disciplines {
		disciplines = append(disciplines, DisciplineResponse(d))
	}

	return EvaluationResponse{
		InstitutionUUID: e.InstitutionUUID,
		InstitutionName: e.InstitutionName,
		Period:          e.Period,
		PeriodStart:     e.PeriodStart,
		PeriodEnd:       e.PeriodEnd,
		Disciplines:     disciplines,
		LastRefresh:     e.LastRefresh,
		DataSource:      e.DataSource,
		FetchedAt:       e.FetchedAt,
	}
}
