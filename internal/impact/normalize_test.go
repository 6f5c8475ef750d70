package impact

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRecord(t *testing.T, body string) Record {
	t.Helper()

	var raw Record
	require.NoError(t, json.Unmarshal([]byte(body), &raw))

	return raw
}

func TestNormalize_FullRecord(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	raw := decodeRecord(t, `{
		"impactUuid": "c0ffee00-0000-4000-8000-000000000001",
		"institutionName": "Uniwersytet Warszawski",
		"institutionUuid": "inst-1",
		"evaluationYear": "2021",
		"disciplineName": "historia",
		"disciplineCode": "DS010103N",
		"domainName": "dziedzina nauk humanistycznych",
		"domainCode": "DZ0101N",
		"titlePl": "Tytul",
		"titleEn": "Title",
		"summaryPl": "Streszczenie",
		"summaryEn": "Summary",
		"impactDescriptionPl": "Opis",
		"impactDescriptionEn": "Description",
		"mainConclusionPl": "Wnioski",
		"mainConclusionEn": "Conclusions",
		"impactArea": ["culture", "education"],
		"otherImpactArea": "museums",
		"isInterdisciplinary": true,
		"interdisciplinarityCharacteristicPl": "Opis interdyscyplinarnosci",
		"interdisciplinarityCharacteristicEn": "Interdisciplinarity",
		"dataSource": "POLON",
		"unexpected": {"nested": 1}
	}`)

	c := Normalize(raw)

	assert.Equal(t, "c0ffee00-0000-4000-8000-000000000001", c.SourceRecordID)
	require.NotNil(t, c.ImpactUUID)
	assert.Equal(t, c.SourceRecordID, *c.ImpactUUID)
	require.NotNil(t, c.EvaluationYear)
	assert.Equal(t, 2021, *c.EvaluationYear)
	assert.Equal(t, "inst-1", *c.InstitutionUUID)
	assert.Equal(t, "Uniwersytet Warszawski", *c.InstitutionName)
	assert.Equal(t, "DS010103N", *c.DisciplineCode)
	assert.Equal(t, "DZ0101N", *c.DomainCode)
	assert.Equal(t, "Title", *c.TitleEN)
	assert.Equal(t, "Description", *c.DescriptionEN)
	assert.Equal(t, "Conclusions", *c.ConclusionEN)
	assert.Equal(t, []string{"culture", "education"}, c.ImpactAreas)
	assert.Equal(t, "museums", *c.OtherImpactArea)
	require.NotNil(t, c.Interdisciplinary)
	assert.True(t, *c.Interdisciplinary)
	assert.Equal(t, "POLON", *c.DataSource)
	assert.Equal(t, raw, c.Raw, "raw record must be retained verbatim")
	assert.True(t, c.FetchedAt.IsZero())
}

func TestNormalize_EmptyRecordIsTotal(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	for _, raw := range []Record{nil, {}} {
		c := Normalize(raw)

		assert.Empty(t, c.SourceRecordID)
		assert.Nil(t, c.ImpactUUID)
		assert.Nil(t, c.InstitutionUUID)
		assert.Nil(t, c.EvaluationYear)
		assert.Nil(t, c.TitlePL)
		assert.Nil(t, c.Interdisciplinary)
		assert.NotNil(t, c.ImpactAreas)
		assert.Empty(t, c.ImpactAreas)
		assert.NotNil(t, c.Raw)
	}
}

func TestNormalize_IdentifierFallback(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		name     string
		raw      Record
		expected string
	}{
		{name: "impactUuid wins", raw: Record{"impactUuid": "a", "id": "b"}, expected: "a"},
		{name: "falls back to id", raw: Record{"id": "b"}, expected: "b"},
		{name: "empty impactUuid falls back to id", raw: Record{"impactUuid": "", "id": "b"}, expected: "b"},
		{name: "numeric id is stringified", raw: Record{"id": float64(17)}, expected: "17"},
		{name: "no identifier", raw: Record{"titlePl": "x"}, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.raw).SourceRecordID)
		})
	}
}

func TestNormalize_ImpactAreas(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		name     string
		value    any
		expected []string
	}{
		{name: "scalar string", value: "X", expected: []string{"X"}},
		{name: "list", value: []any{"X", "Y"}, expected: []string{"X", "Y"}},
		{name: "absent", value: nil, expected: []string{}},
		{name: "mixed list is stringified", value: []any{"X", float64(3), true}, expected: []string{"X", "3", "true"}},
		{name: "scalar number", value: float64(5), expected: []string{"5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := Record{"id": "1"}
			if tt.value != nil {
				raw["impactArea"] = tt.value
			}

			assert.Equal(t, tt.expected, Normalize(raw).ImpactAreas)
		})
	}
}

func TestNormalize_EvaluationYear(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	year := Normalize(Record{"evaluationYear": "2021"}).EvaluationYear
	require.NotNil(t, year)
	assert.Equal(t, 2021, *year)

	assert.Nil(t, Normalize(Record{"evaluationYear": "not-a-year"}).EvaluationYear)
	assert.Nil(t, Normalize(Record{}).EvaluationYear)
}

func TestNewInstitutionImpactSet(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	cases := []ImpactCase{
		Normalize(Record{"id": "1"}),
		Normalize(Record{"id": "2", "institutionName": "UW"}),
		Normalize(Record{"id": "3", "institutionName": "Other"}),
	}

	set := NewInstitutionImpactSet("inst-1", cases)

	assert.Equal(t, "inst-1", set.InstitutionUUID)
	require.NotNil(t, set.InstitutionName)
	assert.Equal(t, "UW", *set.InstitutionName)
	assert.Len(t, set.Cases, 3)

	empty := NewInstitutionImpactSet("inst-2", nil)
	assert.Nil(t, empty.InstitutionName)
	assert.NotNil(t, empty.Cases)
}
