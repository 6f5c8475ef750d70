package impact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestResolveKey(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		name     string
		c        *ImpactCase
		expected string
	}{
		{
			name:     "explicit case identifier first",
			c:        &ImpactCase{ImpactUUID: ptr("case-1"), SourceRecordID: "src-1", Raw: Record{"id": "raw-1"}},
			expected: "case-1",
		},
		{
			name:     "source record id second",
			c:        &ImpactCase{ImpactUUID: ptr(" "), SourceRecordID: "src-1", Raw: Record{"id": "raw-1"}},
			expected: "src-1",
		},
		{
			name:     "raw impactUuid third",
			c:        &ImpactCase{Raw: Record{"impactUuid": "raw-uuid", "id": "raw-1"}},
			expected: "raw-uuid",
		},
		{
			name:     "raw id last",
			c:        &ImpactCase{Raw: Record{"id": "raw-1"}},
			expected: "raw-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := ResolveKey(tt.c)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, key)
		})
	}
}

func TestResolveKey_Missing(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	for _, c := range []*ImpactCase{nil, {}, {Raw: Record{"titlePl": "x"}}, {SourceRecordID: "   "}} {
		_, err := ResolveKey(c)
		assert.ErrorIs(t, err, ErrMissingKey)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestResolveEvaluationKey(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	key, err := ResolveEvaluationKey(&Evaluation{InstitutionUUID: ptr("inst-1")})
	require.NoError(t, err)
	assert.Equal(t, "inst-1", key)

	_, err = ResolveEvaluationKey(&Evaluation{})
	assert.ErrorIs(t, err, ErrMissingInstitution)
}
