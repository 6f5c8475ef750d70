package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patthub/impact-measurement-tool/internal/radon"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadInstitutionsFile(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	path := writeFile(t, "institutions.txt", " inst-1 , inst-2,,\ninst-3\r\ninst-1\n")

	ids, err := LoadInstitutionsFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"inst-1", "inst-2", "inst-3"}, ids)

	scopes := InstitutionScopes(ids)
	require.Len(t, scopes, 3)
	assert.Equal(t, radon.ScopeInstitution, scopes[0].Kind)
}

func TestLoadInstitutionsFile_Errors(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	_, err := LoadInstitutionsFile(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadInstitutionsFile(writeFile(t, "empty.txt", " , \n"))
	assert.ErrorIs(t, err, ErrNoInstitutions)
}

func TestLoadPlan(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	path := writeFile(t, "plan.yaml", `
page_size: 25
institutions:
  - inst-1
  - " inst-2 "
  - inst-1
kind_codes:
  - "1"
`)

	plan, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, 25, plan.PageSize)
	assert.Equal(t, []radon.Scope{
		radon.InstitutionScope("inst-1"),
		radon.InstitutionScope("inst-2"),
		radon.KindCodeScope("1"),
	}, plan.Scopes())
}

func TestLoadPlan_Invalid(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	_, err := LoadPlan(writeFile(t, "empty.yaml", "page_size: 10\n"))
	assert.ErrorIs(t, err, ErrEmptyPlan)

	_, err = LoadPlan(writeFile(t, "negative.yaml", "page_size: -1\nkind_codes: [\"1\"]\n"))
	assert.ErrorIs(t, err, ErrInvalidPageSize)

	_, err = LoadPlan(writeFile(t, "broken.yaml", "institutions: [unterminated\n"))
	assert.Error(t, err)
}
