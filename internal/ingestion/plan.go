package ingestion

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/patthub/impact-measurement-tool/internal/config"
	"github.com/patthub/impact-measurement-tool/internal/radon"
)

var (
	// ErrEmptyPlan is returned when a plan names no institutions and no kind codes.
	ErrEmptyPlan = errors.New("ingestion plan has no scopes")

	// ErrInvalidPageSize is returned for a negative page size.
	ErrInvalidPageSize = errors.New("page size cannot be negative")

	// ErrNoInstitutions is returned when an institutions file lists no identifiers.
	ErrNoInstitutions = errors.New("institutions file contains no identifiers")
)

// Plan is a declarative multi-scope ingestion job, loaded from YAML:
//
//	page_size: 50
//	institutions:
//	  - 5c0e9f3a-...
//	kind_codes:
//	  - "1"
type Plan struct {
	PageSize     int      `yaml:"page_size"`
	Institutions []string `yaml:"institutions"`
	KindCodes    []string `yaml:"kind_codes"`
}

// LoadPlan reads and validates a YAML plan. A zero page_size means the default.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan %s: %w", path, err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse plan %s: %w", path, err)
	}

	p.Institutions = dedupe(p.Institutions)
	p.KindCodes = dedupe(p.KindCodes)

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan %s: %w", path, err)
	}

	return &p, nil
}

// Validate checks the plan has at least one scope and a usable page size.
func (p *Plan) Validate() error {
	if p.PageSize < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPageSize, p.PageSize)
	}

	if len(p.Institutions) == 0 && len(p.KindCodes) == 0 {
		return ErrEmptyPlan
	}

	return nil
}

// Scopes returns institution scopes first, then kind-code scopes, in file order.
func (p *Plan) Scopes() []radon.Scope {
	scopes := make([]radon.Scope, 0, len(p.Institutions)+len(p.KindCodes))

	for _, id := range p.Institutions {
		scopes = append(scopes, radon.InstitutionScope(id))
	}

	for _, code := range p.KindCodes {
		scopes = append(scopes, radon.KindCodeScope(code))
	}

	return scopes
}

// LoadInstitutionsFile reads institution UUIDs separated by commas or newlines.
// Entries are trimmed, blanks dropped and duplicates removed, keeping first-seen order.
func LoadInstitutionsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read institutions file %s: %w", path, err)
	}

	normalized := strings.NewReplacer("\r\n", ",", "\n", ",").Replace(string(data))

	ids := dedupe(config.ParseCommaSeparatedList(normalized))
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoInstitutions, path)
	}

	return ids, nil
}

// InstitutionScopes converts identifiers into institution scopes.
func InstitutionScopes(ids []string) []radon.Scope {
	scopes := make([]radon.Scope, len(ids))
	for i, id := range ids {
		scopes[i] = radon.InstitutionScope(id)
	}

	return scopes
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))

	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(out, v) {
			continue
		}

		out = append(out, v)
	}

	return out
}
