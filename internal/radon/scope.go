package radon

import (
	"errors"
	"fmt"
	"strings"
)

// ScopeKind selects which filter bounds an ingestion run.
type ScopeKind string

const (
	// ScopeInstitution filters impacts by institution UUID.
	ScopeInstitution ScopeKind = "institution"

	// ScopeKindCode sweeps all impacts of one category (kindCode).
	ScopeKindCode ScopeKind = "kind_code"
)

// ErrInvalidScope is returned for scopes with an unknown kind or an empty value.
var ErrInvalidScope = errors.New("invalid scope")

// Scope is the filter value for one run against the external source.
type Scope struct {
	Kind  ScopeKind
	Value string
}

// InstitutionScope returns a scope for one institution UUID.
func InstitutionScope(uuid string) Scope {
	return Scope{Kind: ScopeInstitution, Value: strings.TrimSpace(uuid)}
}

// KindCodeScope returns a scope for a global category sweep.
func KindCodeScope(code string) Scope {
	return Scope{Kind: ScopeKindCode, Value: strings.TrimSpace(code)}
}

// Param returns the query parameter name the source expects for this scope.
func (s Scope) Param() string {
	switch s.Kind {
	case ScopeInstitution:
		return "institutionUuid"
	case ScopeKindCode:
		return "kindCode"
	default:
		return ""
	}
}

// Validate checks the scope has a known kind and a non-empty value.
func (s Scope) Validate() error {
	if s.Param() == "" {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidScope, s.Kind)
	}

	if strings.TrimSpace(s.Value) == "" {
		return fmt.Errorf("%w: empty %s value", ErrInvalidScope, s.Kind)
	}

	return nil
}

func (s Scope) String() string {
	return fmt.Sprintf("%s=%s", s.Param(), s.Value)
}
