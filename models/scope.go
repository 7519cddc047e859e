package models

import "errors"

// ScopeKind identifies the ownership partition a record belongs to.
type ScopeKind string

const (
	ScopePersonal ScopeKind = "personal"
	ScopeFamily   ScopeKind = "family"
	ScopeCompany  ScopeKind = "company"
)

// Scope is the exclusive partition key for every ledger record. A personal
// balance never includes family or company rows, even for the same user.
type Scope struct {
	Kind      ScopeKind
	FamilyID  string
	CompanyID string
}

var ErrAmbiguousScope = errors.New("familyId and companyId are mutually exclusive")

// ResolveScope classifies a record by its optional family/company reference.
// Both absent means personal scope. Setting both is rejected.
func ResolveScope(familyID, companyID string) (Scope, error) {
	if familyID != "" && companyID != "" {
		return Scope{}, ErrAmbiguousScope
	}
	if familyID != "" {
		return Scope{Kind: ScopeFamily, FamilyID: familyID}, nil
	}
	if companyID != "" {
		return Scope{Kind: ScopeCompany, CompanyID: companyID}, nil
	}
	return Scope{Kind: ScopePersonal}, nil
}

func (s Scope) String() string {
	switch s.Kind {
	case ScopeFamily:
		return "family:" + s.FamilyID
	case ScopeCompany:
		return "company:" + s.CompanyID
	default:
		return "personal"
	}
}
