package models

import "testing"

func TestResolveScope(t *testing.T) {
	testCases := []struct {
		name      string
		familyID  string
		companyID string
		want      ScopeKind
		wantErr   bool
	}{
		{"neither is personal", "", "", ScopePersonal, false},
		{"family id", "f1", "", ScopeFamily, false},
		{"company id", "", "c1", ScopeCompany, false},
		{"both is ambiguous", "f1", "c1", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			scope, err := ResolveScope(tc.familyID, tc.companyID)
			if tc.wantErr {
				if err != ErrAmbiguousScope {
					t.Errorf("Expected ErrAmbiguousScope, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if scope.Kind != tc.want {
				t.Errorf("Expected kind %s, got %s", tc.want, scope.Kind)
			}
		})
	}
}

func TestScopeString(t *testing.T) {
	if got := (Scope{Kind: ScopePersonal}).String(); got != "personal" {
		t.Errorf("Expected 'personal', got '%s'", got)
	}
	if got := (Scope{Kind: ScopeFamily, FamilyID: "f1"}).String(); got != "family:f1" {
		t.Errorf("Expected 'family:f1', got '%s'", got)
	}
	if got := (Scope{Kind: ScopeCompany, CompanyID: "c1"}).String(); got != "company:c1" {
		t.Errorf("Expected 'company:c1', got '%s'", got)
	}
}
