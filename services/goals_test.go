package services

import (
	"errors"
	"testing"
	"time"

	"fiambond/backend/models"

	"github.com/shopspring/decimal"
)

func TestCreateGoalValidation(t *testing.T) {
	setupTestDB(t)
	seedUser(t, "u1", "user")

	past := time.Now().Add(-time.Hour)

	testCases := []struct {
		name string
		in   NewGoal
	}{
		{"zero target", NewGoal{Name: "Car", TargetAmount: decimal.Zero}},
		{"negative target", NewGoal{Name: "Car", TargetAmount: decimal.RequireFromString("-1")}},
		{"empty name", NewGoal{Name: " ", TargetAmount: decimal.RequireFromString("100")}},
		{"past target date", NewGoal{Name: "Car", TargetAmount: decimal.RequireFromString("100"), TargetDate: &past}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CreateGoal("u1", tc.in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("Expected ValidationError, got %v", err)
			}
		})
	}
}

func TestCompleteGoalRecordsExpense(t *testing.T) {
	setupTestDB(t)
	seedUser(t, "u1", "user", "family")
	seedUser(t, "u2", "user", "family")
	seedFamily(t, "f1", "u1", "u2")

	goal, err := CreateGoal("u1", NewGoal{
		FamilyID:     "f1",
		Name:         "Family trip",
		TargetAmount: decimal.RequireFromString("1200"),
	})
	if err != nil {
		t.Fatalf("Failed to create goal: %v", err)
	}

	// Any family member may complete a shared goal
	completed, err := CompleteGoal("u2", goal.ID, "https://photos.example/trip")
	if err != nil {
		t.Fatalf("Failed to complete goal: %v", err)
	}
	if completed.Status != models.GoalCompleted {
		t.Errorf("Expected status completed, got %s", completed.Status)
	}
	if completed.CompletedBy != "u2" {
		t.Errorf("Expected completedBy 'u2', got '%s'", completed.CompletedBy)
	}

	// The expense lands in the goal's scope, for the goal's target amount
	if n := countTransactions(t, "family_id = ? AND type = 'expense' AND amount_cents = 120000", "f1"); n != 1 {
		t.Errorf("Expected 1 family expense of 1200, got %d", n)
	}

	balance, err := ComputeBalance("u1", models.Scope{Kind: models.ScopeFamily, FamilyID: "f1"}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !balance.Equal(decimal.RequireFromString("-1200")) {
		t.Errorf("Expected family balance -1200, got %s", balance)
	}
}

func TestCompleteGoalTwice(t *testing.T) {
	setupTestDB(t)
	seedUser(t, "u1", "user")

	goal, err := CreateGoal("u1", NewGoal{Name: "Bike", TargetAmount: decimal.RequireFromString("300")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := CompleteGoal("u1", goal.ID, ""); err != nil {
		t.Fatalf("First completion failed: %v", err)
	}

	_, err = CompleteGoal("u1", goal.ID, "")
	var ise *InvalidStateError
	if !errors.As(err, &ise) {
		t.Errorf("Expected InvalidStateError on second completion, got %v", err)
	}
	if n := countTransactions(t, "type = 'expense'"); n != 1 {
		t.Errorf("Expected exactly 1 completion expense, got %d", n)
	}
}

func TestAbandonGoal(t *testing.T) {
	setupTestDB(t)
	seedUser(t, "u1", "user")
	seedUser(t, "u2", "user")

	goal, err := CreateGoal("u1", NewGoal{Name: "Boat", TargetAmount: decimal.RequireFromString("5000")})
	if err != nil {
		t.Fatal(err)
	}

	err = AbandonGoal("u2", goal.ID)
	var ae *AuthorizationError
	if !errors.As(err, &ae) {
		t.Errorf("Expected AuthorizationError for non-owner, got %v", err)
	}

	if err := AbandonGoal("u1", goal.ID); err != nil {
		t.Fatalf("Failed to abandon: %v", err)
	}

	// Abandoning has no ledger side effect and hides the goal
	if n := countTransactions(t, ""); n != 0 {
		t.Errorf("Expected no transactions after abandon, got %d", n)
	}
	if _, err := GetGoal("u1", goal.ID); err == nil {
		t.Error("Expected abandoned goal to be invisible")
	}

	// An abandoned goal no longer blocks expenses
	if _, err := RecordTransaction("u1", NewTransaction{
		Type:        models.TypeExpense,
		Amount:      decimal.RequireFromString("20"),
		Description: "coffee",
	}); err != nil {
		t.Errorf("Expected expense to pass after abandon, got %v", err)
	}
}

func TestAbandonCompletedGoal(t *testing.T) {
	setupTestDB(t)
	seedUser(t, "u1", "user")

	goal, err := CreateGoal("u1", NewGoal{Name: "Desk", TargetAmount: decimal.RequireFromString("150")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := CompleteGoal("u1", goal.ID, ""); err != nil {
		t.Fatal(err)
	}

	err = AbandonGoal("u1", goal.ID)
	var ise *InvalidStateError
	if !errors.As(err, &ise) {
		t.Errorf("Expected InvalidStateError when deleting a completed goal, got %v", err)
	}
}

func TestListGoalsScoped(t *testing.T) {
	setupTestDB(t)
	seedUser(t, "u1", "user", "family")
	seedFamily(t, "f1", "u1")

	if _, err := CreateGoal("u1", NewGoal{Name: "Personal", TargetAmount: decimal.RequireFromString("10")}); err != nil {
		t.Fatal(err)
	}
	if _, err := CreateGoal("u1", NewGoal{FamilyID: "f1", Name: "Shared", TargetAmount: decimal.RequireFromString("20")}); err != nil {
		t.Fatal(err)
	}

	personal, err := ListGoals("u1", models.Scope{Kind: models.ScopePersonal})
	if err != nil {
		t.Fatal(err)
	}
	if len(personal) != 1 || personal[0].Name != "Personal" {
		t.Errorf("Expected only the personal goal, got %+v", personal)
	}

	family, err := ListGoals("u1", models.Scope{Kind: models.ScopeFamily, FamilyID: "f1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(family) != 1 || family[0].Name != "Shared" {
		t.Errorf("Expected only the family goal, got %+v", family)
	}
}
