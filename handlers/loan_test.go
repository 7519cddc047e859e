package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fiambond/backend/database"
	"fiambond/backend/models"

	"github.com/gorilla/mux"
)

func seedLoanTestFamily() {
	SeedTestUser("debtor-user", "user")

	now := "2024-01-01 00:00:00"
	for _, stmt := range []struct {
		query string
		args  []interface{}
	}{
		{"INSERT INTO families (id, name, owner_id, created_at) VALUES (?, ?, ?, ?)",
			[]interface{}{"fam-1", "Test Family", TestUserID, now}},
		{"INSERT INTO family_members (family_id, user_id, joined_at) VALUES (?, ?, ?)",
			[]interface{}{"fam-1", TestUserID, now}},
		{"INSERT INTO family_members (family_id, user_id, joined_at) VALUES (?, ?, ?)",
			[]interface{}{"fam-1", "debtor-user", now}},
		{"UPDATE users SET family_premium = 1, family_subscription_status = 'active' WHERE id IN (?, ?)",
			[]interface{}{TestUserID, "debtor-user"}},
	} {
		if _, err := database.DB.Exec(stmt.query, stmt.args...); err != nil {
			panic(err)
		}
	}
}

func createLoanViaHandler(t *testing.T, body string) models.Loan {
	t.Helper()

	req := SetupTestAuth(httptest.NewRequest("POST", "/loans", bytes.NewBufferString(body)))
	w := httptest.NewRecorder()
	AddLoan(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to create loan: %d %s", w.Code, w.Body.String())
	}
	var loan models.Loan
	if err := json.NewDecoder(w.Body).Decode(&loan); err != nil {
		t.Fatalf("Error decoding loan: %v", err)
	}
	return loan
}

func TestLoanConfirmAndRepayFlow(t *testing.T) {
	SetupTestDB()
	defer CleanupTestDB()
	seedLoanTestFamily()

	loan := createLoanViaHandler(t,
		`{"familyId":"fam-1","debtorId":"debtor-user","amount":900,"interestAmount":100,"description":"car repair"}`)
	if loan.Status != models.LoanPendingConfirmation {
		t.Fatalf("Expected pending_confirmation, got %s", loan.Status)
	}

	// The creditor cannot confirm their own loan
	req := SetupTestAuth(httptest.NewRequest("POST", "/loans/"+loan.ID+"/confirm", nil))
	req = mux.SetURLVars(req, map[string]string{"id": loan.ID})
	w := httptest.NewRecorder()
	ConfirmLoan(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status %d for creditor confirm, got %d", http.StatusForbidden, w.Code)
	}

	// The debtor confirms
	req = SetupTestAuthAs(httptest.NewRequest("POST", "/loans/"+loan.ID+"/confirm", nil), "debtor-user")
	req = mux.SetURLVars(req, map[string]string{"id": loan.ID})
	w = httptest.NewRecorder()
	ConfirmLoan(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	// Repay the full amount owed
	body := bytes.NewBufferString(`{"amount":1000}`)
	req = SetupTestAuthAs(httptest.NewRequest("POST", "/loans/"+loan.ID+"/repayments", body), "debtor-user")
	req = mux.SetURLVars(req, map[string]string{"id": loan.ID})
	w = httptest.NewRecorder()
	AddRepayment(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}

	var after models.Loan
	if err := json.NewDecoder(w.Body).Decode(&after); err != nil {
		t.Fatalf("Error decoding loan: %v", err)
	}
	if after.Status != models.LoanRepaid {
		t.Errorf("Expected repaid, got %s", after.Status)
	}
}

func TestRepaymentOverLimitResponse(t *testing.T) {
	SetupTestDB()
	defer CleanupTestDB()

	loan := createLoanViaHandler(t,
		`{"debtorName":"Uncle Joe","amount":100,"description":"fence materials"}`)

	body := bytes.NewBufferString(`{"amount":100.01}`)
	req := SetupTestAuth(httptest.NewRequest("POST", "/loans/"+loan.ID+"/repayments", body))
	req = mux.SetURLVars(req, map[string]string{"id": loan.ID})
	w := httptest.NewRecorder()
	AddRepayment(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status %d for overpayment, got %d", http.StatusUnprocessableEntity, w.Code)
	}
}

func TestGetLoanNotFound(t *testing.T) {
	SetupTestDB()
	defer CleanupTestDB()

	req := SetupTestAuth(httptest.NewRequest("GET", "/loans/missing", nil))
	req = mux.SetURLVars(req, map[string]string{"id": "missing"})
	w := httptest.NewRecorder()
	GetLoan(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestGoalCompletionViaPatch(t *testing.T) {
	SetupTestDB()
	defer CleanupTestDB()

	goalBody := []byte(`{"name":"Bike","targetAmount":300}`)
	req := SetupTestAuth(httptest.NewRequest("POST", "/goals", bytes.NewBuffer(goalBody)))
	w := httptest.NewRecorder()
	AddGoal(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to create goal: %d %s", w.Code, w.Body.String())
	}
	var goal models.Goal
	if err := json.NewDecoder(w.Body).Decode(&goal); err != nil {
		t.Fatal(err)
	}

	patchBody := bytes.NewBufferString(`{"action":"complete","achievementUrl":"https://photos.example/bike"}`)
	req = SetupTestAuth(httptest.NewRequest("PATCH", "/goals/"+goal.ID, patchBody))
	req = mux.SetURLVars(req, map[string]string{"id": goal.ID})
	w = httptest.NewRecorder()
	UpdateGoal(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	// Completing again conflicts
	patchBody = bytes.NewBufferString(`{"action":"complete"}`)
	req = SetupTestAuth(httptest.NewRequest("PATCH", "/goals/"+goal.ID, patchBody))
	req = mux.SetURLVars(req, map[string]string{"id": goal.ID})
	w = httptest.NewRecorder()
	UpdateGoal(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status %d on double completion, got %d", http.StatusConflict, w.Code)
	}

	// Unsupported actions are rejected
	patchBody = bytes.NewBufferString(`{"action":"archive"}`)
	req = SetupTestAuth(httptest.NewRequest("PATCH", "/goals/"+goal.ID, patchBody))
	req = mux.SetURLVars(req, map[string]string{"id": goal.ID})
	w = httptest.NewRecorder()
	UpdateGoal(w, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status %d for unknown action, got %d", http.StatusUnprocessableEntity, w.Code)
	}
}
