package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fiambond/backend/database"
	"fiambond/backend/models"
)

func TestAddTransaction(t *testing.T) {
	SetupTestDB()
	defer CleanupTestDB()

	reqBody := map[string]interface{}{
		"type":        "income",
		"amount":      100.50,
		"description": "Paycheck",
	}

	jsonBody, _ := json.Marshal(reqBody)
	req := httptest.NewRequest("POST", "/transactions", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	req = SetupTestAuth(req)

	w := httptest.NewRecorder()
	AddTransaction(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status code %d, got %d", http.StatusCreated, w.Code)
	}

	var response models.Transaction
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Error decoding response: %v", err)
	}
	if response.OwnerID != TestUserID {
		t.Errorf("Expected ownerId '%s', got '%s'", TestUserID, response.OwnerID)
	}

	// Verify the amount was stored as exact cents
	var cents int64
	err := database.DB.QueryRow(
		"SELECT amount_cents FROM transactions WHERE id = ?", response.ID).Scan(&cents)
	if err != nil {
		t.Fatalf("Error checking transaction: %v", err)
	}
	if cents != 10050 {
		t.Errorf("Expected 10050 cents, got %d", cents)
	}
}

func TestAddTransactionRejectsBadAmount(t *testing.T) {
	SetupTestDB()
	defer CleanupTestDB()

	for _, amount := range []string{"0", "-5", "10.999"} {
		body := []byte(`{"type":"expense","amount":` + amount + `,"description":"x"}`)
		req := SetupTestAuth(httptest.NewRequest("POST", "/transactions", bytes.NewBuffer(body)))
		w := httptest.NewRecorder()

		AddTransaction(w, req)

		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("Amount %s: expected status %d, got %d", amount, http.StatusUnprocessableEntity, w.Code)
		}
	}
}

func TestAddTransactionGoalConflictResponse(t *testing.T) {
	SetupTestDB()
	defer CleanupTestDB()

	goalBody := []byte(`{"name":"Vacation","targetAmount":500}`)
	req := SetupTestAuth(httptest.NewRequest("POST", "/goals", bytes.NewBuffer(goalBody)))
	w := httptest.NewRecorder()
	AddGoal(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to create goal: %d %s", w.Code, w.Body.String())
	}

	expenseBody := []byte(`{"type":"expense","amount":25,"description":"new shoes"}`)
	req = SetupTestAuth(httptest.NewRequest("POST", "/transactions", bytes.NewBuffer(expenseBody)))
	w = httptest.NewRecorder()
	AddTransaction(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("Expected status %d, got %d", http.StatusConflict, w.Code)
	}

	// The conflict body carries the blocking goals so a client can prompt
	var response struct {
		Message string        `json:"message"`
		Goals   []models.Goal `json:"goals"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Error decoding response: %v", err)
	}
	if len(response.Goals) != 1 || response.Goals[0].Name != "Vacation" {
		t.Errorf("Expected the blocking goal in the response, got %+v", response.Goals)
	}

	// Retrying with force goes through
	forcedBody := []byte(`{"type":"expense","amount":25,"description":"new shoes","force":true}`)
	req = SetupTestAuth(httptest.NewRequest("POST", "/transactions", bytes.NewBuffer(forcedBody)))
	w = httptest.NewRecorder()
	AddTransaction(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status %d on forced expense, got %d", http.StatusCreated, w.Code)
	}
}

func TestGetTransactionsEmptyList(t *testing.T) {
	SetupTestDB()
	defer CleanupTestDB()

	req := SetupTestAuth(httptest.NewRequest("GET", "/transactions", nil))
	w := httptest.NewRecorder()
	GetTransactions(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	// Empty result is a JSON array, not null
	if body := w.Body.String(); body != "[]\n" {
		t.Errorf("Expected empty array, got %q", body)
	}
}

func TestGetBalance(t *testing.T) {
	SetupTestDB()
	defer CleanupTestDB()

	for _, entry := range []string{
		`{"type":"income","amount":250,"description":"salary"}`,
		`{"type":"expense","amount":49.75,"description":"groceries","force":true}`,
	} {
		req := SetupTestAuth(httptest.NewRequest("POST", "/transactions", bytes.NewBufferString(entry)))
		w := httptest.NewRecorder()
		AddTransaction(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("Failed to add entry: %d %s", w.Code, w.Body.String())
		}
	}

	req := SetupTestAuth(httptest.NewRequest("GET", "/balance", nil))
	w := httptest.NewRecorder()
	GetBalance(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	var response map[string]json.Number
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Error decoding response: %v", err)
	}
	if response["balance"].String() != "200.25" {
		t.Errorf("Expected balance 200.25, got %s", response["balance"])
	}
}

func TestGetBalanceRejectsAmbiguousScope(t *testing.T) {
	SetupTestDB()
	defer CleanupTestDB()

	req := SetupTestAuth(httptest.NewRequest("GET", "/balance?familyId=f1&companyId=c1", nil))
	w := httptest.NewRecorder()
	GetBalance(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status %d, got %d", http.StatusUnprocessableEntity, w.Code)
	}
}

func TestUnauthenticatedRequest(t *testing.T) {
	SetupTestDB()
	defer CleanupTestDB()

	req := httptest.NewRequest("GET", "/transactions", nil)
	w := httptest.NewRecorder()
	GetTransactions(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}
