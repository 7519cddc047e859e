package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"fiambond/backend/middleware"
	"fiambond/backend/models"
	"fiambond/backend/services"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

func AddTransaction(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserIDFromContext(r)
	if callerID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var in services.NewTransaction
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := services.RecordTransaction(callerID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func GetTransactions(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserIDFromContext(r)
	if callerID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	scope, err := scopeFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	since, until, err := rangeFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	transactions, err := services.ListTransactions(callerID, scope, since, until)
	if err != nil {
		writeError(w, err)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}

	writeJSON(w, http.StatusOK, transactions)
}

func GetTransaction(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserIDFromContext(r)
	if callerID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	t, err := services.GetTransaction(callerID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, t)
}

func DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserIDFromContext(r)
	if callerID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := services.DeleteTransaction(callerID, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// GetBalance derives the scope balance as income minus expense over the
// requested range.
func GetBalance(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserIDFromContext(r)
	if callerID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	scope, err := scopeFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	since, until, err := rangeFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	balance, err := services.ComputeBalance(callerID, scope, since, until)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"balance": balance})
}

func scopeFromQuery(r *http.Request) (models.Scope, error) {
	scope, err := models.ResolveScope(r.URL.Query().Get("familyId"), r.URL.Query().Get("companyId"))
	if err != nil {
		return models.Scope{}, &services.ValidationError{Message: err.Error()}
	}
	return scope, nil
}

func rangeFromQuery(r *http.Request) (since, until *time.Time, err error) {
	since, err = parseDateParam(r.URL.Query().Get("startDate"))
	if err != nil {
		return nil, nil, err
	}
	until, err = parseDateParam(r.URL.Query().Get("endDate"))
	if err != nil {
		return nil, nil, err
	}
	return since, until, nil
}

func parseDateParam(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, &services.ValidationError{Message: "invalid date: " + v}
}
