package handlers

import (
	"encoding/json"
	"net/http"

	"fiambond/backend/middleware"
	"fiambond/backend/models"
	"fiambond/backend/services"

	"github.com/gorilla/mux"
)

func AddLoan(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserIDFromContext(r)
	if callerID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var in services.NewLoan
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	loan, err := services.CreateLoan(callerID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, loan)
}

func GetLoans(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserIDFromContext(r)
	if callerID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	loans, err := services.ListLoans(callerID, r.URL.Query().Get("familyId"))
	if err != nil {
		writeError(w, err)
		return
	}
	if loans == nil {
		loans = []models.Loan{}
	}

	writeJSON(w, http.StatusOK, loans)
}

func GetLoan(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserIDFromContext(r)
	if callerID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	loan, err := services.GetLoan(callerID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loan)
}

// ConfirmLoan handles the debtor acknowledging a pending family loan.
func ConfirmLoan(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserIDFromContext(r)
	if callerID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	loan, err := services.ConfirmLoanReceipt(callerID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loan)
}

func AddRepayment(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserIDFromContext(r)
	if callerID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var in services.NewRepayment
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	loan, err := services.RecordRepayment(callerID, mux.Vars(r)["id"], in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, loan)
}
