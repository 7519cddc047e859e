package handlers

import (
	"encoding/json"
	"net/http"

	"fiambond/backend/middleware"
	"fiambond/backend/models"
	"fiambond/backend/services"

	"github.com/gorilla/mux"
)

func AddFamily(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserIDFromContext(r)
	if callerID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	family, err := services.CreateFamily(callerID, body.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, family)
}

func GetFamilies(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserIDFromContext(r)
	if callerID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	families, err := services.ListFamilies(callerID)
	if err != nil {
		writeError(w, err)
		return
	}
	if families == nil {
		families = []models.Family{}
	}

	writeJSON(w, http.StatusOK, families)
}

func AddFamilyMember(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserIDFromContext(r)
	if callerID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := services.AddFamilyMember(callerID, mux.Vars(r)["id"], body.UserID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func AddCompany(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserIDFromContext(r)
	if callerID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	company, err := services.CreateCompany(callerID, body.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, company)
}
