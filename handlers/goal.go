package handlers

import (
	"encoding/json"
	"net/http"

	"fiambond/backend/middleware"
	"fiambond/backend/models"
	"fiambond/backend/services"

	"github.com/gorilla/mux"
)

func AddGoal(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserIDFromContext(r)
	if callerID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var in services.NewGoal
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	goal, err := services.CreateGoal(callerID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

func GetGoals(w http.ResponseWriter, r *http.Request) {
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

	goals, err := services.ListGoals(callerID, scope)
	if err != nil {
		writeError(w, err)
		return
	}
	if goals == nil {
		goals = []models.Goal{}
	}

	writeJSON(w, http.StatusOK, goals)
}

func GetGoal(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserIDFromContext(r)
	if callerID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	goal, err := services.GetGoal(callerID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

// UpdateGoal handles PATCH /goals/{id}. The only supported mutation is the
// active -> completed transition.
func UpdateGoal(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserIDFromContext(r)
	if callerID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		Action         string `json:"action"`
		AchievementURL string `json:"achievementUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if body.Action != "complete" {
		writeError(w, &services.ValidationError{Message: "unsupported action: " + body.Action})
		return
	}

	goal, err := services.CompleteGoal(callerID, mux.Vars(r)["id"], body.AchievementURL)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func DeleteGoal(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserIDFromContext(r)
	if callerID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := services.AbandonGoal(callerID, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
