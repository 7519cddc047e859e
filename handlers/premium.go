package handlers

import (
	"encoding/json"
	"net/http"

	"fiambond/backend/middleware"
	"fiambond/backend/services"
)

func GetPremiumStatus(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserIDFromContext(r)
	if callerID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := services.GetUser(callerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"premium":    user.Premium,
		"familyTier": user.FamilyTier,
	})
}

func RequestUpgrade(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserIDFromContext(r)
	if callerID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		Tier       string `json:"tier"`
		Plan       string `json:"plan"`
		PaymentRef string `json:"paymentRef"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := services.RequestUpgrade(callerID, body.Tier, body.Plan, body.PaymentRef); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending_approval"})
}

// ApproveUpgrade approves a pending request, or grants the tier outright
// when grant=true. Admin only; the service enforces the role.
func ApproveUpgrade(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserIDFromContext(r)
	if callerID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		UserID string `json:"userId"`
		Tier   string `json:"tier"`
		Plan   string `json:"plan"`
		Grant  bool   `json:"grant"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var err error
	if body.Grant {
		err = services.GrantPremium(callerID, body.UserID, body.Tier, body.Plan)
	} else {
		err = services.ApproveUpgrade(callerID, body.UserID, body.Tier)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := services.GetUser(body.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func RevokeUpgrade(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserIDFromContext(r)
	if callerID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		UserID string `json:"userId"`
		Tier   string `json:"tier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := services.RevokePremium(callerID, body.UserID, body.Tier); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
