package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"fiambond/backend/services"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses. Validation
// and authorization messages go to the caller verbatim; anything unexpected
// is logged and masked as a generic 500.
func writeError(w http.ResponseWriter, err error) {
	switch e := err.(type) {
	case *services.ValidationError:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": e.Message})
	case *services.AuthorizationError:
		writeJSON(w, http.StatusForbidden, map[string]string{"message": e.Message})
	case *services.NotFoundError:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": e.Error()})
	case *services.InvalidStateError:
		writeJSON(w, http.StatusConflict, map[string]string{"message": e.Message})
	case *services.ConflictError:
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"message": e.Message,
			"goals":   e.Goals,
		})
	case *services.OverpaymentError:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": e.Error()})
	default:
		log.Printf("Internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal server error"})
	}
}

// HealthCheck responds to liveness probes
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
