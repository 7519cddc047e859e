package middleware

import (
	"net/http"

	"fiambond/backend/services"
)

// RequireRole is a middleware that ensures the user has at least the
// specified role before the handler runs.
func RequireRole(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserIDFromContext(r)
			if userID == "" {
				http.Error(w, "Unauthorized: No user ID found", http.StatusUnauthorized)
				return
			}

			userRole, err := services.GetUserRole(userID)
			if err != nil {
				http.Error(w, "Failed to get user role: "+err.Error(), http.StatusInternalServerError)
				return
			}

			if !services.IsRoleAtLeast(userRole, requiredRole) {
				http.Error(w, "Forbidden: Insufficient role", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
