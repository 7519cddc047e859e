package services

import (
	"database/sql"
	"fmt"

	"fiambond/backend/database"
)

// RoleHierarchy defines the hierarchy of roles in the system
// Higher numbers have more permissions
var RoleHierarchy = map[string]int{
	"user":       1,
	"admin":      2,
	"superadmin": 3,
}

// IsRoleAtLeast checks if a role is at least at the specified level
func IsRoleAtLeast(userRole, requiredRole string) bool {
	userLevel, userExists := RoleHierarchy[userRole]
	requiredLevel, requiredExists := RoleHierarchy[requiredRole]

	// If the role doesn't exist in our hierarchy, default behavior
	if !userExists || !requiredExists {
		return userRole == requiredRole
	}

	return userLevel >= requiredLevel
}

// GetUserRole gets the role of a user
func GetUserRole(userID string) (string, error) {
	var role sql.NullString
	err := database.DB.QueryRow("SELECT role FROM users WHERE id = ?", userID).Scan(&role)
	if err == sql.ErrNoRows {
		return "", &NotFoundError{Resource: "user"}
	}
	if err != nil {
		return "", err
	}

	if !role.Valid || role.String == "" {
		return "user", nil // Default role
	}

	return role.String, nil
}

// IsAdmin checks if a user is an admin or super admin
func IsAdmin(userID string) (bool, error) {
	role, err := GetUserRole(userID)
	if err != nil {
		return false, err
	}

	return IsRoleAtLeast(role, "admin"), nil
}

// SetUserRole sets the role of a user. Only admins or higher can change
// roles; only superadmins can create other superadmins; nobody can demote
// themselves.
func SetUserRole(actorID, targetUserID, newRole string) error {
	if _, exists := RoleHierarchy[newRole]; !exists {
		return &ValidationError{Message: fmt.Sprintf("invalid role: %s", newRole)}
	}

	actorRole, err := GetUserRole(actorID)
	if err != nil {
		return fmt.Errorf("failed to get actor role: %w", err)
	}

	targetRole, err := GetUserRole(targetUserID)
	if err != nil {
		return fmt.Errorf("failed to get target user role: %w", err)
	}

	if actorRole == "user" {
		return &AuthorizationError{Message: "insufficient permissions to change roles"}
	}

	if newRole == "superadmin" && actorRole != "superadmin" {
		return &AuthorizationError{Message: "only superadmins can create other superadmins"}
	}

	if actorID == targetUserID && RoleHierarchy[newRole] < RoleHierarchy[actorRole] {
		return &AuthorizationError{Message: "cannot demote yourself"}
	}

	if actorRole == "admin" && (targetRole == "admin" || targetRole == "superadmin") {
		return &AuthorizationError{Message: "admins cannot change roles of other admins or superadmins"}
	}

	_, err = database.DB.Exec("UPDATE users SET role = ? WHERE id = ?", newRole, targetUserID)
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}

	return nil
}
