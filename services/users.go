package services

import (
	"database/sql"
	"fmt"

	"fiambond/backend/database"
	"fiambond/backend/models"
)

// SyncUser upserts a Firebase-authenticated user into the local users
// table. Called from /users/sync after sign-in so the domain tables can
// reference a stable local row.
func SyncUser(id, username, name string) (*models.User, error) {
	if id == "" || username == "" {
		return nil, &ValidationError{Message: "id and username are required"}
	}
	if name == "" {
		name = username
	}

	_, err := database.DB.Exec(`
		INSERT INTO users (id, username, name, role)
		VALUES (?, ?, ?, 'user')
		ON CONFLICT(id) DO UPDATE SET username = excluded.username, name = excluded.name
	`, id, username, name)
	if err != nil {
		return nil, fmt.Errorf("failed to sync user: %w", err)
	}

	return GetUser(id)
}

// GetUser returns one user with both subscription tiers populated.
func GetUser(id string) (*models.User, error) {
	row := database.DB.QueryRow(userSelect+" WHERE id = ?", id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "user"}
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ListUsers returns all users, for admin screens and counterparty pickers.
func ListUsers() ([]models.User, error) {
	rows, err := database.DB.Query(userSelect + " ORDER BY username")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}

	return users, rows.Err()
}

const userSelect = `
	SELECT id, username, name, role,
	       is_premium, subscription_status, premium_plan, premium_granted_at, premium_expires_at,
	       family_premium, family_subscription_status, family_premium_plan, family_premium_granted_at, family_premium_expires_at
	FROM users`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var role sql.NullString
	var pStatus, pPlan, fStatus, fPlan sql.NullString
	var pGranted, pExpires, fGranted, fExpires sql.NullTime

	err := row.Scan(&u.ID, &u.Username, &u.Name, &role,
		&u.Premium.Active, &pStatus, &pPlan, &pGranted, &pExpires,
		&u.FamilyTier.Active, &fStatus, &fPlan, &fGranted, &fExpires)
	if err != nil {
		return nil, err
	}

	u.Role = role.String
	if u.Role == "" {
		u.Role = "user"
	}
	u.Premium.Status = pStatus.String
	u.Premium.Plan = pPlan.String
	if pGranted.Valid {
		t := pGranted.Time
		u.Premium.GrantedAt = &t
	}
	if pExpires.Valid {
		t := pExpires.Time
		u.Premium.ExpiresAt = &t
	}
	u.FamilyTier.Status = fStatus.String
	u.FamilyTier.Plan = fPlan.String
	if fGranted.Valid {
		t := fGranted.Time
		u.FamilyTier.GrantedAt = &t
	}
	if fExpires.Valid {
		t := fExpires.Time
		u.FamilyTier.ExpiresAt = &t
	}

	return &u, nil
}
