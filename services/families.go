package services

import (
	"fmt"
	"time"

	"fiambond/backend/database"
	"fiambond/backend/models"

	"github.com/google/uuid"
)

// CreateFamily creates a shared family scope. The creator becomes owner and
// first member. Requires the family tier.
func CreateFamily(ownerID, name string) (*models.Family, error) {
	if name == "" {
		return nil, &ValidationError{Message: "family name is required"}
	}

	hasTier, err := HasFamilyAccess(ownerID)
	if err != nil {
		return nil, err
	}
	if !hasTier {
		return nil, &AuthorizationError{Message: "family access requires an active family subscription"}
	}

	family := &models.Family{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   ownerID,
		Members:   []string{ownerID},
		CreatedAt: time.Now(),
	}

	tx, err := database.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.Exec("INSERT INTO families (id, name, owner_id, created_at) VALUES (?, ?, ?, ?)",
		family.ID, family.Name, family.OwnerID, family.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create family: %w", err)
	}

	_, err = tx.Exec("INSERT INTO family_members (family_id, user_id, joined_at) VALUES (?, ?, ?)",
		family.ID, ownerID, family.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to add family owner as member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return family, nil
}

// AddFamilyMember adds a user to a family. Only the family owner may do this.
func AddFamilyMember(actorID, familyID, userID string) error {
	var ownerID string
	err := database.DB.QueryRow("SELECT owner_id FROM families WHERE id = ?", familyID).Scan(&ownerID)
	if err != nil {
		return &NotFoundError{Resource: "family"}
	}

	if actorID != ownerID {
		return &AuthorizationError{Message: "only the family owner can add members"}
	}

	var exists int
	err = database.DB.QueryRow("SELECT COUNT(*) FROM users WHERE id = ?", userID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return &NotFoundError{Resource: "user"}
	}

	_, err = database.DB.Exec(`
		INSERT INTO family_members (family_id, user_id, joined_at)
		VALUES (?, ?, ?)
		ON CONFLICT(family_id, user_id) DO NOTHING
	`, familyID, userID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to add family member: %w", err)
	}

	return nil
}

// ListFamilies returns the families the user belongs to.
func ListFamilies(userID string) ([]models.Family, error) {
	rows, err := database.DB.Query(`
		SELECT f.id, f.name, f.owner_id, f.created_at
		FROM families f
		JOIN family_members m ON m.family_id = f.id
		WHERE m.user_id = ?
		ORDER BY f.created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var families []models.Family
	for rows.Next() {
		var f models.Family
		if err := rows.Scan(&f.ID, &f.Name, &f.OwnerID, &f.CreatedAt); err != nil {
			return nil, err
		}
		families = append(families, f)
	}

	for i := range families {
		members, err := familyMemberIDs(families[i].ID)
		if err != nil {
			return nil, err
		}
		families[i].Members = members
	}

	return families, nil
}

// IsFamilyMember reports whether the user belongs to the family.
func IsFamilyMember(userID, familyID string) (bool, error) {
	var count int
	err := database.DB.QueryRow(
		"SELECT COUNT(*) FROM family_members WHERE family_id = ? AND user_id = ?",
		familyID, userID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func familyMemberIDs(familyID string) ([]string, error) {
	rows, err := database.DB.Query(
		"SELECT user_id FROM family_members WHERE family_id = ? ORDER BY joined_at", familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		members = append(members, id)
	}
	return members, nil
}

// CreateCompany creates a company scope. Requires the premium tier.
func CreateCompany(ownerID, name string) (*models.Company, error) {
	if name == "" {
		return nil, &ValidationError{Message: "company name is required"}
	}

	hasTier, err := HasCompanyAccess(ownerID)
	if err != nil {
		return nil, err
	}
	if !hasTier {
		return nil, &AuthorizationError{Message: "company access requires an active premium subscription"}
	}

	company := &models.Company{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
	}

	_, err = database.DB.Exec("INSERT INTO companies (id, name, owner_id, created_at) VALUES (?, ?, ?, ?)",
		company.ID, company.Name, company.OwnerID, company.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	return company, nil
}

// IsCompanyOwner reports whether the user owns the company.
func IsCompanyOwner(userID, companyID string) (bool, error) {
	var count int
	err := database.DB.QueryRow(
		"SELECT COUNT(*) FROM companies WHERE id = ? AND owner_id = ?",
		companyID, userID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
