package migrations

import (
	"database/sql"
	"log"
	"os"
	"time"
)

// SeedDevData inserts a couple of users and a family for development and PR
// deployments. Production environments are never seeded.
func SeedDevData(db *sql.DB) error {
	// Test databases must start empty
	if os.Getenv("TEST_DB") == "1" {
		return nil
	}

	isDevelopment := os.Getenv("APP_ENV") != "production" &&
		os.Getenv("ENVIRONMENT") != "production" &&
		os.Getenv("ENV") != "production"
	isPRDeployment := os.Getenv("PR_DEPLOYMENT") == "true"

	if !isDevelopment && !isPRDeployment {
		log.Println("Skipping dev data seeding in production environment")
		return nil
	}

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		log.Println("Users already exist, skipping dev data seeding")
		return nil
	}

	log.Println("Seeding dev users and family...")

	users := []struct {
		id       string
		username string
		name     string
		role     string
	}{
		{"dev-admin-1", "admin", "Dev Admin", "admin"},
		{"dev-user-1", "alice", "Alice", "user"},
		{"dev-user-2", "bob", "Bob", "user"},
	}

	for _, u := range users {
		_, err := db.Exec("INSERT INTO users (id, username, name, role) VALUES (?, ?, ?, ?)",
			u.id, u.username, u.name, u.role)
		if err != nil {
			return err
		}
	}

	now := time.Now()
	_, err = db.Exec("INSERT INTO families (id, name, owner_id, created_at) VALUES (?, ?, ?, ?)",
		"dev-family-1", "Dev Family", "dev-user-1", now)
	if err != nil {
		return err
	}

	for _, member := range []string{"dev-user-1", "dev-user-2"} {
		_, err = db.Exec("INSERT INTO family_members (family_id, user_id, joined_at) VALUES (?, ?, ?)",
			"dev-family-1", member, now)
		if err != nil {
			return err
		}
	}

	// Give the seeded members the family tier so scoped writes work out of
	// the box in dev
	for _, member := range []string{"dev-user-1", "dev-user-2"} {
		_, err = db.Exec(`
			UPDATE users
			SET family_premium = 1, family_subscription_status = 'active',
			    family_premium_plan = 'monthly', family_premium_granted_at = ?
			WHERE id = ?`, now, member)
		if err != nil {
			return err
		}
	}

	log.Println("Dev data seeded successfully")
	return nil
}
