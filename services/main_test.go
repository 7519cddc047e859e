package services

import (
	"os"
	"testing"
	"time"

	"fiambond/backend/database"
	"fiambond/backend/migrations"
	"fiambond/backend/security"
)

func TestMain(m *testing.M) {
	os.Setenv("TEST_DB", "1")
	security.InitializeEncryption("test-encryption-key")
	os.Exit(m.Run())
}

// setupTestDB opens a fresh in-memory database with the full schema. Closing
// the previous handle drops the old in-memory database, so every test starts
// clean.
func setupTestDB(t *testing.T) {
	t.Helper()

	if database.DB != nil {
		database.DB.Close()
	}
	if err := database.InitDB(); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	if err := migrations.RunMigrations(database.DB); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
}

// seedUser inserts a user row. tiers may contain models.TierFamily and/or
// models.TierPremium to activate the matching subscription.
func seedUser(t *testing.T, id, role string, tiers ...string) {
	t.Helper()

	_, err := database.DB.Exec(
		"INSERT INTO users (id, username, name, role) VALUES (?, ?, ?, ?)",
		id, id, id, role)
	if err != nil {
		t.Fatalf("Failed to seed user %s: %v", id, err)
	}

	now := time.Now()
	expires := now.Add(30 * 24 * time.Hour)
	for _, tier := range tiers {
		var query string
		switch tier {
		case "family":
			query = `UPDATE users SET family_premium = 1, family_subscription_status = 'active',
				family_premium_plan = 'monthly', family_premium_granted_at = ?, family_premium_expires_at = ?
				WHERE id = ?`
		case "premium":
			query = `UPDATE users SET is_premium = 1, subscription_status = 'active',
				premium_plan = 'monthly', premium_granted_at = ?, premium_expires_at = ?
				WHERE id = ?`
		default:
			t.Fatalf("Unknown tier %q", tier)
		}
		if _, err := database.DB.Exec(query, now, expires, id); err != nil {
			t.Fatalf("Failed to activate %s tier for %s: %v", tier, id, err)
		}
	}
}

// seedFamily inserts a family with the given members; the first member is
// the owner.
func seedFamily(t *testing.T, id string, members ...string) {
	t.Helper()

	now := time.Now()
	_, err := database.DB.Exec(
		"INSERT INTO families (id, name, owner_id, created_at) VALUES (?, ?, ?, ?)",
		id, id, members[0], now)
	if err != nil {
		t.Fatalf("Failed to seed family %s: %v", id, err)
	}

	for _, member := range members {
		_, err := database.DB.Exec(
			"INSERT INTO family_members (family_id, user_id, joined_at) VALUES (?, ?, ?)",
			id, member, now)
		if err != nil {
			t.Fatalf("Failed to seed family member %s: %v", member, err)
		}
	}
}

// seedCompany inserts a company owned by ownerID.
func seedCompany(t *testing.T, id, ownerID string) {
	t.Helper()

	_, err := database.DB.Exec(
		"INSERT INTO companies (id, name, owner_id, created_at) VALUES (?, ?, ?, ?)",
		id, id, ownerID, time.Now())
	if err != nil {
		t.Fatalf("Failed to seed company %s: %v", id, err)
	}
}

func TestFreshDatabaseHasNoUsers(t *testing.T) {
	setupTestDB(t)

	var count int
	if err := database.DB.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		t.Fatalf("Failed to count users: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected an empty users table after setup, got %d rows", count)
	}

	// The dev admin's username is free for tests to claim
	seedUser(t, "admin", "admin")
}

// countTransactions counts non-deleted ledger rows matching the filters.
func countTransactions(t *testing.T, where string, args ...interface{}) int {
	t.Helper()

	var count int
	query := "SELECT COUNT(*) FROM transactions WHERE deleted_at IS NULL"
	if where != "" {
		query += " AND " + where
	}
	if err := database.DB.QueryRow(query, args...).Scan(&count); err != nil {
		t.Fatalf("Failed to count transactions: %v", err)
	}
	return count
}
