package handlers

import (
	"context"
	"net/http"
	"os"

	"fiambond/backend/database"
	"fiambond/backend/middleware"
	"fiambond/backend/migrations"
	"fiambond/backend/security"
)

// Define a constant for the test user ID that can be used across all tests
const TestUserID = "test-user-id"

// SetupTestAuth adds authentication context to the request
func SetupTestAuth(req *http.Request) *http.Request {
	return SetupTestAuthAs(req, TestUserID)
}

// SetupTestAuthAs adds authentication context for a specific user
func SetupTestAuthAs(req *http.Request, userID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

// SetupTestDB initializes a fresh in-memory database with the full schema and
// a default test user
func SetupTestDB() {
	os.Setenv("TEST_DB", "1")
	security.InitializeEncryption("test-encryption-key")

	if database.DB != nil {
		database.DB.Close()
	}
	if err := database.InitDB(); err != nil {
		panic(err)
	}
	if err := migrations.RunMigrations(database.DB); err != nil {
		panic(err)
	}

	SeedTestUser(TestUserID, "admin")
}

// SeedTestUser inserts a user row directly
func SeedTestUser(id, role string) {
	_, err := database.DB.Exec(
		"INSERT INTO users (id, username, name, role) VALUES (?, ?, ?, ?)",
		id, id, id, role)
	if err != nil {
		panic(err)
	}
}

// CleanupTestDB closes the test database connection
func CleanupTestDB() {
	if database.DB != nil {
		database.DB.Close()
		database.DB = nil
	}
}
