package database

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var DB *sql.DB

func InitDB() error {
	var dsn string
	if os.Getenv("FLY_APP_NAME") != "" {
		// We're running on Fly.io, use the mounted volume
		dsn = filepath.Join("/data", "fiambond.db") + "?_journal=WAL&_timeout=10000&_busy_timeout=10000"
	} else if os.Getenv("TEST_DB") == "1" {
		// Shared-cache in-memory database so every connection in the pool
		// sees the same data during tests
		dsn = "file::memory:?cache=shared"
	} else {
		// Local development
		dsn = "./fiambond.db?_journal=WAL&_timeout=10000&_busy_timeout=10000"
	}

	var err error
	DB, err = sql.Open("sqlite3", dsn)
	if err != nil {
		return err
	}

	if os.Getenv("TEST_DB") == "1" {
		// A single connection keeps the in-memory database alive for the
		// whole test run
		DB.SetMaxOpenConns(1)
	} else {
		DB.SetMaxOpenConns(5)
		DB.SetMaxIdleConns(5)
		DB.SetConnMaxLifetime(time.Minute * 5)

		if _, err = DB.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return err
		}
		if _, err = DB.Exec("PRAGMA busy_timeout=5000;"); err != nil {
			return err
		}
	}

	if err = DB.Ping(); err != nil {
		return err
	}

	return createCoreTables()
}

// createCoreTables creates the tables every deployment has had since day
// one. Later additions live in the migrations package.
func createCoreTables() error {
	createUsersTable := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user'
	);
	`
	if _, err := DB.Exec(createUsersTable); err != nil {
		return err
	}

	createFamiliesTable := `
	CREATE TABLE IF NOT EXISTS families (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS family_members (
		family_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		joined_at DATETIME NOT NULL,
		PRIMARY KEY (family_id, user_id)
	);
	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	`
	if _, err := DB.Exec(createFamiliesTable); err != nil {
		return err
	}

	createTransactionsTable := `
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		family_id TEXT,
		company_id TEXT,
		type TEXT NOT NULL,
		amount_cents INTEGER NOT NULL CHECK (amount_cents > 0),
		description TEXT NOT NULL,
		attachment_url TEXT,
		loan_id TEXT,
		created_at DATETIME NOT NULL
	);
	`
	if _, err := DB.Exec(createTransactionsTable); err != nil {
		return err
	}

	return nil
}
