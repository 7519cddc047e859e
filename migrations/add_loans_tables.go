package migrations

import (
	"database/sql"
	"log"
)

// AddLoansTables creates the loans and loan_receipts tables
func AddLoansTables(db *sql.DB) error {
	log.Println("Creating loans tables...")

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS loans (
			id TEXT PRIMARY KEY,
			family_id TEXT,
			creditor_id TEXT NOT NULL,
			debtor_id TEXT,
			debtor_name TEXT NOT NULL DEFAULT '',
			amount_cents INTEGER NOT NULL CHECK (amount_cents > 0),
			interest_cents INTEGER NOT NULL DEFAULT 0 CHECK (interest_cents >= 0),
			total_owed_cents INTEGER NOT NULL,
			repaid_cents INTEGER NOT NULL DEFAULT 0,
			description TEXT NOT NULL,
			deadline DATETIME,
			attachment_url TEXT,
			status TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			CHECK (repaid_cents >= 0 AND repaid_cents <= total_owed_cents)
		);
	`)
	if err != nil {
		log.Printf("Error creating loans table: %v", err)
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS loan_receipts (
			id TEXT PRIMARY KEY,
			loan_id TEXT NOT NULL,
			url TEXT NOT NULL,
			amount_cents INTEGER NOT NULL,
			recorded_at DATETIME NOT NULL
		);
	`)
	if err != nil {
		log.Printf("Error creating loan_receipts table: %v", err)
		return err
	}

	log.Println("Loans tables created successfully")
	return nil
}
