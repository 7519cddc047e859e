package migrations

import (
	"database/sql"
	"log"
)

// AddGoalsTable creates the goals table
func AddGoalsTable(db *sql.DB) error {
	log.Println("Creating goals table...")

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS goals (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			family_id TEXT,
			company_id TEXT,
			name TEXT NOT NULL,
			target_cents INTEGER NOT NULL CHECK (target_cents > 0),
			target_date DATETIME,
			status TEXT NOT NULL DEFAULT 'active',
			consequence_note TEXT NOT NULL DEFAULT '',
			completed_at DATETIME,
			completed_by TEXT,
			achievement_url TEXT,
			created_at DATETIME NOT NULL
		);
	`)
	if err != nil {
		log.Printf("Error creating goals table: %v", err)
		return err
	}

	log.Println("Goals table created successfully")
	return nil
}
