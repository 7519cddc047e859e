package migrations

import (
	"database/sql"
	"log"
)

// AddSoftDeleteColumns adds deleted_at to transactions and goals. Deletes
// keep the row for auditability; every read filters on deleted_at IS NULL.
func AddSoftDeleteColumns(db *sql.DB) error {
	log.Println("Adding soft delete columns...")

	_, err := db.Exec(`ALTER TABLE transactions ADD COLUMN deleted_at DATETIME;`)
	if err != nil {
		log.Printf("Error adding deleted_at to transactions: %v", err)
		return err
	}

	_, err = db.Exec(`ALTER TABLE goals ADD COLUMN deleted_at DATETIME;`)
	if err != nil {
		log.Printf("Error adding deleted_at to goals: %v", err)
		return err
	}

	log.Println("Soft delete columns added successfully")
	return nil
}
