package migrations

import (
	"database/sql"
	"log"
)

// AddPremiumColumns adds the subscription gating columns to the users table.
// There is one column set per tier: premium (company scope) and family.
func AddPremiumColumns(db *sql.DB) error {
	log.Println("Adding premium columns to users table...")

	columns := []string{
		"is_premium BOOLEAN NOT NULL DEFAULT 0",
		"subscription_status TEXT",
		"premium_plan TEXT",
		"premium_granted_at DATETIME",
		"premium_expires_at DATETIME",
		"premium_payment_ref TEXT",
		"family_premium BOOLEAN NOT NULL DEFAULT 0",
		"family_subscription_status TEXT",
		"family_premium_plan TEXT",
		"family_premium_granted_at DATETIME",
		"family_premium_expires_at DATETIME",
		"family_payment_ref TEXT",
	}

	for _, col := range columns {
		_, err := db.Exec("ALTER TABLE users ADD COLUMN " + col + ";")
		if err != nil {
			log.Printf("Error adding column %q: %v", col, err)
			return err
		}
	}

	log.Println("Premium columns added successfully")
	return nil
}
