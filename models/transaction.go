package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single money movement in the ledger. Rows are append-only:
// corrections are new offsetting entries, never edits to prior rows.
type Transaction struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"ownerId"`
	FamilyID      string          `json:"familyId,omitempty"`
	CompanyID     string          `json:"companyId,omitempty"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	AttachmentURL string          `json:"attachmentUrl,omitempty"`
	LoanID        string          `json:"loanId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Scope derives the partition this transaction belongs to.
func (t Transaction) Scope() Scope {
	s, _ := ResolveScope(t.FamilyID, t.CompanyID)
	return s
}
