package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan tracks a principal-plus-interest obligation between a creditor and a
// debtor. TotalOwed is fixed at creation (principal + interest) and never
// recomputed; RepaidAmount only grows and never exceeds it.
type Loan struct {
	ID             string          `json:"id"`
	FamilyID       string          `json:"familyId,omitempty"`
	CreditorID     string          `json:"creditorId"`
	DebtorID       string          `json:"debtorId,omitempty"`
	DebtorName     string          `json:"debtorName,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	InterestAmount decimal.Decimal `json:"interestAmount"`
	TotalOwed      decimal.Decimal `json:"totalOwed"`
	RepaidAmount   decimal.Decimal `json:"repaidAmount"`
	Description    string          `json:"description"`
	Deadline       *time.Time      `json:"deadline,omitempty"`
	AttachmentURL  string          `json:"attachmentUrl,omitempty"`
	Status         string          `json:"status"`
	Receipts       []LoanReceipt   `json:"receipts,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Outstanding is what remains to be repaid.
func (l Loan) Outstanding() decimal.Decimal {
	return l.TotalOwed.Sub(l.RepaidAmount)
}

// External reports whether the debtor is a name-only label rather than a
// platform user. External loans get no debtor-side ledger entries.
func (l Loan) External() bool {
	return l.DebtorID == ""
}

// LoanReceipt is one uploaded proof of repayment.
type LoanReceipt struct {
	ID         string          `json:"id"`
	LoanID     string          `json:"loanId"`
	URL        string          `json:"url"`
	Amount     decimal.Decimal `json:"amount"`
	RecordedAt time.Time       `json:"recordedAt"`
}
