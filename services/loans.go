package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"fiambond/backend/database"
	"fiambond/backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Loan bookkeeping. Every lifecycle step that moves money appends paired
// ledger entries in the same database transaction as the loan row change,
// so a crash can never leave a loan without its ledger trail.
//
// Ledger entries for loans always land in each party's personal scope: cash
// moves between people, the loan's family only governs the confirmation
// flow. Interest has no ledger entry of its own — it increases total owed
// and is realized through repayment amounts.

// NewLoan is the payload for creating a debt obligation.
type NewLoan struct {
	FamilyID string `json:"familyId"`
	// DebtorID names a platform user; DebtorName labels an external
	// debtor. Family loans require a platform debtor.
	DebtorID       string          `json:"debtorId"`
	DebtorName     string          `json:"debtorName"`
	Amount         decimal.Decimal `json:"amount"`
	InterestAmount decimal.Decimal `json:"interestAmount"`
	Description    string          `json:"description"`
	Deadline       *time.Time      `json:"deadline"`
	AttachmentURL  string          `json:"attachmentUrl"`
}

// NewRepayment is the payload for recording a repayment against a loan.
type NewRepayment struct {
	Amount     decimal.Decimal `json:"amount"`
	ReceiptURL string          `json:"receiptUrl"`
}

// CreateLoan creates the obligation and records the creditor's principal
// disbursement as an expense. Family loans start pending the debtor's
// confirmation; personal/external loans are outstanding immediately.
func CreateLoan(creditorID string, in NewLoan) (*models.Loan, error) {
	principalCents, err := models.AmountToCents(in.Amount)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	interestCents, err := models.NonNegativeToCents(in.InterestAmount)
	if err != nil {
		return nil, &ValidationError{Message: "interest " + err.Error()}
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, &ValidationError{Message: "description is required"}
	}
	if in.DebtorID == creditorID && in.DebtorID != "" {
		return nil, &ValidationError{Message: "cannot loan to yourself"}
	}

	status := models.LoanOutstanding
	if in.FamilyID != "" {
		if in.DebtorID == "" {
			return nil, &ValidationError{Message: "family loans require a platform debtor"}
		}
		// Both parties must belong to the family, and the creditor needs
		// the family tier to use the shared scope at all.
		if err := authorizeScope(creditorID, models.Scope{Kind: models.ScopeFamily, FamilyID: in.FamilyID}); err != nil {
			return nil, err
		}
		debtorMember, err := IsFamilyMember(in.DebtorID, in.FamilyID)
		if err != nil {
			return nil, err
		}
		if !debtorMember {
			return nil, &ValidationError{Message: "debtor does not belong to this family"}
		}
		status = models.LoanPendingConfirmation
	} else if in.DebtorID == "" && strings.TrimSpace(in.DebtorName) == "" {
		return nil, &ValidationError{Message: "a debtor user or debtor name is required"}
	}

	totalCents := principalCents + interestCents
	now := time.Now()
	loan := &models.Loan{
		ID:             uuid.NewString(),
		FamilyID:       in.FamilyID,
		CreditorID:     creditorID,
		DebtorID:       in.DebtorID,
		DebtorName:     in.DebtorName,
		Amount:         models.CentsToAmount(principalCents),
		InterestAmount: models.CentsToAmount(interestCents),
		TotalOwed:      models.CentsToAmount(totalCents),
		RepaidAmount:   decimal.Zero,
		Description:    in.Description,
		Deadline:       in.Deadline,
		AttachmentURL:  in.AttachmentURL,
		Status:         status,
		CreatedAt:      now,
	}

	tx, err := database.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO loans (id, family_id, creditor_id, debtor_id, debtor_name, amount_cents, interest_cents,
		                   total_owed_cents, repaid_cents, description, deadline, attachment_url, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?)
	`, loan.ID, nullable(loan.FamilyID), loan.CreditorID, nullable(loan.DebtorID), loan.DebtorName,
		principalCents, interestCents, totalCents, loan.Description, loan.Deadline,
		nullable(loan.AttachmentURL), loan.Status, loan.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create loan: %w", err)
	}

	// Only the principal leaves the creditor's pocket at creation time.
	disbursement := models.Transaction{
		ID:            uuid.NewString(),
		OwnerID:       creditorID,
		Type:          models.TypeExpense,
		Amount:        loan.Amount,
		Description:   "Loan disbursed: " + loan.Description,
		AttachmentURL: loan.AttachmentURL,
		LoanID:        loan.ID,
		CreatedAt:     now,
	}
	if err := insertTransaction(tx, &disbursement, principalCents); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return loan, nil
}

// ConfirmLoanReceipt is the debtor acknowledging a pending family loan. The
// loan becomes outstanding and the debtor's ledger gains an income of the
// full amount owed.
func ConfirmLoanReceipt(callerID, loanID string) (*models.Loan, error) {
	loan, err := loadLoan(loanID)
	if err != nil {
		return nil, err
	}

	// Authorization before state: a non-party must not learn whether the
	// loan is still pending
	if loan.DebtorID != callerID {
		return nil, &AuthorizationError{Message: "only the debtor can confirm receipt"}
	}
	if loan.Status != models.LoanPendingConfirmation {
		return nil, &InvalidStateError{Message: "loan is not awaiting confirmation"}
	}

	totalCents, err := models.AmountToCents(loan.TotalOwed)
	if err != nil {
		return nil, err
	}

	tx, err := database.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Status guard: a concurrent second confirm finds zero rows and is
	// rejected instead of re-applying the income entry.
	res, err := tx.Exec(
		"UPDATE loans SET status = ? WHERE id = ? AND status = ?",
		models.LoanOutstanding, loanID, models.LoanPendingConfirmation)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, &InvalidStateError{Message: "loan is not awaiting confirmation"}
	}

	receipt := models.Transaction{
		ID:          uuid.NewString(),
		OwnerID:     loan.DebtorID,
		Type:        models.TypeIncome,
		Amount:      loan.TotalOwed,
		Description: "Loan received: " + loan.Description,
		LoanID:      loan.ID,
		CreatedAt:   time.Now(),
	}
	if err := insertTransaction(tx, &receipt, totalCents); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	loan.Status = models.LoanOutstanding
	return loan, nil
}

// RecordRepayment applies a partial or full repayment. The repaid amount is
// advanced with an atomic guarded increment, so two simultaneous repayments
// can never overshoot the total owed or lose an update. Each repayment
// appends a creditor income entry and, for platform debtors, a matching
// debtor expense entry.
func RecordRepayment(callerID, loanID string, in NewRepayment) (*models.Loan, error) {
	cents, err := models.AmountToCents(in.Amount)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	loan, err := loadLoan(loanID)
	if err != nil {
		return nil, err
	}

	if callerID != loan.CreditorID && callerID != loan.DebtorID {
		return nil, &AuthorizationError{Message: "only the loan's parties can record repayments"}
	}
	switch loan.Status {
	case models.LoanPendingConfirmation:
		return nil, &InvalidStateError{Message: "loan has not been confirmed yet"}
	case models.LoanRepaid:
		return nil, &InvalidStateError{Message: "loan is already repaid"}
	}

	if in.Amount.GreaterThan(loan.Outstanding()) {
		return nil, &OverpaymentError{Outstanding: loan.Outstanding()}
	}

	now := time.Now()
	tx, err := database.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Atomic increment with the invariant in the WHERE clause. If a
	// concurrent repayment got there first, zero rows are updated and we
	// re-check against the fresh row.
	res, err := tx.Exec(`
		UPDATE loans
		SET repaid_cents = repaid_cents + ?
		WHERE id = ? AND status = ? AND repaid_cents + ? <= total_owed_cents
	`, cents, loanID, models.LoanOutstanding, cents)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		fresh, err := loadLoan(loanID)
		if err != nil {
			return nil, err
		}
		if fresh.Status != models.LoanOutstanding {
			return nil, &InvalidStateError{Message: "loan is already repaid"}
		}
		return nil, &OverpaymentError{Outstanding: fresh.Outstanding()}
	}

	// Recompute status from the updated row
	var repaidCents, totalCents int64
	err = tx.QueryRow("SELECT repaid_cents, total_owed_cents FROM loans WHERE id = ?", loanID).
		Scan(&repaidCents, &totalCents)
	if err != nil {
		return nil, err
	}
	if repaidCents >= totalCents {
		if _, err := tx.Exec("UPDATE loans SET status = ? WHERE id = ?", models.LoanRepaid, loanID); err != nil {
			return nil, err
		}
	}

	if in.ReceiptURL != "" {
		_, err = tx.Exec(`
			INSERT INTO loan_receipts (id, loan_id, url, amount_cents, recorded_at)
			VALUES (?, ?, ?, ?, ?)
		`, uuid.NewString(), loanID, in.ReceiptURL, cents, now)
		if err != nil {
			return nil, fmt.Errorf("failed to record receipt: %w", err)
		}
	}

	amount := models.CentsToAmount(cents)
	creditorEntry := models.Transaction{
		ID:            uuid.NewString(),
		OwnerID:       loan.CreditorID,
		Type:          models.TypeIncome,
		Amount:        amount,
		Description:   "Loan repayment received: " + loan.Description,
		AttachmentURL: in.ReceiptURL,
		LoanID:        loan.ID,
		CreatedAt:     now,
	}
	if err := insertTransaction(tx, &creditorEntry, cents); err != nil {
		return nil, err
	}

	// External name-only debtors have no ledger of their own
	if !loan.External() {
		debtorEntry := models.Transaction{
			ID:            uuid.NewString(),
			OwnerID:       loan.DebtorID,
			Type:          models.TypeExpense,
			Amount:        amount,
			Description:   "Loan repayment made: " + loan.Description,
			AttachmentURL: in.ReceiptURL,
			LoanID:        loan.ID,
			CreatedAt:     now,
		}
		if err := insertTransaction(tx, &debtorEntry, cents); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	loan, err = loadLoan(loanID)
	if err != nil {
		return nil, err
	}
	loan.Receipts, err = loanReceipts(loanID)
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// ListLoans returns the loans visible to the caller: those of one family
// when familyID is given (members only), otherwise every loan the caller is
// party to.
func ListLoans(callerID, familyID string) ([]models.Loan, error) {
	query := loanSelect + " WHERE creditor_id = ? OR debtor_id = ? ORDER BY created_at DESC"
	args := []interface{}{callerID, callerID}

	if familyID != "" {
		member, err := IsFamilyMember(callerID, familyID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, &AuthorizationError{Message: "caller does not belong to this family"}
		}
		query = loanSelect + " WHERE family_id = ? ORDER BY created_at DESC"
		args = []interface{}{familyID}
	}

	rows, err := database.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []models.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]string, len(loans))
	for i := range loans {
		ids[i] = loans[i].ID
	}
	receipts, err := receiptsByLoan(ids)
	if err != nil {
		return nil, err
	}
	for i := range loans {
		loans[i].Receipts = receipts[loans[i].ID]
	}

	return loans, nil
}

// GetLoan returns one loan if the caller is a party or a fellow family
// member.
func GetLoan(callerID, loanID string) (*models.Loan, error) {
	loan, err := loadLoan(loanID)
	if err != nil {
		return nil, err
	}

	allowed := callerID == loan.CreditorID || callerID == loan.DebtorID
	if !allowed && loan.FamilyID != "" {
		allowed, err = IsFamilyMember(callerID, loan.FamilyID)
		if err != nil {
			return nil, err
		}
	}
	if !allowed {
		return nil, &AuthorizationError{Message: "not allowed to view this loan"}
	}

	loan.Receipts, err = loanReceipts(loanID)
	if err != nil {
		return nil, err
	}
	return loan, nil
}

const loanSelect = `
	SELECT id, family_id, creditor_id, debtor_id, debtor_name, amount_cents, interest_cents,
	       total_owed_cents, repaid_cents, description, deadline, attachment_url, status, created_at
	FROM loans`

func loadLoan(loanID string) (*models.Loan, error) {
	row := database.DB.QueryRow(loanSelect+" WHERE id = ?", loanID)
	loan, err := scanLoan(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "loan"}
	}
	if err != nil {
		return nil, err
	}
	return loan, nil
}

func scanLoan(row rowScanner) (*models.Loan, error) {
	var l models.Loan
	var familyID, debtorID, attachmentURL sql.NullString
	var deadline sql.NullTime
	var amountCents, interestCents, totalCents, repaidCents int64

	err := row.Scan(&l.ID, &familyID, &l.CreditorID, &debtorID, &l.DebtorName, &amountCents,
		&interestCents, &totalCents, &repaidCents, &l.Description, &deadline, &attachmentURL,
		&l.Status, &l.CreatedAt)
	if err != nil {
		return nil, err
	}

	l.FamilyID = familyID.String
	l.DebtorID = debtorID.String
	l.AttachmentURL = attachmentURL.String
	if deadline.Valid {
		t := deadline.Time
		l.Deadline = &t
	}
	l.Amount = models.CentsToAmount(amountCents)
	l.InterestAmount = models.CentsToAmount(interestCents)
	l.TotalOwed = models.CentsToAmount(totalCents)
	l.RepaidAmount = models.CentsToAmount(repaidCents)
	return &l, nil
}

// receiptsByLoan fetches the receipts of many loans in one query, grouped by
// loan id.
func receiptsByLoan(loanIDs []string) (map[string][]models.LoanReceipt, error) {
	grouped := make(map[string][]models.LoanReceipt)
	if len(loanIDs) == 0 {
		return grouped, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(loanIDs)), ",")
	args := make([]interface{}, len(loanIDs))
	for i, id := range loanIDs {
		args[i] = id
	}

	rows, err := database.DB.Query(`
		SELECT id, loan_id, url, amount_cents, recorded_at
		FROM loan_receipts
		WHERE loan_id IN (`+placeholders+`)
		ORDER BY recorded_at
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var r models.LoanReceipt
		var cents int64
		if err := rows.Scan(&r.ID, &r.LoanID, &r.URL, &cents, &r.RecordedAt); err != nil {
			return nil, err
		}
		r.Amount = models.CentsToAmount(cents)
		grouped[r.LoanID] = append(grouped[r.LoanID], r)
	}

	return grouped, rows.Err()
}

func loanReceipts(loanID string) ([]models.LoanReceipt, error) {
	rows, err := database.DB.Query(`
		SELECT id, loan_id, url, amount_cents, recorded_at
		FROM loan_receipts
		WHERE loan_id = ?
		ORDER BY recorded_at
	`, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []models.LoanReceipt
	for rows.Next() {
		var r models.LoanReceipt
		var cents int64
		if err := rows.Scan(&r.ID, &r.LoanID, &r.URL, &cents, &r.RecordedAt); err != nil {
			return nil, err
		}
		r.Amount = models.CentsToAmount(cents)
		receipts = append(receipts, r)
	}

	return receipts, rows.Err()
}
