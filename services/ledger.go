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

// The ledger is append-only. Balances are always derived by summation over
// the rows in one scope; there is no stored balance field anywhere, so
// nothing can drift.

// NewTransaction is the payload for recording a money movement.
type NewTransaction struct {
	FamilyID      string          `json:"familyId"`
	CompanyID     string          `json:"companyId"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	AttachmentURL string          `json:"attachmentUrl"`
	LoanID        string          `json:"loanId"`
	// Force overrides the active-goal conflict check. The conflicting
	// goals get a timestamped consequence note appended.
	Force bool `json:"force"`
	// DeductFromPersonal mirrors a family income as a personal expense for
	// the same user ("this income went to the family pool, so it leaves my
	// personal pocket"). Only meaningful for family-scoped income.
	DeductFromPersonal bool `json:"deductFromPersonal"`
}

// RecordTransaction validates and appends one ledger entry, applying the
// goal-conflict check and the family-income mirror rule. All writes of one
// call happen in a single database transaction.
func RecordTransaction(callerID string, in NewTransaction) (*models.Transaction, error) {
	cents, err := models.AmountToCents(in.Amount)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	if in.Type != models.TypeIncome && in.Type != models.TypeExpense {
		return nil, &ValidationError{Message: "type must be income or expense"}
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, &ValidationError{Message: "description is required"}
	}

	scope, err := models.ResolveScope(in.FamilyID, in.CompanyID)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	if err := authorizeScope(callerID, scope); err != nil {
		return nil, err
	}

	// Conflict check: an expense against a scope with active goals is
	// flagged, not blocked, unless force-created.
	var conflicting []models.Goal
	if in.Type == models.TypeExpense && scope.Kind != models.ScopeCompany {
		conflicting, err = activeGoalsInScope(callerID, scope)
		if err != nil {
			return nil, err
		}
		if len(conflicting) > 0 && !in.Force {
			return nil, &ConflictError{
				Message: "expense conflicts with active goals in this scope",
				Goals:   conflicting,
			}
		}
	}

	now := time.Now()
	entry := models.Transaction{
		ID:            uuid.NewString(),
		OwnerID:       callerID,
		FamilyID:      in.FamilyID,
		CompanyID:     in.CompanyID,
		Type:          in.Type,
		Amount:        models.CentsToAmount(cents),
		Description:   in.Description,
		AttachmentURL: in.AttachmentURL,
		LoanID:        in.LoanID,
		CreatedAt:     now,
	}

	tx, err := database.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := insertTransaction(tx, &entry, cents); err != nil {
		return nil, err
	}

	// Note every goal the forced expense undercuts. Existing notes are
	// preserved, newline-joined.
	for _, g := range conflicting {
		note := fmt.Sprintf("[%s] expense of %s recorded despite active goal (%s)",
			now.Format(time.RFC3339), entry.Amount.StringFixed(2), entry.Description)
		_, err := tx.Exec(`
			UPDATE goals
			SET consequence_note = CASE WHEN consequence_note = '' THEN ? ELSE consequence_note || char(10) || ? END
			WHERE id = ? AND deleted_at IS NULL
		`, note, note, g.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to note goal conflict: %w", err)
		}
	}

	if in.Type == models.TypeIncome && scope.Kind == models.ScopeFamily && in.DeductFromPersonal {
		mirror := models.Transaction{
			ID:          uuid.NewString(),
			OwnerID:     callerID,
			Type:        models.TypeExpense,
			Amount:      entry.Amount,
			Description: "Contributed to family pool: " + in.Description,
			CreatedAt:   now,
		}
		if err := insertTransaction(tx, &mirror, cents); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &entry, nil
}

// ComputeBalance derives income minus expense over one scope, optionally
// bounded by a time range. Always a full recomputation from the rows.
func ComputeBalance(callerID string, scope models.Scope, since, until *time.Time) (decimal.Decimal, error) {
	if err := authorizeScope(callerID, scope); err != nil {
		return decimal.Zero, err
	}

	clause, args := scopeClause(callerID, scope)
	query := `
		SELECT COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents ELSE -amount_cents END), 0)
		FROM transactions
		WHERE deleted_at IS NULL AND ` + clause
	if since != nil {
		query += " AND created_at >= ?"
		args = append(args, *since)
	}
	if until != nil {
		query += " AND created_at <= ?"
		args = append(args, *until)
	}

	var cents int64
	if err := database.DB.QueryRow(query, args...).Scan(&cents); err != nil {
		return decimal.Zero, err
	}

	return models.CentsToAmount(cents), nil
}

// ListTransactions returns the non-deleted entries of one scope, newest
// first, optionally bounded by a time range.
func ListTransactions(callerID string, scope models.Scope, since, until *time.Time) ([]models.Transaction, error) {
	if err := authorizeScope(callerID, scope); err != nil {
		return nil, err
	}

	clause, args := scopeClause(callerID, scope)
	query := `
		SELECT id, owner_id, family_id, company_id, type, amount_cents, description, attachment_url, loan_id, created_at
		FROM transactions
		WHERE deleted_at IS NULL AND ` + clause
	if since != nil {
		query += " AND created_at >= ?"
		args = append(args, *since)
	}
	if until != nil {
		query += " AND created_at <= ?"
		args = append(args, *until)
	}
	query += " ORDER BY created_at DESC"

	rows, err := database.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *t)
	}

	return transactions, rows.Err()
}

// GetTransaction returns one entry if the caller can see its scope.
func GetTransaction(callerID, id string) (*models.Transaction, error) {
	row := database.DB.QueryRow(`
		SELECT id, owner_id, family_id, company_id, type, amount_cents, description, attachment_url, loan_id, created_at
		FROM transactions
		WHERE id = ? AND deleted_at IS NULL
	`, id)

	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "transaction"}
	}
	if err != nil {
		return nil, err
	}

	if err := authorizeView(callerID, t.OwnerID, t.Scope()); err != nil {
		return nil, err
	}

	return t, nil
}

// DeleteTransaction soft-deletes an entry. Only the owner may delete, and
// the row is kept with deleted_at set so the ledger stays auditable.
func DeleteTransaction(callerID, id string) error {
	var ownerID string
	err := database.DB.QueryRow(
		"SELECT owner_id FROM transactions WHERE id = ? AND deleted_at IS NULL", id).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return &NotFoundError{Resource: "transaction"}
	}
	if err != nil {
		return err
	}

	if ownerID != callerID {
		return &AuthorizationError{Message: "only the owner can delete a transaction"}
	}

	_, err = database.DB.Exec(
		"UPDATE transactions SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL",
		time.Now(), id)
	return err
}

// insertTransaction appends one row inside the caller's database
// transaction. cents must match t.Amount.
func insertTransaction(tx *sql.Tx, t *models.Transaction, cents int64) error {
	_, err := tx.Exec(`
		INSERT INTO transactions (id, owner_id, family_id, company_id, type, amount_cents, description, attachment_url, loan_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.OwnerID, nullable(t.FamilyID), nullable(t.CompanyID), t.Type, cents,
		t.Description, nullable(t.AttachmentURL), nullable(t.LoanID), t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var t models.Transaction
	var familyID, companyID, attachmentURL, loanID sql.NullString
	var cents int64

	err := row.Scan(&t.ID, &t.OwnerID, &familyID, &companyID, &t.Type, &cents,
		&t.Description, &attachmentURL, &loanID, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	t.FamilyID = familyID.String
	t.CompanyID = companyID.String
	t.AttachmentURL = attachmentURL.String
	t.LoanID = loanID.String
	t.Amount = models.CentsToAmount(cents)
	return &t, nil
}

// scopeClause returns the SQL partition filter for one scope. Personal rows
// are per-owner; family and company rows are shared across their members.
func scopeClause(callerID string, scope models.Scope) (string, []interface{}) {
	switch scope.Kind {
	case models.ScopeFamily:
		return "family_id = ?", []interface{}{scope.FamilyID}
	case models.ScopeCompany:
		return "company_id = ?", []interface{}{scope.CompanyID}
	default:
		return "family_id IS NULL AND company_id IS NULL AND owner_id = ?", []interface{}{callerID}
	}
}

// authorizeScope checks that the caller may write into or read from a scope.
// Family scope requires membership and the family tier; company scope
// requires ownership and the premium tier.
func authorizeScope(callerID string, scope models.Scope) error {
	switch scope.Kind {
	case models.ScopeFamily:
		member, err := IsFamilyMember(callerID, scope.FamilyID)
		if err != nil {
			return err
		}
		if !member {
			return &ValidationError{Message: "caller does not belong to this family"}
		}
		hasTier, err := HasFamilyAccess(callerID)
		if err != nil {
			return err
		}
		if !hasTier {
			return &AuthorizationError{Message: "family access requires an active family subscription"}
		}
	case models.ScopeCompany:
		owner, err := IsCompanyOwner(callerID, scope.CompanyID)
		if err != nil {
			return err
		}
		if !owner {
			return &AuthorizationError{Message: "caller does not own this company"}
		}
		hasTier, err := HasCompanyAccess(callerID)
		if err != nil {
			return err
		}
		if !hasTier {
			return &AuthorizationError{Message: "company access requires an active premium subscription"}
		}
	}
	return nil
}

// authorizeView allows the record owner plus anyone who can access the
// record's scope.
func authorizeView(callerID, ownerID string, scope models.Scope) error {
	if callerID == ownerID {
		return nil
	}
	if scope.Kind == models.ScopePersonal {
		return &AuthorizationError{Message: "not allowed to view this record"}
	}
	return authorizeScope(callerID, scope)
}

func activeGoalsInScope(callerID string, scope models.Scope) ([]models.Goal, error) {
	clause, args := scopeClause(callerID, scope)
	rows, err := database.DB.Query(`
		SELECT id, owner_id, family_id, company_id, name, target_cents, target_date, status,
		       consequence_note, completed_at, completed_by, achievement_url, created_at
		FROM goals
		WHERE deleted_at IS NULL AND status = 'active' AND `+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}

	return goals, rows.Err()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func init() {
	// Clients expect amounts as plain JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}
