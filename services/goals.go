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

// NewGoal is the payload for creating a savings/spending target.
type NewGoal struct {
	FamilyID     string          `json:"familyId"`
	CompanyID    string          `json:"companyId"`
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
	TargetDate   *time.Time      `json:"targetDate"`
}

// CreateGoal creates an active goal in the caller's scope. The target date,
// if given, must be strictly in the future.
func CreateGoal(callerID string, in NewGoal) (*models.Goal, error) {
	cents, err := models.AmountToCents(in.TargetAmount)
	if err != nil {
		return nil, &ValidationError{Message: "target " + err.Error()}
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, &ValidationError{Message: "name is required"}
	}
	now := time.Now()
	if in.TargetDate != nil && !in.TargetDate.After(now) {
		return nil, &ValidationError{Message: "target date must be in the future"}
	}

	scope, err := models.ResolveScope(in.FamilyID, in.CompanyID)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	if err := authorizeScope(callerID, scope); err != nil {
		return nil, err
	}

	goal := &models.Goal{
		ID:           uuid.NewString(),
		OwnerID:      callerID,
		FamilyID:     in.FamilyID,
		CompanyID:    in.CompanyID,
		Name:         in.Name,
		TargetAmount: models.CentsToAmount(cents),
		TargetDate:   in.TargetDate,
		Status:       models.GoalActive,
		CreatedAt:    now,
	}

	_, err = database.DB.Exec(`
		INSERT INTO goals (id, owner_id, family_id, company_id, name, target_cents, target_date, status, consequence_note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, '', ?)
	`, goal.ID, goal.OwnerID, nullable(goal.FamilyID), nullable(goal.CompanyID),
		goal.Name, cents, goal.TargetDate, goal.Status, goal.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	return goal, nil
}

// CompleteGoal transitions an active goal to completed and records the
// matching expense in the goal's exact scope. Both writes happen in one
// database transaction: either the goal flips and the ledger entry exists,
// or neither does.
func CompleteGoal(callerID, goalID, achievementURL string) (*models.Goal, error) {
	goal, err := loadGoal(goalID)
	if err != nil {
		return nil, err
	}

	if err := authorizeView(callerID, goal.OwnerID, goal.Scope()); err != nil {
		return nil, err
	}
	if goal.Status != models.GoalActive {
		return nil, &InvalidStateError{Message: "goal is not active"}
	}

	now := time.Now()
	cents, err := models.AmountToCents(goal.TargetAmount)
	if err != nil {
		return nil, err
	}

	tx, err := database.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// The status guard in the WHERE clause makes concurrent completions
	// lose cleanly instead of double-recording the expense.
	res, err := tx.Exec(`
		UPDATE goals
		SET status = ?, completed_at = ?, completed_by = ?, achievement_url = ?
		WHERE id = ? AND status = 'active' AND deleted_at IS NULL
	`, models.GoalCompleted, now, callerID, nullable(achievementURL), goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to complete goal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, &InvalidStateError{Message: "goal is not active"}
	}

	entry := models.Transaction{
		ID:          uuid.NewString(),
		OwnerID:     callerID,
		FamilyID:    goal.FamilyID,
		CompanyID:   goal.CompanyID,
		Type:        models.TypeExpense,
		Amount:      goal.TargetAmount,
		Description: "Goal achieved: " + goal.Name,
		CreatedAt:   now,
	}
	if err := insertTransaction(tx, &entry, cents); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	goal.Status = models.GoalCompleted
	goal.CompletedAt = &now
	goal.CompletedBy = callerID
	goal.AchievementURL = achievementURL
	return goal, nil
}

// AbandonGoal soft-deletes an active goal. No ledger side effect.
func AbandonGoal(callerID, goalID string) error {
	goal, err := loadGoal(goalID)
	if err != nil {
		return err
	}

	if goal.OwnerID != callerID {
		return &AuthorizationError{Message: "only the owner can abandon a goal"}
	}
	if goal.Status != models.GoalActive {
		return &InvalidStateError{Message: "completed goals cannot be deleted"}
	}

	_, err = database.DB.Exec(
		"UPDATE goals SET deleted_at = ? WHERE id = ? AND status = 'active' AND deleted_at IS NULL",
		time.Now(), goalID)
	return err
}

// ListGoals returns the non-deleted goals of one scope, newest first.
func ListGoals(callerID string, scope models.Scope) ([]models.Goal, error) {
	if err := authorizeScope(callerID, scope); err != nil {
		return nil, err
	}

	clause, args := scopeClause(callerID, scope)
	rows, err := database.DB.Query(`
		SELECT id, owner_id, family_id, company_id, name, target_cents, target_date, status,
		       consequence_note, completed_at, completed_by, achievement_url, created_at
		FROM goals
		WHERE deleted_at IS NULL AND `+clause+`
		ORDER BY created_at DESC`, args...)
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

// GetGoal returns one goal if the caller can see its scope.
func GetGoal(callerID, goalID string) (*models.Goal, error) {
	goal, err := loadGoal(goalID)
	if err != nil {
		return nil, err
	}
	if err := authorizeView(callerID, goal.OwnerID, goal.Scope()); err != nil {
		return nil, err
	}
	return goal, nil
}

func loadGoal(goalID string) (*models.Goal, error) {
	row := database.DB.QueryRow(`
		SELECT id, owner_id, family_id, company_id, name, target_cents, target_date, status,
		       consequence_note, completed_at, completed_by, achievement_url, created_at
		FROM goals
		WHERE id = ? AND deleted_at IS NULL
	`, goalID)

	goal, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "goal"}
	}
	if err != nil {
		return nil, err
	}
	return goal, nil
}

func scanGoal(row rowScanner) (*models.Goal, error) {
	var g models.Goal
	var familyID, companyID, completedBy, achievementURL sql.NullString
	var targetDate, completedAt sql.NullTime
	var cents int64

	err := row.Scan(&g.ID, &g.OwnerID, &familyID, &companyID, &g.Name, &cents, &targetDate,
		&g.Status, &g.ConsequenceNote, &completedAt, &completedBy, &achievementURL, &g.CreatedAt)
	if err != nil {
		return nil, err
	}

	g.FamilyID = familyID.String
	g.CompanyID = companyID.String
	g.CompletedBy = completedBy.String
	g.AchievementURL = achievementURL.String
	if targetDate.Valid {
		t := targetDate.Time
		g.TargetDate = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		g.CompletedAt = &t
	}
	g.TargetAmount = models.CentsToAmount(cents)
	return &g, nil
}
