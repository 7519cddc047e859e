package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Goal is a savings/spending target in a single scope. Completing a goal
// records a ledger expense of the target amount in the same scope.
type Goal struct {
	ID              string          `json:"id"`
	OwnerID         string          `json:"ownerId"`
	FamilyID        string          `json:"familyId,omitempty"`
	CompanyID       string          `json:"companyId,omitempty"`
	Name            string          `json:"name"`
	TargetAmount    decimal.Decimal `json:"targetAmount"`
	TargetDate      *time.Time      `json:"targetDate,omitempty"`
	Status          string          `json:"status"`
	ConsequenceNote string          `json:"consequenceNote,omitempty"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty"`
	CompletedBy     string          `json:"completedBy,omitempty"`
	AchievementURL  string          `json:"achievementUrl,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func (g Goal) Scope() Scope {
	s, _ := ResolveScope(g.FamilyID, g.CompanyID)
	return s
}
