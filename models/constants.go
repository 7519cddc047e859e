package models

// Transaction types
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// Goal statuses
const (
	GoalActive    = "active"
	GoalCompleted = "completed"
)

// Loan statuses
const (
	LoanPendingConfirmation = "pending_confirmation"
	LoanOutstanding         = "outstanding"
	LoanRepaid              = "repaid"
)

// Subscription tiers. The premium tier unlocks company scope, the family
// tier unlocks shared family scope.
const (
	TierPremium = "premium"
	TierFamily  = "family"
)

// Subscription statuses
const (
	SubscriptionActive          = "active"
	SubscriptionPendingApproval = "pending_approval"
	SubscriptionInactive        = "inactive"
)

// Subscription plans
const (
	PlanMonthly = "monthly"
	PlanYearly  = "yearly"
)
