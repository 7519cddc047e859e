package services

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"fiambond/backend/database"
	"fiambond/backend/models"
	"fiambond/backend/security"
)

// The premium gate. Two tiers, each with its own column set on the users
// table: "premium" unlocks company scope, "family" unlocks family scope.
// The stored status is authoritative — the scheduler's sweep flips expired
// subscriptions to inactive, readers never re-derive expiry per request.

// Plan durations
var planDurations = map[string]time.Duration{
	models.PlanMonthly: 30 * 24 * time.Hour,
	models.PlanYearly:  365 * 24 * time.Hour,
}

type tierColumns struct {
	flag, status, plan, grantedAt, expiresAt, paymentRef string
}

func columnsForTier(tier string) (tierColumns, error) {
	switch tier {
	case models.TierPremium:
		return tierColumns{
			flag: "is_premium", status: "subscription_status", plan: "premium_plan",
			grantedAt: "premium_granted_at", expiresAt: "premium_expires_at",
			paymentRef: "premium_payment_ref",
		}, nil
	case models.TierFamily:
		return tierColumns{
			flag: "family_premium", status: "family_subscription_status", plan: "family_premium_plan",
			grantedAt: "family_premium_granted_at", expiresAt: "family_premium_expires_at",
			paymentRef: "family_payment_ref",
		}, nil
	default:
		return tierColumns{}, &ValidationError{Message: fmt.Sprintf("invalid tier: %s", tier)}
	}
}

// RequestUpgrade puts a user's tier into pending_approval for a human admin
// to act on. The payment reference is stored encrypted.
func RequestUpgrade(userID, tier, plan, paymentRef string) error {
	cols, err := columnsForTier(tier)
	if err != nil {
		return err
	}
	if _, ok := planDurations[plan]; !ok {
		return &ValidationError{Message: fmt.Sprintf("invalid plan: %s", plan)}
	}

	storedRef := ""
	if paymentRef != "" {
		storedRef, err = security.Encrypt(paymentRef)
		if err != nil {
			return fmt.Errorf("failed to encrypt payment reference: %w", err)
		}
	}

	res, err := database.DB.Exec(fmt.Sprintf(`
		UPDATE users
		SET %s = ?, %s = ?, %s = ?
		WHERE id = ?`, cols.status, cols.plan, cols.paymentRef),
		models.SubscriptionPendingApproval, plan, storedRef, userID)
	if err != nil {
		return fmt.Errorf("failed to request upgrade: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Resource: "user"}
	}

	return nil
}

// ApproveUpgrade activates a pending upgrade request. Admin only.
func ApproveUpgrade(actorID, userID, tier string) error {
	cols, err := columnsForTier(tier)
	if err != nil {
		return err
	}
	if err := requireAdmin(actorID); err != nil {
		return err
	}

	var status, plan sql.NullString
	err = database.DB.QueryRow(
		fmt.Sprintf("SELECT %s, %s FROM users WHERE id = ?", cols.status, cols.plan),
		userID).Scan(&status, &plan)
	if err == sql.ErrNoRows {
		return &NotFoundError{Resource: "user"}
	}
	if err != nil {
		return err
	}
	if status.String != models.SubscriptionPendingApproval {
		return &InvalidStateError{Message: "no pending upgrade request for this tier"}
	}

	return activateTier(userID, cols, plan.String)
}

// GrantPremium activates a tier directly, without a prior request. Admin
// only. Plan defaults to monthly.
func GrantPremium(actorID, userID, tier, plan string) error {
	cols, err := columnsForTier(tier)
	if err != nil {
		return err
	}
	if err := requireAdmin(actorID); err != nil {
		return err
	}
	if plan == "" {
		plan = models.PlanMonthly
	}
	if _, ok := planDurations[plan]; !ok {
		return &ValidationError{Message: fmt.Sprintf("invalid plan: %s", plan)}
	}

	var exists int
	if err := database.DB.QueryRow("SELECT COUNT(*) FROM users WHERE id = ?", userID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return &NotFoundError{Resource: "user"}
	}

	return activateTier(userID, cols, plan)
}

func activateTier(userID string, cols tierColumns, plan string) error {
	if plan == "" {
		plan = models.PlanMonthly
	}
	now := time.Now()
	expiresAt := now.Add(planDurations[plan])

	_, err := database.DB.Exec(fmt.Sprintf(`
		UPDATE users
		SET %s = 1, %s = ?, %s = ?, %s = ?, %s = ?
		WHERE id = ?`, cols.flag, cols.status, cols.plan, cols.grantedAt, cols.expiresAt),
		models.SubscriptionActive, plan, now, expiresAt, userID)
	if err != nil {
		return fmt.Errorf("failed to activate tier: %w", err)
	}
	return nil
}

// RevokePremium clears a tier's flags. Admin only.
func RevokePremium(actorID, userID, tier string) error {
	cols, err := columnsForTier(tier)
	if err != nil {
		return err
	}
	if err := requireAdmin(actorID); err != nil {
		return err
	}

	res, err := database.DB.Exec(fmt.Sprintf(`
		UPDATE users
		SET %s = 0, %s = ?, %s = NULL, %s = NULL, %s = NULL
		WHERE id = ?`, cols.flag, cols.status, cols.plan, cols.grantedAt, cols.expiresAt),
		models.SubscriptionInactive, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke tier: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Resource: "user"}
	}
	return nil
}

// SweepExpiredSubscriptions transitions every subscription whose expiry has
// passed to inactive. Run on a timer so stale "active" flags cannot linger
// on accounts nobody reads.
func SweepExpiredSubscriptions(now time.Time) (int64, error) {
	var total int64
	for _, tier := range []string{models.TierPremium, models.TierFamily} {
		cols, err := columnsForTier(tier)
		if err != nil {
			return total, err
		}
		res, err := database.DB.Exec(fmt.Sprintf(`
			UPDATE users
			SET %s = 0, %s = ?
			WHERE %s = ? AND %s IS NOT NULL AND %s <= ?`,
			cols.flag, cols.status, cols.status, cols.expiresAt, cols.expiresAt),
			models.SubscriptionInactive, models.SubscriptionActive, now)
		if err != nil {
			return total, fmt.Errorf("failed to sweep %s tier: %w", tier, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}

	if total > 0 {
		log.Printf("Subscription sweep: %d tier(s) expired", total)
	}
	return total, nil
}

// HasCompanyAccess reports whether the user's premium tier is active.
func HasCompanyAccess(userID string) (bool, error) {
	return tierActive(userID, models.TierPremium)
}

// HasFamilyAccess reports whether the user's family tier is active.
func HasFamilyAccess(userID string) (bool, error) {
	return tierActive(userID, models.TierFamily)
}

func tierActive(userID, tier string) (bool, error) {
	cols, err := columnsForTier(tier)
	if err != nil {
		return false, err
	}

	var flag bool
	var status sql.NullString
	err = database.DB.QueryRow(
		fmt.Sprintf("SELECT %s, %s FROM users WHERE id = ?", cols.flag, cols.status),
		userID).Scan(&flag, &status)
	if err == sql.ErrNoRows {
		return false, &NotFoundError{Resource: "user"}
	}
	if err != nil {
		return false, err
	}

	return flag && status.String == models.SubscriptionActive, nil
}

func requireAdmin(actorID string) error {
	isAdmin, err := IsAdmin(actorID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return &AuthorizationError{Message: "admin access required"}
	}
	return nil
}
