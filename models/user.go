package models

import "time"

// Subscription is one premium tier's gating state for a user. The stored
// status is authoritative; the expiry sweep flips it to inactive, readers
// never derive it ad hoc.
type Subscription struct {
	Active    bool       `json:"active"`
	Status    string     `json:"status,omitempty"`
	Plan      string     `json:"plan,omitempty"`
	GrantedAt *time.Time `json:"grantedAt,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	// Premium gates company scope, FamilyTier gates family scope.
	Premium    Subscription `json:"premium"`
	FamilyTier Subscription `json:"familyTier"`
}
