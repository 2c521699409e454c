package domain

import "time"

// Tier is the single scalar classification of an account.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t == TierFree || t == TierPremium
}

// User is the domain model for an account. PasswordHash never leaves the
// service layer; transport DTOs project it away.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Tier         Tier
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
