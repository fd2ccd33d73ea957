package model

import "time"

// AccountID uniquely identifies a persisted account
type AccountID string

// Account is the terminal artifact of a completed signup
type Account struct {
	ID           AccountID
	Name         string
	Username     string // unique
	PasswordHash string // bcrypt hash
	Email        string // unique
	Verified     bool
	CreatedAt    time.Time
}

// OneTimeCode is an emailed verification code.
// Once a newly issued code is delivered, the earlier unused codes for that email are retired.
type OneTimeCode struct {
	Email     string
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
}

// Expired reports whether the code can no longer be consumed at the given time
func (c *OneTimeCode) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
