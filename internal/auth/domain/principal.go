package domain

import "time"

// Principal is an identity-store account as seen by the auth subsystem.
// The subsystem only reads principals; account management lives elsewhere.
type Principal struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string // argon2id encoded
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
