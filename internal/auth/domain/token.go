package domain

import "time"

// RefreshCredential is the persisted side of an opaque refresh token. Only a
// SHA-256 fingerprint of the code is stored; the clear code exists solely in
// the pair handed to the caller. At most one credential is live per
// principal, enforced by the store schema.
type RefreshCredential struct {
	ID          string
	PrincipalID string
	CodeHash    string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Expired reports whether the credential is past its expiry at the given
// instant.
func (c RefreshCredential) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// TokenPair is the transient result of a login or refresh. It is never
// persisted as-is.
type TokenPair struct {
	AccessToken            string    `json:"accessToken"`
	AccessTokenExpiration  time.Time `json:"accessTokenExpiration"`
	RefreshToken           string    `json:"refreshToken"`
	RefreshTokenExpiration time.Time `json:"refreshTokenExpiration"`
}

// ClientTokenPair is the result of a client-credentials exchange. Service
// clients do not get refresh tokens; they re-authenticate with their secret.
type ClientTokenPair struct {
	AccessToken           string    `json:"accessToken"`
	AccessTokenExpiration time.Time `json:"accessTokenExpiration"`
}
