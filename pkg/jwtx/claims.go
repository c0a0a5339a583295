// Package jwtx builds, signs and verifies the access tokens issued by the
// auth service. Tokens are HS256-signed JWTs with a small set of custom
// claims on top of the registered ones.
package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the access-token claim set. Roles carries one entry per role
// name granted to the subject; Email and DisplayName are informational and
// may be empty for service clients.
type Claims struct {
	jwt.RegisteredClaims

	Email       string   `json:"email,omitempty"`
	DisplayName string   `json:"name,omitempty"`
	Roles       []string `json:"roles,omitempty"`
}

// NewJTI returns a fresh random token identifier (128 bits, base64url).
func NewJTI() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic("jwtx: rand.Read failed: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// NewAccessClaims assembles the claim set for an access token minted at
// `now`. iat and nbf are both set to now; exp to now+ttl. Every call gets a
// unique jti.
func NewAccessClaims(issuer, subject string, audience []string, email, displayName string, roles []string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Email:       email,
		DisplayName: displayName,
		Roles:       roles,
	}
}

// HasRole reports whether the claim set carries the given role.
func (c Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
