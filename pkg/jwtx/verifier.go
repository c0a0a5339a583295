package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenInvalid covers malformed tokens, bad signatures and wrong
	// signing algorithms.
	ErrTokenInvalid = errors.New("jwtx: token invalid")

	// ErrTokenExpired is returned for structurally valid tokens past exp
	// or before nbf.
	ErrTokenExpired = errors.New("jwtx: token expired")
)

// Verify parses and validates a compact token against the signer's key.
// Only HS256 is accepted; tokens signed with any other method fail with
// ErrTokenInvalid regardless of their signature.
func (s *HS256Signer) Verify(tokenString string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(t *jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) || errors.Is(err, jwt.ErrTokenNotValidYet) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}

// ExpiresIn returns the time remaining until the claims expire, negative if
// already past. A missing exp counts as expired.
func (c Claims) ExpiresIn(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return -1
	}
	return c.ExpiresAt.Time.Sub(now)
}
