// Package service implements the authentication flows: password login,
// refresh-token rotation, revocation and client-credential token issuance.
package service

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/opspanel/authd/internal/auth/domain"
	"github.com/opspanel/authd/pkg/cryptox"
	"github.com/opspanel/authd/pkg/jwtx"
)

var (
	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords so responses do not reveal which part failed.
	ErrInvalidCredentials = errors.New("service: invalid credentials")

	// ErrInvalidClient covers unknown client ids and wrong secrets.
	ErrInvalidClient = errors.New("service: invalid client credentials")

	// ErrRefreshTokenNotFound is returned for unknown, expired or
	// already-rotated refresh codes.
	ErrRefreshTokenNotFound = errors.New("service: refresh token not found")

	// ErrRefreshConflict is returned when a concurrent rotation won the
	// compare-and-swap on the stored credential.
	ErrRefreshConflict = errors.New("service: refresh token rotated concurrently")
)

// ClientRole is the role claim stamped on client-credential tokens.
const ClientRole = "client"

// TokenIssuer mints token pairs. Access tokens are HS256-signed JWTs;
// refresh tokens are opaque random codes whose lifecycle the store manages.
type TokenIssuer struct {
	Signer     *jwtx.HS256Signer
	Issuer     string
	Audience   []string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Clients are the statically configured service-client credentials.
	Clients []domain.ClientCredential

	// Now is the clock, overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

func (ti *TokenIssuer) now() time.Time {
	if ti.Now != nil {
		return ti.Now()
	}
	return time.Now()
}

// CreateToken mints a fresh pair for the principal. Every call produces a
// distinct jti and a distinct refresh code.
func (ti *TokenIssuer) CreateToken(p *domain.Principal) (domain.TokenPair, error) {
	if p == nil {
		return domain.TokenPair{}, errors.New("service: nil principal")
	}
	now := ti.now()

	claims := jwtx.NewAccessClaims(ti.Issuer, p.ID, ti.Audience,
		p.Email, p.Username, p.Roles, ti.AccessTTL, now)
	access, err := ti.Signer.Sign(claims)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := cryptox.GenerateToken(cryptox.RefreshTokenSize)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("generate refresh token: %w", err)
	}

	return domain.TokenPair{
		AccessToken:            access,
		AccessTokenExpiration:  now.Add(ti.AccessTTL),
		RefreshToken:           refresh,
		RefreshTokenExpiration: now.Add(ti.RefreshTTL),
	}, nil
}

// CreateClientToken authenticates a service client against the configured
// credentials and mints an access token scoped to the client's audiences.
// Clients get no refresh token; they re-authenticate with their secret.
func (ti *TokenIssuer) CreateClientToken(clientID, clientSecret string) (domain.ClientTokenPair, error) {
	var matched *domain.ClientCredential
	for i := range ti.Clients {
		// Compare both fields unconditionally to keep timing independent
		// of which one mismatched.
		idOK := subtle.ConstantTimeCompare([]byte(ti.Clients[i].ID), []byte(clientID)) == 1
		secretOK := subtle.ConstantTimeCompare([]byte(ti.Clients[i].Secret), []byte(clientSecret)) == 1
		if idOK && secretOK {
			matched = &ti.Clients[i]
		}
	}
	if matched == nil {
		return domain.ClientTokenPair{}, ErrInvalidClient
	}

	now := ti.now()
	claims := jwtx.NewAccessClaims(ti.Issuer, matched.ID, matched.Audiences,
		"", "", []string{ClientRole}, ti.AccessTTL, now)
	access, err := ti.Signer.Sign(claims)
	if err != nil {
		return domain.ClientTokenPair{}, fmt.Errorf("sign client token: %w", err)
	}

	return domain.ClientTokenPair{
		AccessToken:           access,
		AccessTokenExpiration: now.Add(ti.AccessTTL),
	}, nil
}
