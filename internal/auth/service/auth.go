package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/opspanel/authd/internal/auth/domain"
	"github.com/opspanel/authd/internal/auth/store"
	"github.com/opspanel/authd/pkg/cryptox"
)

// AuthService coordinates the issuer and the store for the login, refresh,
// revoke and client-token flows.
type AuthService struct {
	Issuer *TokenIssuer
	Store  store.Store

	// group coalesces concurrent refreshes of the same stale code so
	// racing callers share one rotation and one result.
	group singleflight.Group
}

func NewAuthService(issuer *TokenIssuer, st store.Store) *AuthService {
	return &AuthService{Issuer: issuer, Store: st}
}

// Login verifies the password and installs a fresh refresh credential,
// replacing any previous one for the principal. Unknown usernames and bad
// passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Principal, domain.TokenPair, error) {
	principal, err := s.Store.Principals().GetPrincipalByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return nil, domain.TokenPair{}, fmt.Errorf("lookup principal: %w", err)
	}

	if err := cryptox.VerifyPassword(password, principal.PasswordHash); err != nil {
		return nil, domain.TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.Issuer.CreateToken(principal)
	if err != nil {
		return nil, domain.TokenPair{}, err
	}

	codeHash := cryptox.FingerprintToken(pair.RefreshToken)
	if err := s.Store.RefreshCredentials().Upsert(ctx, principal.ID, codeHash, pair.RefreshTokenExpiration); err != nil {
		return nil, domain.TokenPair{}, err
	}

	return principal, pair, nil
}

// RefreshByCode exchanges a refresh code for a fresh pair, rotating the
// stored credential so the old code is unusable from this point on.
// Concurrent calls with the same code are coalesced: every caller gets the
// winner's pair. A rotation lost to a racing login or logout surfaces as
// ErrRefreshConflict.
func (s *AuthService) RefreshByCode(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	staleHash := cryptox.FingerprintToken(refreshToken)

	// Coalesced callers piggyback on the first caller's context; a
	// cancelled follower still receives the shared result.
	v, err, _ := s.group.Do(staleHash, func() (any, error) {
		return s.refreshOnce(ctx, staleHash)
	})
	if err != nil {
		return domain.TokenPair{}, err
	}
	return v.(domain.TokenPair), nil
}

func (s *AuthService) refreshOnce(ctx context.Context, staleHash string) (domain.TokenPair, error) {
	cred, err := s.Store.RefreshCredentials().FindByCode(ctx, staleHash)
	if errors.Is(err, store.ErrNotFound) {
		return domain.TokenPair{}, ErrRefreshTokenNotFound
	}
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("lookup refresh credential: %w", err)
	}
	if cred.Expired(time.Now()) {
		return domain.TokenPair{}, ErrRefreshTokenNotFound
	}

	principal, err := s.Store.Principals().GetPrincipalByID(ctx, cred.PrincipalID)
	if errors.Is(err, store.ErrNotFound) {
		// Principal deleted out from under the credential.
		return domain.TokenPair{}, ErrRefreshTokenNotFound
	}
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("lookup principal: %w", err)
	}

	pair, err := s.Issuer.CreateToken(principal)
	if err != nil {
		return domain.TokenPair{}, err
	}

	newHash := cryptox.FingerprintToken(pair.RefreshToken)
	err = s.Store.RefreshCredentials().Rotate(ctx, cred.PrincipalID, staleHash, newHash, pair.RefreshTokenExpiration)
	if errors.Is(err, store.ErrRotationConflict) {
		return domain.TokenPair{}, ErrRefreshConflict
	}
	if err != nil {
		return domain.TokenPair{}, err
	}

	return pair, nil
}

// Revoke deletes the refresh credential for the given code. Revoking an
// unknown or already-revoked code returns ErrRefreshTokenNotFound rather
// than succeeding silently.
func (s *AuthService) Revoke(ctx context.Context, refreshToken string) error {
	codeHash := cryptox.FingerprintToken(refreshToken)
	err := s.Store.Tx(ctx, func(tx store.Tx) error {
		if _, err := tx.RefreshCredentials().FindByCode(ctx, codeHash); err != nil {
			return err
		}
		return tx.RefreshCredentials().DeleteByCode(ctx, codeHash)
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrRefreshTokenNotFound
	}
	return err
}

// IssueClientToken authenticates a service client and mints its token.
func (s *AuthService) IssueClientToken(_ context.Context, clientID, clientSecret string) (domain.ClientTokenPair, error) {
	return s.Issuer.CreateClientToken(clientID, clientSecret)
}

// ResolvePermissions flattens the permissions granted by the given roles,
// deduplicated, preserving first-seen order. Roles with no stored
// definition grant nothing.
func (s *AuthService) ResolvePermissions(ctx context.Context, roles []string) ([]string, error) {
	var perms []string
	for _, name := range roles {
		role, err := s.Store.Roles().GetRoleByName(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lookup role %q: %w", name, err)
		}
		for _, p := range role.Permissions {
			if !slices.Contains(perms, p) {
				perms = append(perms, p)
			}
		}
	}
	return perms, nil
}
