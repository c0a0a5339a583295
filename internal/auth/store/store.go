// Package store defines the persistence interfaces for the auth service.
// Drivers live under store/drivers; callers depend only on these
// interfaces.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/opspanel/authd/internal/auth/domain"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	// Drivers map their row-not-found errors onto this sentinel.
	ErrNotFound = errors.New("store: not found")

	// ErrRotationConflict is returned by Rotate when the credential was
	// rotated by a concurrent caller between lookup and update.
	ErrRotationConflict = errors.New("store: refresh credential rotated concurrently")
)

// Store is the root persistence interface.
type Store interface {
	Principals() PrincipalRepository
	Roles() RoleRepository
	RefreshCredentials() RefreshCredentialRepository

	// ApplyMigrations brings the schema up to date.
	ApplyMigrations(ctx context.Context) error

	// Tx runs fn inside a transaction, committing on nil error and
	// rolling back otherwise.
	Tx(ctx context.Context, fn func(tx Tx) error) error

	Ping(ctx context.Context) error
	Close() error
}

// Tx exposes the repositories bound to one transaction.
type Tx interface {
	Principals() PrincipalRepository
	Roles() RoleRepository
	RefreshCredentials() RefreshCredentialRepository
}

// PrincipalRepository reads and seeds identity records. The auth subsystem
// treats principals as read-only; Create exists for seeding and tests.
type PrincipalRepository interface {
	GetPrincipalByID(ctx context.Context, id string) (*domain.Principal, error)
	GetPrincipalByUsername(ctx context.Context, username string) (*domain.Principal, error)
	CreatePrincipal(ctx context.Context, p *domain.Principal) error
}

// RoleRepository resolves role names to their permission grants.
type RoleRepository interface {
	GetRoleByName(ctx context.Context, name string) (*domain.Role, error)
	CreateRole(ctx context.Context, r *domain.Role) error
}

// RefreshCredentialRepository manages the single live refresh credential
// per principal. All code arguments are fingerprints, never clear codes.
type RefreshCredentialRepository interface {
	// Upsert installs a credential for the principal, replacing any
	// existing one in place.
	Upsert(ctx context.Context, principalID, codeHash string, expiresAt time.Time) error

	// Rotate swaps oldHash for newHash only if oldHash is still current,
	// returning ErrRotationConflict when a concurrent rotation won.
	Rotate(ctx context.Context, principalID, oldHash, newHash string, expiresAt time.Time) error

	FindByCode(ctx context.Context, codeHash string) (*domain.RefreshCredential, error)

	// DeleteByCode removes the credential, ErrNotFound when absent.
	DeleteByCode(ctx context.Context, codeHash string) error

	// DeleteExpired removes credentials past their expiry and reports how
	// many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
