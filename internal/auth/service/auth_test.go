package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opspanel/authd/internal/auth/domain"
	"github.com/opspanel/authd/internal/auth/store"
	"github.com/opspanel/authd/internal/auth/store/drivers/sqlite"
	"github.com/opspanel/authd/pkg/cryptox"
	"github.com/opspanel/authd/pkg/idx"
	"github.com/opspanel/authd/pkg/jwtx"
)

func TestMain(m *testing.M) {
	cryptox.SetPepperPath(filepath.Join(os.TempDir(), "authd_service_test_pepper"))
	os.Exit(m.Run())
}

func testAuthService(t *testing.T) (*AuthService, *sqlite.Store) {
	t.Helper()

	st, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations(context.Background()))

	signer, err := jwtx.NewHS256Signer([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	issuer := &TokenIssuer{
		Signer:     signer,
		Issuer:     "authd-test",
		Audience:   []string{"panel"},
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		Clients: []domain.ClientCredential{
			{ID: "reporting", Secret: "reporting-secret", Audiences: []string{"reports"}},
		},
	}

	return NewAuthService(issuer, st), st
}

func seedPrincipal(t *testing.T, st *sqlite.Store, username, password string, roles ...string) *domain.Principal {
	t.Helper()
	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	p := &domain.Principal{
		ID:           idx.New().String(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Roles:        roles,
	}
	require.NoError(t, st.Principals().CreatePrincipal(context.Background(), p))
	return p
}

func TestLogin(t *testing.T) {
	svc, st := testAuthService(t)
	ctx := context.Background()
	seedPrincipal(t, st, "alice", "hunter2hunter2", "operator")

	t.Run("success issues verifiable pair", func(t *testing.T) {
		principal, pair, err := svc.Login(ctx, "alice", "hunter2hunter2")
		require.NoError(t, err)
		require.Equal(t, "alice", principal.Username)
		require.NotEmpty(t, pair.RefreshToken)

		claims, err := svc.Issuer.Signer.Verify(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, principal.ID, claims.Subject)
		require.True(t, claims.HasRole("operator"))

		cred, err := st.RefreshCredentials().FindByCode(ctx, cryptox.FingerprintToken(pair.RefreshToken))
		require.NoError(t, err)
		require.Equal(t, principal.ID, cred.PrincipalID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "alice", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown username maps to same error", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "mallory", "hunter2hunter2")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLogin_SecondLoginInvalidatesFirstRefreshToken(t *testing.T) {
	svc, st := testAuthService(t)
	ctx := context.Background()
	seedPrincipal(t, st, "alice", "hunter2hunter2")

	_, first, err := svc.Login(ctx, "alice", "hunter2hunter2")
	require.NoError(t, err)
	_, second, err := svc.Login(ctx, "alice", "hunter2hunter2")
	require.NoError(t, err)

	_, err = svc.RefreshByCode(ctx, first.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshTokenNotFound)

	_, err = svc.RefreshByCode(ctx, second.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshByCode_RotatesInPlace(t *testing.T) {
	svc, st := testAuthService(t)
	ctx := context.Background()
	seedPrincipal(t, st, "alice", "hunter2hunter2")

	_, pair, err := svc.Login(ctx, "alice", "hunter2hunter2")
	require.NoError(t, err)

	refreshed, err := svc.RefreshByCode(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, refreshed.RefreshToken)
	require.NotEqual(t, pair.AccessToken, refreshed.AccessToken)

	// The old code died with the rotation.
	_, err = svc.RefreshByCode(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshTokenNotFound)

	// The new one works.
	_, err = svc.RefreshByCode(ctx, refreshed.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshByCode_UnknownAndExpired(t *testing.T) {
	svc, st := testAuthService(t)
	ctx := context.Background()
	p := seedPrincipal(t, st, "alice", "hunter2hunter2")

	_, err := svc.RefreshByCode(ctx, "never-issued")
	require.ErrorIs(t, err, ErrRefreshTokenNotFound)

	// Install an already-expired credential directly.
	code, err := cryptox.GenerateToken(cryptox.RefreshTokenSize)
	require.NoError(t, err)
	require.NoError(t, st.RefreshCredentials().Upsert(ctx, p.ID,
		cryptox.FingerprintToken(code), time.Now().Add(-time.Minute)))

	_, err = svc.RefreshByCode(ctx, code)
	require.ErrorIs(t, err, ErrRefreshTokenNotFound)
}

func TestRefreshByCode_ConcurrentCallersShareOneRotation(t *testing.T) {
	svc, st := testAuthService(t)
	ctx := context.Background()
	seedPrincipal(t, st, "alice", "hunter2hunter2")

	_, pair, err := svc.Login(ctx, "alice", "hunter2hunter2")
	require.NoError(t, err)

	const callers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []domain.TokenPair
		errs    []error
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svc.RefreshByCode(ctx, pair.RefreshToken)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			results = append(results, got)
		}()
	}
	wg.Wait()

	// Coalesced callers share the winner's pair; losers that arrive after
	// the flight completed see the not-found of the rotated code. Nobody
	// sees a conflict or a second distinct pair.
	require.NotEmpty(t, results)
	for _, got := range results {
		require.Equal(t, results[0].RefreshToken, got.RefreshToken)
	}
	for _, err := range errs {
		require.True(t,
			errors.Is(err, ErrRefreshTokenNotFound) || errors.Is(err, ErrRefreshConflict),
			"unexpected error: %v", err)
	}

	// Exactly one live credential remains and it matches the shared pair.
	cred, err := svc.Store.RefreshCredentials().FindByCode(ctx,
		cryptox.FingerprintToken(results[0].RefreshToken))
	require.NoError(t, err)
	require.NotNil(t, cred)
}

func TestRevoke(t *testing.T) {
	svc, st := testAuthService(t)
	ctx := context.Background()
	seedPrincipal(t, st, "alice", "hunter2hunter2")

	_, pair, err := svc.Login(ctx, "alice", "hunter2hunter2")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, pair.RefreshToken))

	_, err = svc.RefreshByCode(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshTokenNotFound)

	// A second revoke of the same code fails.
	require.ErrorIs(t, svc.Revoke(ctx, pair.RefreshToken), ErrRefreshTokenNotFound)

	require.ErrorIs(t, svc.Revoke(ctx, "never-issued"), ErrRefreshTokenNotFound)
}

func TestIssueClientToken(t *testing.T) {
	svc, _ := testAuthService(t)
	ctx := context.Background()

	t.Run("valid client", func(t *testing.T) {
		pair, err := svc.IssueClientToken(ctx, "reporting", "reporting-secret")
		require.NoError(t, err)

		claims, err := svc.Issuer.Signer.Verify(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "reporting", claims.Subject)
		require.True(t, claims.HasRole(ClientRole))
		require.Contains(t, claims.Audience, "reports")
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := svc.IssueClientToken(ctx, "reporting", "nope")
		require.ErrorIs(t, err, ErrInvalidClient)
	})

	t.Run("unknown client", func(t *testing.T) {
		_, err := svc.IssueClientToken(ctx, "ghost", "reporting-secret")
		require.ErrorIs(t, err, ErrInvalidClient)
	})
}

func TestResolvePermissions(t *testing.T) {
	svc, st := testAuthService(t)
	ctx := context.Background()

	require.NoError(t, st.Roles().CreateRole(ctx, &domain.Role{
		ID: idx.New().String(), Name: "operator",
		Permissions: []string{"sessions:read", "sessions:write"},
	}))
	require.NoError(t, st.Roles().CreateRole(ctx, &domain.Role{
		ID: idx.New().String(), Name: "auditor",
		Permissions: []string{"sessions:read", "audit:read"},
	}))

	perms, err := svc.ResolvePermissions(ctx, []string{"operator", "auditor", "undefined-role"})
	require.NoError(t, err)
	require.Equal(t, []string{"sessions:read", "sessions:write", "audit:read"}, perms)
}

func TestHousekeeping_SweepsExpired(t *testing.T) {
	svc, st := testAuthService(t)
	ctx := context.Background()
	p := seedPrincipal(t, st, "alice", "hunter2hunter2")

	require.NoError(t, st.RefreshCredentials().Upsert(ctx, p.ID,
		"stale-hash", time.Now().Add(-time.Hour)))

	hk := &Housekeeping{Store: svc.Store, Interval: time.Hour}
	hk.sweep(ctx)

	_, err := st.RefreshCredentials().FindByCode(ctx, "stale-hash")
	require.ErrorIs(t, err, store.ErrNotFound)
}
