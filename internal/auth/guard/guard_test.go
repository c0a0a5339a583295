package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/opspanel/authd/internal/auth/domain"
	"github.com/opspanel/authd/internal/auth/session"
)

// fakeRefresher hands out sequentially numbered pairs, or fails when err is
// set.
type fakeRefresher struct {
	calls int
	err   error
	block time.Duration
}

func (f *fakeRefresher) RefreshByCode(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	f.calls++
	if f.block > 0 {
		select {
		case <-ctx.Done():
			return domain.TokenPair{}, ctx.Err()
		case <-time.After(f.block):
		}
	}
	if f.err != nil {
		return domain.TokenPair{}, f.err
	}
	now := time.Now()
	return domain.TokenPair{
		AccessToken:            "access-refreshed",
		AccessTokenExpiration:  now.Add(15 * time.Minute),
		RefreshToken:           "refresh-rotated",
		RefreshTokenExpiration: now.Add(24 * time.Hour),
	}, nil
}

func testGuard(t *testing.T, refresher Refresher) (*Guard, *session.Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := session.NewCache(client)
	return &Guard{Sessions: cache, Auth: refresher}, cache
}

func saveSession(t *testing.T, cache *session.Cache, sid string, expiresAt time.Time) *session.Record {
	t.Helper()
	record := &session.Record{
		AccessToken:  "access-original",
		RefreshToken: "refresh-original",
		ExpiresAt:    expiresAt,
		PrincipalID:  "01PRINCIPAL",
		Username:     "alice",
	}
	require.NoError(t, cache.Save(context.Background(), sid, record, time.Hour))
	return record
}

func TestClassify(t *testing.T) {
	g := &Guard{}
	now := time.Now()

	cases := []struct {
		name   string
		record *session.Record
		want   State
	}{
		{"nil record", nil, Unauthenticated},
		{"plenty of time left", &session.Record{ExpiresAt: now.Add(time.Hour)}, Valid},
		{"inside threshold", &session.Record{ExpiresAt: now.Add(2 * time.Minute)}, NearExpiry},
		{"just past expiry", &session.Record{ExpiresAt: now.Add(-time.Second)}, Expired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, g.Classify(tc.record))
		})
	}
}

func TestBefore_Unauthenticated(t *testing.T) {
	g, _ := testGuard(t, &fakeRefresher{})

	record, err := g.Before(context.Background(), "no-such-sid")
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestBefore_ValidPassesThrough(t *testing.T) {
	refresher := &fakeRefresher{}
	g, cache := testGuard(t, refresher)
	saveSession(t, cache, "sid", time.Now().Add(time.Hour))

	record, err := g.Before(context.Background(), "sid")
	require.NoError(t, err)
	require.Equal(t, "access-original", record.AccessToken)
	require.Zero(t, refresher.calls)
}

func TestBefore_NearExpiryRefreshesProactively(t *testing.T) {
	refresher := &fakeRefresher{}
	g, cache := testGuard(t, refresher)
	saveSession(t, cache, "sid", time.Now().Add(time.Minute))

	record, err := g.Before(context.Background(), "sid")
	require.NoError(t, err)
	require.Equal(t, "access-refreshed", record.AccessToken)
	require.Equal(t, 1, refresher.calls)

	// The cached record was rewritten with the rotated pair.
	stored, err := cache.Get(context.Background(), "sid")
	require.NoError(t, err)
	require.Equal(t, "refresh-rotated", stored.RefreshToken)
}

func TestBefore_NearExpiryFailureKeepsCurrentToken(t *testing.T) {
	refresher := &fakeRefresher{err: errors.New("store down")}
	g, cache := testGuard(t, refresher)
	saveSession(t, cache, "sid", time.Now().Add(time.Minute))

	record, err := g.Before(context.Background(), "sid")
	require.NoError(t, err)
	require.Equal(t, "access-original", record.AccessToken)
	require.Equal(t, 1, refresher.calls)
}

func TestBefore_ExpiredForcesRefresh(t *testing.T) {
	refresher := &fakeRefresher{}
	g, cache := testGuard(t, refresher)
	saveSession(t, cache, "sid", time.Now().Add(-time.Minute))

	record, err := g.Before(context.Background(), "sid")
	require.NoError(t, err)
	require.Equal(t, "access-refreshed", record.AccessToken)
}

func TestBefore_ExpiredRefreshFailureClearsSession(t *testing.T) {
	refresher := &fakeRefresher{err: errors.New("refresh token not found")}
	g, cache := testGuard(t, refresher)
	saveSession(t, cache, "sid", time.Now().Add(-time.Minute))

	_, err := g.Before(context.Background(), "sid")
	require.ErrorIs(t, err, ErrSessionExpired)

	stale, err := cache.GetStale(context.Background(), "sid")
	require.NoError(t, err)
	require.Nil(t, stale)
}

func TestBefore_RefreshTimeoutCountsAsFailure(t *testing.T) {
	refresher := &fakeRefresher{block: time.Second}
	g, cache := testGuard(t, refresher)
	g.RefreshTimeout = 20 * time.Millisecond
	saveSession(t, cache, "sid", time.Now().Add(-time.Minute))

	_, err := g.Before(context.Background(), "sid")
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestAfter(t *testing.T) {
	t.Run("non-401 is a no-op", func(t *testing.T) {
		refresher := &fakeRefresher{}
		g, cache := testGuard(t, refresher)
		saveSession(t, cache, "sid", time.Now().Add(time.Hour))

		record, err := g.After(context.Background(), "sid", 200)
		require.NoError(t, err)
		require.Nil(t, record)
		require.Zero(t, refresher.calls)
	})

	t.Run("401 forces refresh", func(t *testing.T) {
		refresher := &fakeRefresher{}
		g, cache := testGuard(t, refresher)
		saveSession(t, cache, "sid", time.Now().Add(time.Hour))

		record, err := g.After(context.Background(), "sid", 401)
		require.NoError(t, err)
		require.Equal(t, "access-refreshed", record.AccessToken)
	})

	t.Run("401 with failing refresh clears session", func(t *testing.T) {
		refresher := &fakeRefresher{err: errors.New("rotated away")}
		g, cache := testGuard(t, refresher)
		saveSession(t, cache, "sid", time.Now().Add(time.Hour))

		_, err := g.After(context.Background(), "sid", 401)
		require.ErrorIs(t, err, ErrSessionExpired)

		stale, err := cache.GetStale(context.Background(), "sid")
		require.NoError(t, err)
		require.Nil(t, stale)
	})
}

func TestCustomThreshold(t *testing.T) {
	g := &Guard{RefreshThreshold: time.Hour}
	record := &session.Record{ExpiresAt: time.Now().Add(30 * time.Minute)}
	require.Equal(t, NearExpiry, g.Classify(record))
}
