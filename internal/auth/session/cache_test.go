package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client), mr
}

func testRecord(expiresAt time.Time) *Record {
	return &Record{
		AccessToken:  "access-token",
		RefreshToken: "refresh-code",
		ExpiresAt:    expiresAt,
		PrincipalID:  "01PRINCIPAL",
		Username:     "alice",
		Roles:        []string{"operator"},
		Permissions:  []string{"sessions:read"},
	}
}

func TestCache_SaveGet(t *testing.T) {
	cache, _ := testCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Save(ctx, "sid-1", testRecord(time.Now().Add(time.Hour)), time.Hour))

	got, err := cache.Get(ctx, "sid-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "alice", got.Username)
	require.Equal(t, SchemaVersion, got.SchemaVersion)
}

func TestCache_GetMissing(t *testing.T) {
	cache, _ := testCache(t)

	got, err := cache.Get(context.Background(), "nope")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestCache_LazyExpiry(t *testing.T) {
	cache, _ := testCache(t)
	ctx := context.Background()

	// Logical expiry in the past, Redis TTL still generous.
	require.NoError(t, cache.Save(ctx, "sid-1", testRecord(time.Now().Add(-time.Minute)), time.Hour))

	got, err := cache.Get(ctx, "sid-1")
	require.NoError(t, err)
	require.Nil(t, got)

	// The stale record stays reachable for the refresh path.
	stale, err := cache.GetStale(ctx, "sid-1")
	require.NoError(t, err)
	require.NotNil(t, stale)
	require.Equal(t, "refresh-code", stale.RefreshToken)
}

func TestCache_RedisTTL(t *testing.T) {
	cache, mr := testCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Save(ctx, "sid-1", testRecord(time.Now().Add(time.Hour)), time.Minute))
	mr.FastForward(2 * time.Minute)

	got, err := cache.GetStale(ctx, "sid-1")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestCache_Clear(t *testing.T) {
	cache, _ := testCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Save(ctx, "sid-1", testRecord(time.Now().Add(time.Hour)), time.Hour))
	require.NoError(t, cache.Clear(ctx, "sid-1"))

	got, err := cache.GetStale(ctx, "sid-1")
	require.NoError(t, err)
	require.Nil(t, got)

	// Clearing twice is fine.
	require.NoError(t, cache.Clear(ctx, "sid-1"))
}

func TestDecodeRecord_UnknownSchemaVersion(t *testing.T) {
	data, err := json.Marshal(map[string]any{"schemaVersion": 99, "username": "alice"})
	require.NoError(t, err)

	_, err = DecodeRecord(data)
	require.ErrorContains(t, err, "schema version")
}

func TestRecord_RoleAndPermissionLookups(t *testing.T) {
	r := testRecord(time.Now().Add(time.Hour))
	require.True(t, r.HasRole("operator"))
	require.False(t, r.HasRole("admin"))
	require.True(t, r.HasPermission("sessions:read"))
	require.False(t, r.HasPermission("sessions:write"))
}
