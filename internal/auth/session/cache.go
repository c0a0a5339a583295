package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// Cache stores session records in Redis. The Redis TTL is a hard upper
// bound set by the caller (refresh-token lifetime); the record's own
// ExpiresAt handles the shorter access-token expiry lazily.
type Cache struct {
	client redis.UniversalClient
}

func NewCache(client redis.UniversalClient) *Cache {
	return &Cache{client: client}
}

// Save writes the record under the session id with the given TTL.
func (c *Cache) Save(ctx context.Context, sid string, record *Record, ttl time.Duration) error {
	data, err := record.Encode()
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, keyPrefix+sid, data, ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", sid, err)
	}
	return nil
}

// Get returns the record for sid, or nil when the session is absent or
// past its logical expiry. Expired entries are left for Redis TTL to
// collect; the refresh guard still needs them via GetStale.
func (c *Cache) Get(ctx context.Context, sid string) (*Record, error) {
	record, err := c.GetStale(ctx, sid)
	if err != nil || record == nil {
		return nil, err
	}
	if record.Expired(time.Now()) {
		return nil, nil
	}
	return record, nil
}

// GetStale returns the record regardless of its logical expiry, nil when
// the session does not exist.
func (c *Cache) GetStale(ctx context.Context, sid string) (*Record, error) {
	data, err := c.client.Get(ctx, keyPrefix+sid).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sid, err)
	}
	return DecodeRecord(data)
}

// Clear removes the session. Clearing a missing session is not an error.
func (c *Cache) Clear(ctx context.Context, sid string) error {
	if err := c.client.Del(ctx, keyPrefix+sid).Err(); err != nil {
		return fmt.Errorf("clear session %s: %w", sid, err)
	}
	return nil
}

// Ping checks Redis connectivity for readiness probes.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
