// Package guard keeps cached sessions usable across requests: it refreshes
// token pairs shortly before they expire, forces a refresh once they have,
// and retries a request once when the upstream still rejects the token.
package guard

import (
	"context"
	"errors"
	"time"

	"github.com/opspanel/authd/internal/auth/domain"
	"github.com/opspanel/authd/internal/auth/session"
	"github.com/opspanel/authd/pkg/slogx"
)

// State describes a session as seen by the guard at one instant.
type State int

const (
	// Unauthenticated: no session record exists.
	Unauthenticated State = iota
	// Valid: the access token has more than the threshold left.
	Valid
	// NearExpiry: still valid but inside the refresh threshold.
	NearExpiry
	// Expired: past the access-token expiry.
	Expired
	// Refreshing: a rotation for this session is in flight.
	Refreshing
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Valid:
		return "valid"
	case NearExpiry:
		return "near_expiry"
	case Expired:
		return "expired"
	case Refreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// ErrSessionExpired is returned when a forced refresh fails and the session
// has been cleared; the caller must authenticate again.
var ErrSessionExpired = errors.New("guard: session expired")

// Refresher exchanges a refresh code for a new token pair. Satisfied by
// *service.AuthService.
type Refresher interface {
	RefreshByCode(ctx context.Context, refreshToken string) (domain.TokenPair, error)
}

// DefaultRefreshThreshold is how close to expiry a token may get before the
// guard refreshes it proactively.
const DefaultRefreshThreshold = 5 * time.Minute

// DefaultRefreshTimeout bounds one refresh attempt; a timeout counts as a
// refresh failure.
const DefaultRefreshTimeout = 10 * time.Second

// Guard drives the session lifecycle around requests.
type Guard struct {
	Sessions *session.Cache
	Auth     Refresher

	// RefreshThreshold defaults to DefaultRefreshThreshold when zero.
	RefreshThreshold time.Duration

	// RefreshTimeout defaults to DefaultRefreshTimeout when zero.
	RefreshTimeout time.Duration

	// SkipPrefixes lists path prefixes the middleware passes through
	// untouched. Credential endpoints answer 401 for their own reasons,
	// which must not be mistaken for a rejected access token.
	SkipPrefixes []string

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

func (g *Guard) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func (g *Guard) threshold() time.Duration {
	if g.RefreshThreshold > 0 {
		return g.RefreshThreshold
	}
	return DefaultRefreshThreshold
}

func (g *Guard) refreshTimeout() time.Duration {
	if g.RefreshTimeout > 0 {
		return g.RefreshTimeout
	}
	return DefaultRefreshTimeout
}

// Classify maps a record to its lifecycle state at the current instant.
func (g *Guard) Classify(record *session.Record) State {
	if record == nil {
		return Unauthenticated
	}
	now := g.now()
	switch {
	case record.Expired(now):
		return Expired
	case !record.ExpiresAt.After(now.Add(g.threshold())):
		return NearExpiry
	default:
		return Valid
	}
}

// Before prepares the session ahead of a request. Near-expiry sessions are
// refreshed opportunistically; a failure there is logged and the still-valid
// token is used as-is. Expired sessions force a refresh; if that fails the
// session is cleared and ErrSessionExpired returned. The returned record is
// nil for unauthenticated callers.
func (g *Guard) Before(ctx context.Context, sid string) (*session.Record, error) {
	record, err := g.Sessions.GetStale(ctx, sid)
	if err != nil {
		return nil, err
	}

	switch g.Classify(record) {
	case Unauthenticated:
		return nil, nil

	case Valid:
		return record, nil

	case NearExpiry:
		refreshed, err := g.refresh(ctx, sid, record)
		if err != nil {
			slogx.FromContext(ctx).Warn("proactive session refresh failed, keeping current token",
				"sid", sid, "err", err)
			return record, nil
		}
		return refreshed, nil

	default: // Expired
		refreshed, err := g.refresh(ctx, sid, record)
		if err != nil {
			if clearErr := g.Sessions.Clear(ctx, sid); clearErr != nil {
				slogx.FromContext(ctx).Error("clear expired session", "sid", sid, "err", clearErr)
			}
			return nil, ErrSessionExpired
		}
		return refreshed, nil
	}
}

// After handles the outcome of a request made with the session's token. A
// 401 means the token was rejected mid-flight despite looking valid, so the
// pair is force-refreshed; if that fails the session is cleared and
// ErrSessionExpired returned. Any other status is a no-op.
func (g *Guard) After(ctx context.Context, sid string, status int) (*session.Record, error) {
	if status != 401 {
		return nil, nil
	}

	record, err := g.Sessions.GetStale(ctx, sid)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrSessionExpired
	}

	refreshed, err := g.refresh(ctx, sid, record)
	if err != nil {
		if clearErr := g.Sessions.Clear(ctx, sid); clearErr != nil {
			slogx.FromContext(ctx).Error("clear rejected session", "sid", sid, "err", clearErr)
		}
		return nil, ErrSessionExpired
	}
	return refreshed, nil
}

// refresh rotates the pair and rewrites the session record, preserving the
// principal facts captured at login.
func (g *Guard) refresh(ctx context.Context, sid string, record *session.Record) (*session.Record, error) {
	refreshCtx, cancel := context.WithTimeout(ctx, g.refreshTimeout())
	defer cancel()

	pair, err := g.Auth.RefreshByCode(refreshCtx, record.RefreshToken)
	if err != nil {
		return nil, err
	}

	updated := *record
	updated.AccessToken = pair.AccessToken
	updated.RefreshToken = pair.RefreshToken
	updated.ExpiresAt = pair.AccessTokenExpiration

	ttl := pair.RefreshTokenExpiration.Sub(g.now())
	if err := g.Sessions.Save(ctx, sid, &updated, ttl); err != nil {
		return nil, err
	}
	return &updated, nil
}
