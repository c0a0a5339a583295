package http

import (
	"errors"
	"net/http"

	"github.com/opspanel/authd/internal/auth/guard"
	"github.com/opspanel/authd/internal/auth/service"
	"github.com/opspanel/authd/pkg/slogx"
)

// LogoutHandler tears down the caller's session: the refresh credential is
// revoked, the cached record cleared and the cookie expired. Logout without
// a session is still a 204; there is nothing to tear down.
func (h *Handlers) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(guard.SessionCookieName)
		if err != nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		sid := cookie.Value

		record, err := h.Sessions.GetStale(r.Context(), sid)
		if err != nil {
			slogx.FromContext(r.Context()).Error("logout: load session", "err", err)
		}
		if record != nil {
			// The credential may already be gone (revoked elsewhere,
			// expired and swept); that does not block logout.
			if err := h.Auth.Revoke(r.Context(), record.RefreshToken); err != nil &&
				!errors.Is(err, service.ErrRefreshTokenNotFound) {
				slogx.FromContext(r.Context()).Error("logout: revoke refresh token", "err", err)
			}
		}

		if err := h.Sessions.Clear(r.Context(), sid); err != nil {
			slogx.FromContext(r.Context()).Error("logout: clear session", "err", err)
		}

		expired := h.sessionCookie("", 0)
		expired.MaxAge = -1
		http.SetCookie(w, expired)
		w.WriteHeader(http.StatusNoContent)
	}
}
