package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/opspanel/authd/internal/auth/guard"
	"github.com/opspanel/authd/internal/auth/service"
	"github.com/opspanel/authd/internal/auth/session"
	"github.com/opspanel/authd/pkg/httpx"
	"github.com/opspanel/authd/pkg/idx"
	"github.com/opspanel/authd/pkg/slogx"
)

type loginRequest struct {
	Username string `json:"userName"`
	Password string `json:"password"`
}

// LoginHandler verifies credentials, issues a token pair and establishes a
// server-side session addressed by an opaque cookie.
func (h *Handlers) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := httpx.DecodeJSON(r, &req); err != nil || req.Username == "" || req.Password == "" {
			httpx.ErrInvalidRequest.WriteError(w)
			return
		}

		principal, pair, err := h.Auth.Login(r.Context(), req.Username, req.Password)
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.ErrInvalidCredentials.WriteError(w)
			return
		}
		if err != nil {
			slogx.FromContext(r.Context()).Error("login failed", "err", err)
			httpx.ErrServerError.WriteError(w)
			return
		}

		permissions, err := h.Auth.ResolvePermissions(r.Context(), principal.Roles)
		if err != nil {
			slogx.FromContext(r.Context()).Error("resolve permissions", "err", err)
			httpx.ErrServerError.WriteError(w)
			return
		}

		sid := idx.New().String()
		record := &session.Record{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			ExpiresAt:    pair.AccessTokenExpiration,
			PrincipalID:  principal.ID,
			Username:     principal.Username,
			Email:        principal.Email,
			Roles:        principal.Roles,
			Permissions:  permissions,
		}
		ttl := time.Until(pair.RefreshTokenExpiration)
		if err := h.Sessions.Save(r.Context(), sid, record, ttl); err != nil {
			slogx.FromContext(r.Context()).Error("save session", "err", err)
			httpx.ErrServerError.WriteError(w)
			return
		}

		http.SetCookie(w, h.sessionCookie(sid, ttl))
		httpx.WriteJSON(w, http.StatusOK, pair)
	}
}

func (h *Handlers) sessionCookie(sid string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     guard.SessionCookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
