package http

import (
	"errors"
	"net/http"

	"github.com/opspanel/authd/internal/auth/service"
	"github.com/opspanel/authd/pkg/httpx"
	"github.com/opspanel/authd/pkg/slogx"
)

type revokeRequest struct {
	Token string `json:"token"`
}

// RevokeHandler invalidates a refresh code. Unknown and already-revoked
// codes report not_found rather than succeeding silently.
func (h *Handlers) RevokeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req revokeRequest
		if err := httpx.DecodeJSON(r, &req); err != nil || req.Token == "" {
			httpx.ErrInvalidRequest.WriteError(w)
			return
		}

		err := h.Auth.Revoke(r.Context(), req.Token)
		if errors.Is(err, service.ErrRefreshTokenNotFound) {
			httpx.ErrNotFound.WriteError(w)
			return
		}
		if err != nil {
			slogx.FromContext(r.Context()).Error("revoke failed", "err", err)
			httpx.ErrServerError.WriteError(w)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
