package http

import (
	"errors"
	"net/http"

	"github.com/opspanel/authd/internal/auth/service"
	"github.com/opspanel/authd/pkg/httpx"
	"github.com/opspanel/authd/pkg/slogx"
)

type refreshRequest struct {
	Token string `json:"token"`
}

// RefreshHandler exchanges a refresh code for a new pair. The submitted
// code is dead afterwards whether or not the exchange succeeded for this
// particular caller.
func (h *Handlers) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := httpx.DecodeJSON(r, &req); err != nil || req.Token == "" {
			httpx.ErrInvalidRequest.WriteError(w)
			return
		}

		pair, err := h.Auth.RefreshByCode(r.Context(), req.Token)
		switch {
		case errors.Is(err, service.ErrRefreshTokenNotFound),
			errors.Is(err, service.ErrRefreshConflict):
			// A lost rotation race means someone else holds the new pair;
			// for this caller the code is simply gone.
			httpx.ErrRefreshTokenNotFound.WriteError(w)
			return
		case err != nil:
			slogx.FromContext(r.Context()).Error("refresh failed", "err", err)
			httpx.ErrServerError.WriteError(w)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, pair)
	}
}
