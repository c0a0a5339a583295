package http

import (
	"errors"
	"net/http"

	"github.com/opspanel/authd/internal/auth/service"
	"github.com/opspanel/authd/pkg/httpx"
	"github.com/opspanel/authd/pkg/slogx"
)

type clientTokenRequest struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

// ClientTokenHandler authenticates a service client and mints an access
// token scoped to its configured audiences. No session, no refresh token.
func (h *Handlers) ClientTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req clientTokenRequest
		if err := httpx.DecodeJSON(r, &req); err != nil || req.ClientID == "" || req.ClientSecret == "" {
			httpx.ErrInvalidRequest.WriteError(w)
			return
		}

		pair, err := h.Auth.IssueClientToken(r.Context(), req.ClientID, req.ClientSecret)
		if errors.Is(err, service.ErrInvalidClient) {
			httpx.ErrInvalidClient.WriteError(w)
			return
		}
		if err != nil {
			slogx.FromContext(r.Context()).Error("client token failed", "err", err)
			httpx.ErrServerError.WriteError(w)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, pair)
	}
}
