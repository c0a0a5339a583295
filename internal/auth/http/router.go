package http

import (
	"net/http"

	"github.com/opspanel/authd/pkg/httpx"
)

// NewRouter assembles the HTTP surface. Credential-bearing endpoints get
// the strict per-IP rate limit, the rest of the auth surface the moderate
// one, health probes the lenient one.
func (h *Handlers) NewRouter() http.Handler {
	mux := http.NewServeMux()

	strict := httpx.RateLimitByIP(httpx.StrictLimit)
	moderate := httpx.RateLimitByIP(httpx.ModerateLimit)
	lenient := httpx.RateLimitByIP(httpx.LenientLimit)

	mux.Handle("POST /auth/login", httpx.Chain(h.LoginHandler(), strict))
	mux.Handle("POST /auth/client-token", httpx.Chain(h.ClientTokenHandler(), strict))
	mux.Handle("POST /auth/refresh", httpx.Chain(h.RefreshHandler(), moderate))
	mux.Handle("POST /auth/revoke", httpx.Chain(h.RevokeHandler(), moderate))
	mux.Handle("POST /auth/logout", httpx.Chain(h.LogoutHandler(), moderate))

	mux.Handle("GET /livez", httpx.Chain(h.LivezHandler(), lenient))
	mux.Handle("GET /readyz", httpx.Chain(h.ReadyzHandler(), lenient))

	return mux
}
