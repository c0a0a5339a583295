package guard

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/opspanel/authd/internal/auth/session"
	"github.com/opspanel/authd/pkg/httpx"
	"github.com/opspanel/authd/pkg/slogx"
)

// SessionCookieName is the cookie carrying the opaque session id.
const SessionCookieName = "authd_session"

type recordCtxKey struct{}

// WithRecord attaches the session record to the context.
func WithRecord(ctx context.Context, record *session.Record) context.Context {
	return context.WithValue(ctx, recordCtxKey{}, record)
}

// RecordFromContext returns the session record attached by the middleware,
// nil for unauthenticated requests.
func RecordFromContext(ctx context.Context) *session.Record {
	record, _ := ctx.Value(recordCtxKey{}).(*session.Record)
	return record
}

// Middleware runs the guard around next. The first response is buffered so
// that a 401 from next can trigger exactly one refresh-and-retry; any
// second 401 passes through and the session is cleared.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range g.SkipPrefixes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		sid := cookie.Value

		record, err := g.Before(r.Context(), sid)
		if err != nil {
			if errors.Is(err, ErrSessionExpired) {
				httpx.ErrSessionExpired.WriteError(w)
				return
			}
			slogx.FromContext(r.Context()).Error("session lookup failed", "err", err)
			httpx.ErrServerError.WriteError(w)
			return
		}
		if record == nil {
			next.ServeHTTP(w, r)
			return
		}

		serve := func(rec *session.Record, w http.ResponseWriter) {
			ctx := WithRecord(r.Context(), rec)
			ctx = context.WithValue(ctx, httpx.CtxKeySessionID, sid)
			req := r.Clone(ctx)
			req.Header.Set("Authorization", "Bearer "+rec.AccessToken)
			next.ServeHTTP(w, req)
		}

		// A request whose body was already consumed cannot be replayed;
		// serve it straight through.
		if r.Body != nil && r.Body != http.NoBody && r.GetBody == nil {
			serve(record, w)
			return
		}

		buf := newBufferedResponse()
		serve(record, buf)

		if buf.status != http.StatusUnauthorized {
			buf.flushTo(w)
			return
		}

		// Reactive path: the token was rejected mid-flight. Refresh once
		// and retry; a second rejection stands.
		refreshed, err := g.After(r.Context(), sid, buf.status)
		if err != nil {
			httpx.ErrSessionExpired.WriteError(w)
			return
		}

		if r.GetBody != nil {
			body, err := r.GetBody()
			if err != nil {
				buf.flushTo(w)
				return
			}
			r.Body = body
		}

		retry := newBufferedResponse()
		serve(refreshed, retry)

		// A rejection of the fresh token means the session is beyond
		// saving; clear it so the next request starts unauthenticated.
		if retry.status == http.StatusUnauthorized {
			if clearErr := g.Sessions.Clear(r.Context(), sid); clearErr != nil {
				slogx.FromContext(r.Context()).Error("clear rejected session", "sid", sid, "err", clearErr)
			}
		}
		retry.flushTo(w)
	})
}

// bufferedResponse captures a handler's response so it can be replayed or
// discarded.
type bufferedResponse struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header), status: http.StatusOK}
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(code int) { b.status = code }

func (b *bufferedResponse) Write(p []byte) (int, error) { return b.body.Write(p) }

func (b *bufferedResponse) flushTo(w http.ResponseWriter) {
	for k, vs := range b.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(b.status)
	_, _ = w.Write(b.body.Bytes())
}
