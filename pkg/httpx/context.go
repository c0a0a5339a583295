package httpx

type ctxKey string

const (
	// CtxKeySessionID carries the opaque session id extracted from the
	// session cookie.
	CtxKeySessionID ctxKey = "session_id"

	// CtxKeyUserID carries the authenticated principal id, when known.
	CtxKeyUserID ctxKey = "user_id"
)
