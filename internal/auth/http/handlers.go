// Package http exposes the auth service over JSON HTTP.
package http

import (
	"time"

	"github.com/opspanel/authd/internal/auth/service"
	"github.com/opspanel/authd/internal/auth/session"
	"github.com/opspanel/authd/internal/auth/store"
)

// Handlers bundles the dependencies of the HTTP surface.
type Handlers struct {
	Auth     *service.AuthService
	Sessions *session.Cache
	Store    store.Store

	StartTime time.Time
	Version   string

	// SecureCookies toggles the Secure attribute on session cookies; off
	// only for local development over plain HTTP.
	SecureCookies bool
}
