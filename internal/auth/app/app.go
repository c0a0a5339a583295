// Package app wires the service together and owns its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opspanel/authd/internal/auth/guard"
	authhttp "github.com/opspanel/authd/internal/auth/http"
	"github.com/opspanel/authd/internal/auth/service"
	"github.com/opspanel/authd/internal/auth/session"
	"github.com/opspanel/authd/internal/auth/store"
	"github.com/opspanel/authd/internal/auth/store/drivers/sqlite"
	"github.com/opspanel/authd/pkg/cryptox"
	"github.com/opspanel/authd/pkg/jwtx"
	"github.com/opspanel/authd/pkg/slogx"
)

// App is the assembled service.
type App struct {
	cfg Config

	store        store.Store
	redis        *redis.Client
	sessions     *session.Cache
	auth         *service.AuthService
	guard        *guard.Guard
	housekeeping *service.Housekeeping
	server       *http.Server
}

// New builds the application from its configuration: store plus
// migrations, session cache, signer, services and HTTP server.
func New(cfg Config) (*App, error) {
	logger := slogx.New(slogx.Config{
		Service: "authd",
		Version: cfg.Version,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	if cfg.SigningKey == "" {
		return nil, errors.New("AUTHD_SIGNING_KEY is required")
	}

	cryptox.SetPepperPath(cfg.PepperFile)

	st, err := sqlite.Open(cfg.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := st.ApplyMigrations(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	sessions := session.NewCache(redisClient)
	if err := sessions.Ping(ctx); err != nil {
		logger.Warn("redis unreachable at startup, sessions will fail until it recovers",
			"addr", cfg.RedisAddr, "err", err)
	}

	signer, err := jwtx.NewHS256Signer([]byte(cfg.SigningKey))
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("configure signer: %w", err)
	}

	issuer := &service.TokenIssuer{
		Signer:     signer,
		Issuer:     cfg.Issuer,
		Audience:   cfg.Audience,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
		Clients:    cfg.Clients,
	}
	auth := service.NewAuthService(issuer, st)

	sessionGuard := &guard.Guard{
		Sessions:         sessions,
		Auth:             auth,
		RefreshThreshold: cfg.RefreshThreshold,
		RefreshTimeout:   cfg.RefreshTimeout,
		SkipPrefixes:     []string{"/auth/", "/livez", "/readyz"},
	}

	handlers := &authhttp.Handlers{
		Auth:          auth,
		Sessions:      sessions,
		Store:         st,
		StartTime:     time.Now(),
		Version:       cfg.Version,
		SecureCookies: cfg.SecureCookies,
	}

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: slogx.HTTPMiddleware(logger)(
			sessionGuard.Middleware(handlers.NewRouter())),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &App{
		cfg:          cfg,
		store:        st,
		redis:        redisClient,
		sessions:     sessions,
		auth:         auth,
		guard:        sessionGuard,
		housekeeping: &service.Housekeeping{Store: st, Interval: cfg.HousekeepingInterval},
		server:       server,
	}, nil
}

// Run serves until SIGINT/SIGTERM, then shuts down within the grace
// period.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.housekeeping.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		slogx.FromContext(ctx).Info("listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownGracePeriod)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	if closeErr := a.redis.Close(); err == nil {
		err = closeErr
	}
	if closeErr := a.store.Close(); err == nil {
		err = closeErr
	}
	return err
}
