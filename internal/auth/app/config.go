package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/opspanel/authd/internal/auth/domain"
)

// Config carries everything the service needs, sourced from the
// environment. A .env file in the working directory is loaded first when
// present; real environment variables win.
type Config struct {
	Env       string
	LogLevel  string
	LogFormat string
	Port      string
	Version   string

	Issuer     string
	Audience   []string
	SigningKey string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	RefreshThreshold time.Duration
	RefreshTimeout   time.Duration

	DatabaseFile string
	PepperFile   string
	RedisAddr    string

	// Clients is parsed from AUTHD_CLIENTS, a comma-separated list of
	// "id:secret:aud1 aud2" entries.
	Clients []domain.ClientCredential

	HousekeepingInterval time.Duration
	ShutdownGracePeriod  time.Duration
	SecureCookies        bool
}

// LoadConfig reads configuration from the environment with development
// defaults for everything except the signing key, which has no safe
// default and is validated at startup.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		Env:       getEnvOrDefault("AUTHD_ENV", "dev"),
		LogLevel:  getEnvOrDefault("AUTHD_LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("AUTHD_LOG_FORMAT", "json"),
		Port:      getEnvOrDefault("AUTHD_PORT", "8080"),
		Version:   getEnvOrDefault("AUTHD_VERSION", "dev"),

		Issuer:     getEnvOrDefault("AUTHD_ISSUER", "authd"),
		Audience:   splitList(getEnvOrDefault("AUTHD_AUDIENCE", "panel"), " "),
		SigningKey: os.Getenv("AUTHD_SIGNING_KEY"),
		AccessTTL:  getDurationOrDefault("AUTHD_ACCESS_TTL", 15*time.Minute),
		RefreshTTL: getDurationOrDefault("AUTHD_REFRESH_TTL", 7*24*time.Hour),

		RefreshThreshold: getDurationOrDefault("AUTHD_REFRESH_THRESHOLD", 5*time.Minute),
		RefreshTimeout:   getDurationOrDefault("AUTHD_REFRESH_TIMEOUT", 10*time.Second),

		DatabaseFile: getEnvOrDefault("AUTHD_DATABASE_FILE", "data/authd.db"),
		PepperFile:   getEnvOrDefault("AUTHD_PEPPER_FILE", "data/pepper"),
		RedisAddr:    getEnvOrDefault("AUTHD_REDIS_ADDR", "localhost:6379"),

		Clients: parseClients(os.Getenv("AUTHD_CLIENTS")),

		HousekeepingInterval: getDurationOrDefault("AUTHD_HOUSEKEEPING_INTERVAL", time.Hour),
		ShutdownGracePeriod:  getDurationOrDefault("AUTHD_SHUTDOWN_GRACE", 10*time.Second),
		SecureCookies:        getBoolOrDefault("AUTHD_SECURE_COOKIES", true),
	}
}

// parseClients parses "id:secret:aud1 aud2,id2:secret2:aud3" into client
// credentials. Malformed entries are skipped.
func parseClients(raw string) []domain.ClientCredential {
	var clients []domain.ClientCredential
	for _, entry := range splitList(raw, ",") {
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		c := domain.ClientCredential{ID: parts[0], Secret: parts[1]}
		if len(parts) == 3 {
			c.Audiences = strings.Fields(parts[2])
		}
		clients = append(clients, c)
	}
	return clients
}

func splitList(raw, sep string) []string {
	var out []string
	for _, part := range strings.Split(raw, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDurationOrDefault(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getBoolOrDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
