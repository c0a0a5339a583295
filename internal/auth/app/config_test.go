package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opspanel/authd/internal/auth/domain"
)

func TestParseClients(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []domain.ClientCredential
	}{
		{"empty", "", nil},
		{
			"single with audiences",
			"reporting:s3cret:reports metrics",
			[]domain.ClientCredential{{ID: "reporting", Secret: "s3cret", Audiences: []string{"reports", "metrics"}}},
		},
		{
			"multiple",
			"a:1:x, b:2:y z",
			[]domain.ClientCredential{
				{ID: "a", Secret: "1", Audiences: []string{"x"}},
				{ID: "b", Secret: "2", Audiences: []string{"y", "z"}},
			},
		},
		{
			"no audiences",
			"worker:hush",
			[]domain.ClientCredential{{ID: "worker", Secret: "hush"}},
		},
		{"malformed entries skipped", "nosecret,:empty,ok:fine", []domain.ClientCredential{{ID: "ok", Secret: "fine"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, parseClients(tc.raw))
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()
	require.Equal(t, 15*time.Minute, cfg.AccessTTL)
	require.Equal(t, 5*time.Minute, cfg.RefreshThreshold)
	require.Equal(t, "8080", cfg.Port)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("AUTHD_ACCESS_TTL", "30m")
	t.Setenv("AUTHD_AUDIENCE", "panel reports")
	t.Setenv("AUTHD_SECURE_COOKIES", "false")

	cfg := LoadConfig()
	require.Equal(t, 30*time.Minute, cfg.AccessTTL)
	require.Equal(t, []string{"panel", "reports"}, cfg.Audience)
	require.False(t, cfg.SecureCookies)
}
