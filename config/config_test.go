package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-cyberconnect/config"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{
		"CYBERCONNECT_JWT_SECRET": "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "http://localhost:5173", cfg.ClientURL)
	assert.Equal(t, "secret", cfg.JWTSecret)
	assert.Equal(t, "cyberconnect", cfg.JWTIssuer)
	assert.Empty(t, cfg.JWTAudience)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, "file:cyberconnect.db?cache=shared", cfg.DatabaseURL)
	assert.Equal(t, config.GoogleVerifierJWKS, cfg.GoogleVerifier)
	assert.Equal(t, 10*time.Second, cfg.GoogleTimeout)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.Debug)
	assert.False(t, cfg.FederatedLoginEnabled())
	assert.False(t, cfg.IsPostgres())
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{
		"CYBERCONNECT_PORT":             "8080",
		"CYBERCONNECT_CLIENT_URL":       "https://cyberconnect.example.com",
		"CYBERCONNECT_JWT_SECRET":       "secret",
		"CYBERCONNECT_JWT_AUDIENCE":     "web,mobile",
		"CYBERCONNECT_BCRYPT_COST":      "10",
		"CYBERCONNECT_DATABASE_URL":     "postgres://cc:cc@localhost:5432/cc?sslmode=disable",
		"CYBERCONNECT_GOOGLE_CLIENT_ID": "client-id.apps.googleusercontent.com",
		"CYBERCONNECT_GOOGLE_VERIFIER":  " TokenInfo ",
		"CYBERCONNECT_GOOGLE_TIMEOUT":   "3s",
		"CYBERCONNECT_DEBUG":            "true",
	})
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, []string{"web", "mobile"}, cfg.JWTAudience)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, config.GoogleVerifierTokenInfo, cfg.GoogleVerifier)
	assert.Equal(t, 3*time.Second, cfg.GoogleTimeout)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.FederatedLoginEnabled())
	assert.True(t, cfg.IsPostgres())
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
	}{
		{
			name:    "missing secret",
			environ: map[string]string{},
		},
		{
			name: "port out of range",
			environ: map[string]string{
				"CYBERCONNECT_JWT_SECRET": "secret",
				"CYBERCONNECT_PORT":       "70000",
			},
		},
		{
			name: "port not a number",
			environ: map[string]string{
				"CYBERCONNECT_JWT_SECRET": "secret",
				"CYBERCONNECT_PORT":       "http",
			},
		},
		{
			name: "bcrypt cost too high",
			environ: map[string]string{
				"CYBERCONNECT_JWT_SECRET":  "secret",
				"CYBERCONNECT_BCRYPT_COST": "40",
			},
		},
		{
			name: "unknown verifier",
			environ: map[string]string{
				"CYBERCONNECT_JWT_SECRET":      "secret",
				"CYBERCONNECT_GOOGLE_VERIFIER": "oauth1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadFrom(tt.environ)
			assert.Error(t, err)
		})
	}
}

func TestConfig_Persistence(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{
		"CYBERCONNECT_JWT_SECRET": "secret",
	})
	require.NoError(t, err)

	p := cfg.Persistence()
	assert.Equal(t, "file:cyberconnect.db?cache=shared", p.GetDSN())
	assert.Equal(t, "sqlite", p.GetDriver())
	assert.Empty(t, p.GetServer())
	assert.False(t, p.GetDebug())
	assert.Equal(t, 5*time.Second, p.GetPingTimeout())

	cfg, err = config.LoadFrom(map[string]string{
		"CYBERCONNECT_JWT_SECRET":      "secret",
		"CYBERCONNECT_DATABASE_URL":    "postgres://cc:cc@db.internal:5432/cc?sslmode=disable",
		"CYBERCONNECT_DB_DEBUG":        "true",
		"CYBERCONNECT_DB_PING_TIMEOUT": "2s",
	})
	require.NoError(t, err)

	p = cfg.Persistence()
	assert.Equal(t, "postgres", p.GetDriver())
	assert.Equal(t, "db.internal:5432", p.GetServer())
	assert.True(t, p.GetDebug())
	assert.Equal(t, 2*time.Second, p.GetPingTimeout())
}
