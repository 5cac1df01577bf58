// Package config loads the service configuration from the environment.
package config

import (
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

const (
	GoogleVerifierJWKS      = "jwks"
	GoogleVerifierTokenInfo = "tokeninfo"
)

// Config is the service configuration
type Config struct {
	Port      int    `env:"CYBERCONNECT_PORT"       envDefault:"5000"`
	ClientURL string `env:"CYBERCONNECT_CLIENT_URL" envDefault:"http://localhost:5173"`

	JWTSecret   string   `env:"CYBERCONNECT_JWT_SECRET"`
	JWTIssuer   string   `env:"CYBERCONNECT_JWT_ISSUER"   envDefault:"cyberconnect"`
	JWTAudience []string `env:"CYBERCONNECT_JWT_AUDIENCE" envSeparator:","`

	BcryptCost int `env:"CYBERCONNECT_BCRYPT_COST" envDefault:"12"`

	DatabaseURL   string        `env:"CYBERCONNECT_DATABASE_URL"     envDefault:"file:cyberconnect.db?cache=shared"`
	DBDebug       bool          `env:"CYBERCONNECT_DB_DEBUG"`
	DBPingTimeout time.Duration `env:"CYBERCONNECT_DB_PING_TIMEOUT" envDefault:"5s"`

	GoogleClientID string        `env:"CYBERCONNECT_GOOGLE_CLIENT_ID"`
	GoogleVerifier string        `env:"CYBERCONNECT_GOOGLE_VERIFIER" envDefault:"jwks"`
	GoogleTimeout  time.Duration `env:"CYBERCONNECT_GOOGLE_TIMEOUT"  envDefault:"10s"`

	ShutdownTimeout time.Duration `env:"CYBERCONNECT_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	Debug           bool          `env:"CYBERCONNECT_DEBUG"`
}

// Load parses the process environment
func Load() (*Config, error) {
	return load(env.Options{})
}

// LoadFrom parses environ instead of the process environment
func LoadFrom(environ map[string]string) (*Config, error) {
	return load(env.Options{Environment: environ})
}

func load(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse environment")
	}

	cfg.GoogleVerifier = strings.ToLower(strings.TrimSpace(cfg.GoogleVerifier))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required and bounded settings
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.JWTSecret, validation.Required),
		validation.Field(&c.BcryptCost, validation.Min(4), validation.Max(31)),
		validation.Field(&c.DatabaseURL, validation.Required),
		validation.Field(&c.DBPingTimeout, validation.Required),
		validation.Field(&c.GoogleVerifier, validation.In(GoogleVerifierJWKS, GoogleVerifierTokenInfo)),
		validation.Field(&c.GoogleTimeout, validation.Required),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid configuration").
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

// FederatedLoginEnabled reports whether a Google client id is configured
func (c Config) FederatedLoginEnabled() bool {
	return strings.TrimSpace(c.GoogleClientID) != ""
}

// IsPostgres reports whether DatabaseURL selects the pgx driver
func (c Config) IsPostgres() bool {
	return isPostgres(c.DatabaseURL)
}

// Persistence is the database client configuration
type Persistence struct {
	DSN         string
	Debug       bool
	PingTimeout time.Duration
}

// Persistence returns the database settings
func (c Config) Persistence() Persistence {
	return Persistence{
		DSN:         c.DatabaseURL,
		Debug:       c.DBDebug,
		PingTimeout: c.DBPingTimeout,
	}
}

func (p Persistence) GetDSN() string { return p.DSN }

func (p Persistence) GetDebug() bool { return p.Debug }

func (p Persistence) GetPingTimeout() time.Duration { return p.PingTimeout }

func (p Persistence) GetOtelIdentifier() string { return "cyberconnect" }

// GetDriver returns the sql driver name for DSN
func (p Persistence) GetDriver() string {
	if isPostgres(p.DSN) {
		return "postgres"
	}
	return "sqlite"
}

// GetServer returns the database host, empty for SQLite files
func (p Persistence) GetServer() string {
	if !isPostgres(p.DSN) {
		return ""
	}
	u, err := url.Parse(p.DSN)
	if err != nil {
		return ""
	}
	return u.Host
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
