// Package google verifies Google ID tokens for federated login.
package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	auth "github.com/goliatone/go-cyberconnect"
	goerrors "github.com/goliatone/go-errors"
)

const (
	ProviderName = "google"

	defaultJWKSURL      = "https://www.googleapis.com/oauth2/v3/certs"
	defaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
	defaultTimeout      = 10 * time.Second
	defaultLeeway       = 30 * time.Second
)

// Config holds Google verification configuration.
type Config struct {
	// ClientID is the expected audience of every ID token
	ClientID string

	JWKSURL      string
	TokenInfoURL string

	// Timeout bounds every call to Google
	Timeout time.Duration

	HTTPClient *http.Client
	Now        func() time.Time
	Logger     auth.Logger
}

func (c Config) withDefaults() (Config, error) {
	if strings.TrimSpace(c.ClientID) == "" {
		return c, goerrors.New("google client id is required", goerrors.CategoryInternal)
	}
	if c.JWKSURL == "" {
		c.JWKSURL = defaultJWKSURL
	}
	if c.TokenInfoURL == "" {
		c.TokenInfoURL = defaultTokenInfoURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = auth.NopLogger()
	}
	return c, nil
}

// JWKSVerifier checks ID token signatures against Google's published
// keys. Keys are fetched on first use and refreshed in the background.
type JWKSVerifier struct {
	config Config

	mu   sync.Mutex
	jwks *keyfunc.JWKS
}

var _ auth.FederatedVerifier = (*JWKSVerifier)(nil)

// NewJWKSVerifier creates a verifier that validates tokens locally
func NewJWKSVerifier(cfg Config) (*JWKSVerifier, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	return &JWKSVerifier{config: cfg}, nil
}

func (v *JWKSVerifier) keys(ctx context.Context) (*keyfunc.JWKS, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.jwks != nil {
		return v.jwks, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	jwks, err := keyfunc.Get(v.config.JWKSURL, keyfunc.Options{
		Client:            v.config.HTTPClient,
		RefreshTimeout:    v.config.Timeout,
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			v.config.Logger.Warn("google jwks refresh failed", "error", err)
		},
	})
	if err != nil {
		return nil, verifyError("jwks", "fetch_failed", v.config.JWKSURL, err)
	}

	v.jwks = jwks
	return jwks, nil
}

// Verify implements auth.FederatedVerifier.
func (v *JWKSVerifier) Verify(ctx context.Context, idToken string) (*auth.FederatedIdentity, error) {
	jwks, err := v.keys(ctx)
	if err != nil {
		return nil, err
	}

	claims := &idTokenClaims{}
	_, err = jwt.ParseWithClaims(idToken, claims, jwks.Keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.config.ClientID),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(defaultLeeway),
		jwt.WithTimeFunc(v.config.Now),
	)
	if err != nil {
		return nil, verifyError("verify", "invalid_token", "", err)
	}

	if err := checkIdentity("verify", claims.Issuer, claims.Subject, claims.Email, bool(claims.EmailVerified)); err != nil {
		return nil, err
	}

	return toIdentity(claims.Subject, claims.Email, claims.Name, claims.Picture), nil
}

// Close stops the background key refresh
func (v *JWKSVerifier) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.jwks != nil {
		v.jwks.EndBackground()
		v.jwks = nil
	}
}

// TokenInfoVerifier asks Google's tokeninfo endpoint to validate the
// token and then checks the returned claims.
type TokenInfoVerifier struct {
	config Config
}

var _ auth.FederatedVerifier = (*TokenInfoVerifier)(nil)

// NewTokenInfoVerifier creates a verifier that calls tokeninfo
func NewTokenInfoVerifier(cfg Config) (*TokenInfoVerifier, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	return &TokenInfoVerifier{config: cfg}, nil
}

type tokenInfoResponse struct {
	Issuer        string   `json:"iss"`
	Audience      string   `json:"aud"`
	Subject       string   `json:"sub"`
	Email         string   `json:"email"`
	EmailVerified flexBool `json:"email_verified"`
	Expires       string   `json:"exp"`
	Name          string   `json:"name"`
	Picture       string   `json:"picture"`
	Error         string   `json:"error"`
	ErrorDesc     string   `json:"error_description"`
}

// Verify implements auth.FederatedVerifier.
func (v *TokenInfoVerifier) Verify(ctx context.Context, idToken string) (*auth.FederatedIdentity, error) {
	ctx, cancel := context.WithTimeout(ctx, v.config.Timeout)
	defer cancel()

	endpoint := v.config.TokenInfoURL + "?" + url.Values{"id_token": {idToken}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, verifyError("tokeninfo", "request", "", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.config.HTTPClient.Do(req)
	if err != nil {
		return nil, verifyError("tokeninfo", "transport", "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, verifyError("tokeninfo", "read", "", err)
	}

	var info tokenInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		e := verifyError("tokeninfo", "invalid_response", "failed to decode tokeninfo response", err)
		e.Status = resp.StatusCode
		return nil, e
	}

	if resp.StatusCode != http.StatusOK || info.Error != "" {
		e := verifyError("tokeninfo", info.Error, info.ErrorDesc, nil)
		e.Status = resp.StatusCode
		return nil, e
	}

	if info.Audience != v.config.ClientID {
		return nil, verifyError("tokeninfo", "invalid_audience", info.Audience, nil)
	}

	expiresAt, ok := unixSeconds(info.Expires)
	if !ok {
		return nil, verifyError("tokeninfo", "missing_expiry", "", nil)
	}
	if !v.config.Now().Before(expiresAt.Add(defaultLeeway)) {
		return nil, verifyError("tokeninfo", "expired", "", nil)
	}

	if err := checkIdentity("tokeninfo", info.Issuer, info.Subject, info.Email, bool(info.EmailVerified)); err != nil {
		return nil, err
	}

	return toIdentity(info.Subject, info.Email, info.Name, info.Picture), nil
}

// New returns the verifier for mode, "jwks" or "tokeninfo"
func New(mode string, cfg Config) (auth.FederatedVerifier, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "jwks":
		v, err := NewJWKSVerifier(cfg)
		if err != nil {
			return nil, err
		}
		return v, nil
	case "tokeninfo":
		v, err := NewTokenInfoVerifier(cfg)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, goerrors.New("unknown google verifier: "+mode, goerrors.CategoryInternal)
	}
}
