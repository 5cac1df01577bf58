package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenTTL is the fixed session lifetime
const TokenTTL = 30 * 24 * time.Hour

// TokenConfig is the process wide signing configuration
type TokenConfig struct {
	SigningKey string
	Issuer     string
	Audience   []string
}

// JWTTokenService implements the TokenService interface
type JWTTokenService struct {
	signingKey []byte
	issuer     string
	audience   jwt.ClaimStrings
	ttl        time.Duration
	now        func() time.Time
	logger     Logger
}

// TokenServiceOption customizes a JWTTokenService
type TokenServiceOption func(*JWTTokenService)

// WithTokenClock overrides the clock used to stamp and check tokens
func WithTokenClock(now func() time.Time) TokenServiceOption {
	return func(ts *JWTTokenService) {
		if now != nil {
			ts.now = now
		}
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *JWTTokenService) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// NewTokenService creates a new token service. A missing signing key
// is a configuration error.
func NewTokenService(cfg TokenConfig, opts ...TokenServiceOption) (*JWTTokenService, error) {
	if strings.TrimSpace(cfg.SigningKey) == "" {
		return nil, goerrors.New("token signing key is required", goerrors.CategoryInternal).
			WithTextCode("SIGNING_KEY_MISSING")
	}

	var aud jwt.ClaimStrings
	if len(cfg.Audience) > 0 {
		aud = make(jwt.ClaimStrings, len(cfg.Audience))
		copy(aud, cfg.Audience)
	}

	ts := &JWTTokenService{
		signingKey: []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		audience:   aud,
		ttl:        TokenTTL,
		now:        time.Now,
		logger:     defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts, nil
}

// Issue creates a signed token for identity that expires TokenTTL from now
func (ts *JWTTokenService) Issue(identity Identity) (string, time.Time, error) {
	if identity == nil || identity.ID() == "" {
		return "", time.Time{}, goerrors.New("identity is required", goerrors.CategoryInternal)
	}

	now := ts.now()
	expiresAt := now.Add(ts.ttl)

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UID:      identity.ID(),
		UserRole: identity.Role(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", time.Time{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signed, expiresAt, nil
}

// Verify checks signature and expiry. Every failure is ErrInvalidToken,
// the reason is only logged.
func (ts *JWTTokenService) Verify(tokenString string) (AuthClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
		// reject non canonical base64url so every byte of the token is signed
		jwt.WithStrictDecoding(),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		ts.logger.Debug("token rejected", "reason", tokenFailureReason(err))
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.UserID() == "" {
		ts.logger.Debug("token rejected", "reason", "claims")
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func tokenFailureReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	default:
		return "invalid"
	}
}
