package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"github.com/spec-kit/commerce-auth/internal/config"
)

// TokenType is the OAuth2 token type reported to clients.
const TokenType = "bearer"

// TokenErrorKind classifies verification failures.
type TokenErrorKind string

const (
	TokenMalformed    TokenErrorKind = "MALFORMED"
	TokenBadSignature TokenErrorKind = "BAD_SIGNATURE"
	TokenExpired      TokenErrorKind = "EXPIRED"
)

// TokenError is returned by TokenManager.Verify.
type TokenError struct {
	Kind TokenErrorKind
	Err  error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token %s: %v", strings.ToLower(string(e.Kind)), e.Err)
	}
	return "token " + strings.ToLower(string(e.Kind))
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// Is matches any TokenError of the same kind, so the Err* sentinels work with errors.Is.
func (e *TokenError) Is(target error) bool {
	var other *TokenError
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

var (
	ErrTokenMalformed    = &TokenError{Kind: TokenMalformed}
	ErrTokenBadSignature = &TokenError{Kind: TokenBadSignature}
	ErrTokenExpired      = &TokenError{Kind: TokenExpired}
)

func tokenError(kind TokenErrorKind, err error) error {
	return &TokenError{Kind: kind, Err: err}
}

// Claims describes the JWT payload. Subject carries the account email.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssuedToken is a signed access token with its expiry.
type IssuedToken struct {
	Token     string
	TokenType string
	ExpiresAt time.Time
}

// TokenManager issues and verifies HMAC-signed JWTs. It is immutable after
// construction and safe for concurrent use.
type TokenManager struct {
	method *jwt.SigningMethodHMAC
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		if now != nil {
			tm.now = now
		}
	}
}

// NewTokenManager builds a manager from the auth configuration.
func NewTokenManager(cfg config.AuthConfig, opts ...TokenOption) (*TokenManager, error) {
	secret := strings.TrimSpace(cfg.JWTSecret)
	if secret == "" {
		return nil, config.ErrMissingSecret
	}
	method, ok := jwt.GetSigningMethod(cfg.JWTAlgorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, config.ErrUnknownAlgorithm
	}

	tm := &TokenManager{
		method: method,
		secret: []byte(secret),
		issuer: cfg.Issuer,
		ttl:    cfg.AccessTokenTTL(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm, nil
}

// DefaultTTL returns the configured access token lifetime.
func (tm *TokenManager) DefaultTTL() time.Duration {
	return tm.ttl
}

// Issue signs a token for subject carrying role. A non-positive ttl uses the default.
func (tm *TokenManager) Issue(subject, role string, ttl time.Duration) (*IssuedToken, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, errors.New("subject is required")
	}
	if strings.TrimSpace(role) == "" {
		return nil, errors.New("role is required")
	}
	if ttl <= 0 {
		ttl = tm.ttl
	}

	now := tm.now()
	expiresAt := jwt.NewNumericDate(now.Add(ttl))
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tm.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: expiresAt,
			ID:        ulid.Make().String(),
		},
	}

	signed, err := jwt.NewWithClaims(tm.method, claims).SignedString(tm.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &IssuedToken{Token: signed, TokenType: TokenType, ExpiresAt: expiresAt.Time}, nil
}

// Verify checks the signature, then the claims and expiry, and returns the claims.
// Errors are always *TokenError.
func (tm *TokenManager) Verify(tokenStr string) (*Claims, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		return nil, tokenError(TokenMalformed, errors.New("token must have three segments"))
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{tm.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(tm.issuer),
		jwt.WithTimeFunc(tm.now),
		jwt.WithStrictDecoding(),
	)

	// The signature is checked over the raw segments before anything in the
	// header or payload is decoded. Strict decoding rejects non-zero padding
	// bits so every signature has exactly one encoding.
	sig, err := parser.DecodeSegment(parts[2])
	if err != nil {
		return nil, tokenError(TokenBadSignature, err)
	}
	if err := tm.method.Verify(parts[0]+"."+parts[1], sig, tm.secret); err != nil {
		return nil, tokenError(TokenBadSignature, err)
	}

	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return tm.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, tokenError(TokenExpired, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid),
			errors.Is(err, jwt.ErrTokenUnverifiable),
			errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, tokenError(TokenBadSignature, err)
		default:
			return nil, tokenError(TokenMalformed, err)
		}
	}
	if !parsed.Valid {
		return nil, tokenError(TokenMalformed, errors.New("token not valid"))
	}
	if strings.TrimSpace(claims.Subject) == "" || strings.TrimSpace(claims.Role) == "" {
		return nil, tokenError(TokenMalformed, errors.New("subject or role missing"))
	}
	return claims, nil
}

// SelfCheck signs and verifies a short-lived token with the configured key,
// so readiness reflects whether the service can actually authenticate.
func (tm *TokenManager) SelfCheck() error {
	issued, err := tm.Issue("readiness@self-check", "self-check", time.Minute)
	if err != nil {
		return err
	}
	if _, err := tm.Verify(issued.Token); err != nil {
		return fmt.Errorf("signing key self-check: %w", err)
	}
	return nil
}
