package auth

import (
	"errors"
	"slices"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/session-auth/internal/domain"
)

// DefaultSessionTTL is the lifetime of a session token and its cookie.
const DefaultSessionTTL = 7 * 24 * time.Hour

var errUnexpectedAlgorithm = errors.New("unexpected signing method")

// InvalidReason records why a token was rejected. It is meant for logs and
// metrics only and must not reach unauthenticated callers.
type InvalidReason string

const (
	ReasonNone      InvalidReason = ""
	ReasonMalformed InvalidReason = "malformed"
	ReasonSignature InvalidReason = "signature"
	ReasonExpired   InvalidReason = "expired"
	ReasonAlgorithm InvalidReason = "algorithm"
	ReasonClaims    InvalidReason = "claims"
)

// ParseResult is the outcome of TokenCodec.Parse. Claims is only meaningful when Valid.
type ParseResult struct {
	Claims domain.TokenClaims
	Reason InvalidReason
}

// Valid reports whether the token was accepted.
func (r ParseResult) Valid() bool {
	return r.Reason == ReasonNone
}

func invalid(reason InvalidReason) ParseResult {
	return ParseResult{Reason: reason}
}

// sessionClaims is the JWT payload: sub, roles, iat, exp and a per-token jti.
type sessionClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// CodecOption customises a TokenCodec.
type CodecOption func(*TokenCodec)

// WithTTL overrides the session lifetime. Zero keeps the default.
func WithTTL(ttl time.Duration) CodecOption {
	return func(c *TokenCodec) {
		if ttl != 0 {
			c.ttl = ttl
		}
	}
}

// WithClock overrides the time source used for issuing and validating.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// TokenCodec issues and validates HS256 session tokens. It holds no mutable
// state and is safe for concurrent use.
type TokenCodec struct {
	secret Secret
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec builds a codec bound to secret.
func NewTokenCodec(secret Secret, opts ...CodecOption) (*TokenCodec, error) {
	if secret.IsZero() {
		return nil, ErrSecretMissing
	}
	c := &TokenCodec{secret: secret, ttl: DefaultSessionTTL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL returns the lifetime stamped on issued tokens.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a new token for subject carrying roles as of now.
func (c *TokenCodec) Issue(subject string, roles []string) (domain.IssuedToken, error) {
	now := c.now()
	issuedAt := jwt.NewNumericDate(now)
	expiresAt := jwt.NewNumericDate(now.Add(c.ttl))

	claims := &sessionClaims{
		Roles: normalizeRoles(roles),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret.bytes())
	if err != nil {
		return domain.IssuedToken{}, err
	}

	return domain.IssuedToken{
		Value: signed,
		Claims: domain.TokenClaims{
			Subject:   subject,
			Roles:     slices.Clone(claims.Roles),
			IssuedAt:  issuedAt.Time,
			ExpiresAt: expiresAt.Time,
		},
	}, nil
}

// Parse validates token and returns its claims. It never returns an error:
// every rejection is reported through ParseResult.Reason. Signature comparison
// is done with hmac.Equal inside the jwt library.
func (c *TokenCodec) Parse(token string) ParseResult {
	if token == "" {
		return invalid(ReasonMalformed)
	}

	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errUnexpectedAlgorithm
		}
		return c.secret.bytes(), nil
	},
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		return invalid(reasonFor(err))
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.Subject == "" || claims.IssuedAt == nil {
		return invalid(ReasonClaims)
	}

	return ParseResult{Claims: domain.TokenClaims{
		Subject:   claims.Subject,
		Roles:     normalizeRoles(claims.Roles),
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}}
}

func reasonFor(err error) InvalidReason {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ReasonMalformed
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return ReasonAlgorithm
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ReasonSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpired
	default:
		return ReasonClaims
	}
}

func normalizeRoles(roles []string) []string {
	if len(roles) == 0 {
		return []string{}
	}
	return slices.Clone(roles)
}
