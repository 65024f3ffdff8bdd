// Package token mints and verifies the HS256 bearer tokens used both as
// magic-link tokens and as access tokens. The two flavors share one format
// and differ only in TTL.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultLeeway = 2 * time.Minute

// Verification failure reasons. All of them wrap ErrInvalid, so callers that
// do not care about the cause check errors.Is(err, ErrInvalid) only.
var (
	ErrInvalid   = errors.New("token invalid")
	ErrMalformed = fmt.Errorf("%w: malformed", ErrInvalid)
	ErrSignature = fmt.Errorf("%w: bad signature", ErrInvalid)
	ErrExpired   = fmt.Errorf("%w: expired", ErrInvalid)
	ErrNotYet    = fmt.Errorf("%w: not valid yet", ErrInvalid)
	ErrIssuer    = fmt.Errorf("%w: wrong issuer", ErrInvalid)
	ErrAudience  = fmt.Errorf("%w: wrong audience", ErrInvalid)
)

type Config struct {
	Issuer   string
	Audience string
	Secret   []byte
}

// Claims is the decoded, validated claim set.
// UserID is empty when the token carried no userId claim.
type Claims struct {
	UserID    string
	ID        string
	Issuer    string
	Audience  []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ParseUserID returns the userId claim as an integer.
func (c *Claims) ParseUserID() (int64, error) {
	return strconv.ParseInt(c.UserID, 10, 64)
}

type wireClaims struct {
	UserID string `json:"userId,omitempty"`
	jwt.RegisteredClaims
}

// Codec is immutable after construction and safe for concurrent use.
type Codec struct {
	cfg    Config
	now    func() time.Time
	leeway time.Duration
}

type Option func(*Codec)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

func WithLeeway(d time.Duration) Option {
	return func(c *Codec) { c.leeway = d }
}

func NewCodec(cfg Config, opts ...Option) *Codec {
	c := &Codec{
		cfg:    cfg,
		now:    time.Now,
		leeway: defaultLeeway,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mint signs a token for userID that expires ttl from now.
func (c *Codec) Mint(userID int64, ttl time.Duration) (string, error) {
	now := c.now()
	claims := wireClaims{
		UserID: strconv.FormatInt(userID, 10),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    c.cfg.Issuer,
			Audience:  jwt.ClaimStrings{c.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer, audience and expiry. On failure it
// returns nil claims and one of the reason errors above; it never panics.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &wireClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return c.cfg.Secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.cfg.Issuer),
		jwt.WithAudience(c.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(c.leeway),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, reason(err)
	}

	wc, ok := parsed.Claims.(*wireClaims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}

	claims := &Claims{
		UserID:   wc.UserID,
		ID:       wc.ID,
		Issuer:   wc.Issuer,
		Audience: wc.Audience,
	}
	if wc.IssuedAt != nil {
		claims.IssuedAt = wc.IssuedAt.Time
	}
	if wc.ExpiresAt != nil {
		claims.ExpiresAt = wc.ExpiresAt.Time
	}
	return claims, nil
}

func reason(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ErrNotYet
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuer
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrAudience
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrSignature
	default:
		return ErrMalformed
	}
}
