package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidEmail       = errors.New("invalid email")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrMagicTokenNotFound = errors.New("magic token not found")
	ErrTokenAlreadyUsed   = errors.New("magic token already used")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrEmailDelivery      = errors.New("email delivery failed")
)

type User struct {
	ID        int64
	Email     string
	CreatedAt time.Time
}

// MagicToken is the persisted record of an issued magic link.
// Value is the encoded token itself and doubles as the lookup key.
// Records are never deleted; Used only ever moves from false to true.
type MagicToken struct {
	ID        int64
	UserID    int64
	Value     string
	ExpiresAt time.Time
	Used      bool
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Expired reports whether now is past the store-assigned expiration.
func (t *MagicToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
