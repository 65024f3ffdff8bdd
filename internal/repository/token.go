package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/taskapi/internal/domain"
)

type MagicTokenRepository interface {
	// Create persists a new unused token. The store computes expires_at from
	// its own clock as NOW() + ttl.
	Create(ctx context.Context, userID int64, value string, ttl time.Duration) (*domain.MagicToken, error)

	// FindByValue returns domain.ErrMagicTokenNotFound when value was never issued.
	FindByValue(ctx context.Context, value string) (*domain.MagicToken, error)

	// MarkUsed flips used to true only if it is still false, in a single
	// conditional write. Returns domain.ErrTokenAlreadyUsed when another
	// caller got there first.
	MarkUsed(ctx context.Context, id int64) error
}
