package repository

import (
	"context"

	"github.com/ErlanBelekov/taskapi/internal/domain"
)

// UserRepository is the user half of the credential store.
// Usecases depend on this interface so tests can pass an in-memory fake.
type UserRepository interface {
	// FindOrCreate returns the user with the given email, creating it first
	// if it does not exist. It never produces two users for one email.
	FindOrCreate(ctx context.Context, email string) (*domain.User, error)

	// FindByID returns domain.ErrUserNotFound when no user has the id.
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}
