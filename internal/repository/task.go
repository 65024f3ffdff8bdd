package repository

import (
	"context"

	"github.com/ErlanBelekov/taskapi/internal/domain"
)

type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	// GetByID looks a task up by id alone; callers decide about ownership.
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Delete(ctx context.Context, id int64) error
}
