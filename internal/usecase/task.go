package usecase

import (
	"context"
	"fmt"

	"github.com/ErlanBelekov/taskapi/internal/domain"
	"github.com/ErlanBelekov/taskapi/internal/repository"
)

type TaskUsecase struct {
	repo repository.TaskRepository
}

func NewTaskUsecase(repo repository.TaskRepository) *TaskUsecase {
	return &TaskUsecase{repo: repo}
}

type CreateTaskInput struct {
	UserID      int64
	Name        string
	Description string
}

func (u *TaskUsecase) CreateTask(ctx context.Context, input CreateTaskInput) (*domain.Task, error) {
	created, err := u.repo.Create(ctx, &domain.Task{
		UserID:      input.UserID,
		Name:        input.Name,
		Description: input.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return created, nil
}

// ListTasks returns only the tasks owned by userID.
func (u *TaskUsecase) ListTasks(ctx context.Context, userID int64) ([]*domain.Task, error) {
	tasks, err := u.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask, UpdateTask and DeleteTask address a task by id only and do not
// compare its owner with the caller.
// TODO: decide on owner checks for id-addressed operations; see DESIGN.md.
func (u *TaskUsecase) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	task, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// UpdateTask applies a partial update: nil fields in patch keep their value.
func (u *TaskUsecase) UpdateTask(ctx context.Context, patch domain.TaskPatch) (*domain.Task, error) {
	task, err := u.repo.GetByID(ctx, patch.ID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	patch.Apply(task)

	updated, err := u.repo.Update(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return updated, nil
}

func (u *TaskUsecase) DeleteTask(ctx context.Context, id int64) error {
	if err := u.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
