package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ErlanBelekov/taskapi/internal/domain"
)

const taskColumns = `id, user_id, name, description, completed, created_at`

type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (user_id, name, description, completed)
		VALUES ($1, $2, $3, $4)
		RETURNING `+taskColumns,
		task.UserID, task.Name, task.Description, task.Completed,
	)
	created, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return created, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	return scanTask(row)
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = $1
		ORDER BY id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET    name        = $2,
		       description = $3,
		       completed   = $4
		WHERE  id = $1
		RETURNING `+taskColumns,
		task.ID, task.Name, task.Description, task.Completed,
	)
	return scanTask(row)
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &t.Completed, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	return &t, nil
}
