package domain

import (
	"errors"
	"time"
)

var ErrTaskNotFound = errors.New("task not found")

type Task struct {
	ID          int64
	UserID      int64
	Name        string
	Description string
	Completed   bool
	CreatedAt   time.Time
}

// TaskPatch carries a partial update. Nil fields keep their current value.
type TaskPatch struct {
	ID          int64
	Name        *string
	Description *string
	Completed   *bool
}

// Apply merges the non-nil fields of p into t.
func (p TaskPatch) Apply(t *Task) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
}
