package resources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/florianilch/taskconsole/internal/api"
)

// TaskStatus is the progress of a task.
type TaskStatus string

const (
	TaskStatusDone       TaskStatus = "done"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusNotStarted TaskStatus = "not_started"
	TaskStatusAbandoned  TaskStatus = "abandoned"
)

// Task is a unit of work assigned to a user.
type Task struct {
	ID        int64      `json:"id" yaml:"id"`
	UserID    int64      `json:"user_id" yaml:"user_id"`
	TaskName  string     `json:"task_name" yaml:"task_name"`
	StartedAt time.Time  `json:"started_at" yaml:"started_at"`
	EndedAt   time.Time  `json:"ended_at" yaml:"ended_at"`
	Status    TaskStatus `json:"status" yaml:"status"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" yaml:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" yaml:"deleted_at,omitempty"`
}

// ListTasksParams filters GET /tasks.
type ListTasksParams struct {
	Page      int         `validate:"min=1"`
	PageSize  int         `validate:"min=1,max=100"`
	UserID    *int64      `validate:"omitempty,gt=0"`
	TaskName  *string     `validate:"omitempty,min=1"`
	StartedAt *time.Time
	EndedAt   *time.Time
	Status    *TaskStatus `validate:"omitempty,oneof=done in_progress not_started abandoned"`
}

// CreateTaskRequest is the body of POST /task.
type CreateTaskRequest struct {
	UserID    int64      `json:"user_id" validate:"required,gt=0"`
	TaskName  string     `json:"task_name" validate:"required,max=128"`
	StartedAt time.Time  `json:"started_at" validate:"required"`
	EndedAt   time.Time  `json:"ended_at" validate:"required,gtefield=StartedAt"`
	Status    TaskStatus `json:"status" validate:"required,oneof=done in_progress not_started abandoned"`
}

// UpdateTaskRequest is the body of PUT /task/{id}.
type UpdateTaskRequest struct {
	ID        int64      `json:"id" validate:"required,gt=0"`
	UserID    int64      `json:"user_id" validate:"required,gt=0"`
	TaskName  string     `json:"task_name" validate:"required,max=128"`
	StartedAt time.Time  `json:"started_at" validate:"required"`
	EndedAt   time.Time  `json:"ended_at" validate:"required,gtefield=StartedAt"`
	Status    TaskStatus `json:"status" validate:"required,oneof=done in_progress not_started abandoned"`
}

// Tasks is the client for tasks.
type Tasks struct {
	doer Doer
}

// NewTasks creates a Tasks client sending through doer.
func NewTasks(doer Doer) *Tasks {
	return &Tasks{doer: doer}
}

// List returns one page of tasks matching params.
func (t *Tasks) List(ctx context.Context, params ListTasksParams) (*Page[Task], error) {
	if err := validate.Struct(params); err != nil {
		return nil, fmt.Errorf("invalid list parameters: %w", err)
	}

	query := url.Values{}
	if err := addQueryParam(query, "page", params.Page); err != nil {
		return nil, err
	}
	if err := addQueryParam(query, "page_size", params.PageSize); err != nil {
		return nil, err
	}
	if params.UserID != nil {
		if err := addQueryParam(query, "user_id", *params.UserID); err != nil {
			return nil, err
		}
	}
	if params.TaskName != nil {
		if err := addQueryParam(query, "task_name", *params.TaskName); err != nil {
			return nil, err
		}
	}
	if params.StartedAt != nil {
		if err := addQueryParam(query, "started_at", *params.StartedAt); err != nil {
			return nil, err
		}
	}
	if params.EndedAt != nil {
		if err := addQueryParam(query, "ended_at", *params.EndedAt); err != nil {
			return nil, err
		}
	}
	if params.Status != nil {
		if err := addQueryParam(query, "status", string(*params.Status)); err != nil {
			return nil, err
		}
	}

	return list[Task](ctx, t.doer, &api.Request{Method: http.MethodGet, Path: "/tasks", Query: query})
}

// Create adds a task.
func (t *Tasks) Create(ctx context.Context, req CreateTaskRequest) (*Task, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}
	return call[*Task](ctx, t.doer, &api.Request{Method: http.MethodPost, Path: "/task", Body: req})
}

// Update replaces a task's fields.
func (t *Tasks) Update(ctx context.Context, req UpdateTaskRequest) (*Task, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid task update: %w", err)
	}
	return call[*Task](ctx, t.doer, &api.Request{Method: http.MethodPut, Path: idPath("/task", req.ID), Body: req})
}

// Delete removes a task.
func (t *Tasks) Delete(ctx context.Context, id int64) error {
	_, err := t.doer.Do(ctx, &api.Request{Method: http.MethodDelete, Path: idPath("/task", id)})
	return err
}
