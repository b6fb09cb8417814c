package ports

import (
	"context"
	"time"

	"github.com/taskforge/task-manager/internal/core/domain"
)

// CreateTaskInput carries all data needed to create a new task.
// Priority is the raw string from the request; empty means the default.
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    string
}

// UpdateTaskInput is the typed partial-update DTO. Nil fields are left
// untouched; status and priority are raw strings validated by the service.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Status      *string
	Priority    *string
}

// TaskPage is the pagination envelope returned by List.
type TaskPage struct {
	Docs        []*domain.Task
	TotalDocs   int64
	Page        int
	Limit       int
	TotalPages  int
	HasPrevPage bool
	HasNextPage bool
	PrevPage    *int
	NextPage    *int
}

// TaskService defines the owner-scoped use-case operations over tasks.
type TaskService interface {
	Create(ctx context.Context, userID string, input CreateTaskInput) (*domain.Task, error)
	Get(ctx context.Context, userID, taskID string) (*domain.Task, error)
	List(ctx context.Context, userID string, page, limit int) (*TaskPage, error)
	Update(ctx context.Context, userID, taskID string, input UpdateTaskInput) (*domain.Task, error)
	SetStatus(ctx context.Context, userID, taskID, status string) (*domain.Task, error)
	Delete(ctx context.Context, userID, taskID string) error
}
