package ports

import (
	"context"
	"time"

	"github.com/taskforge/task-manager/internal/core/domain"
)

// ListTasksFilter carries all query parameters for listing tasks.
// UserID is always enforced by the service layer: a listing never crosses
// account boundaries.
type ListTasksFilter struct {
	UserID string
	Page   int // 1-based
	Limit  int // rows per page (capped at 100 by the service)
}

// TaskPatch enumerates exactly the fields a partial update may change.
// Nil means "leave as is". Owner, id, and created_at are not representable
// here, so no update path can touch them.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Status      *domain.Status
	Priority    *domain.Priority
}

// TaskRepository defines persistence operations for tasks. Every lookup and
// mutation takes the owner's userID and applies it as a query filter, so a
// record owned by someone else behaves exactly like a missing one.
type TaskRepository interface {
	Create(ctx context.Context, t *domain.Task) (*domain.Task, error)
	FindByID(ctx context.Context, taskID, userID string) (*domain.Task, error)
	// List returns a page of tasks matching filter and the total count,
	// ordered by priority weight descending, then due date ascending with
	// undated tasks last, then created_at ascending.
	List(ctx context.Context, filter ListTasksFilter) ([]*domain.Task, int64, error)
	// Update applies patch atomically and returns the updated task.
	Update(ctx context.Context, taskID, userID string, patch TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, taskID, userID string) error
}
