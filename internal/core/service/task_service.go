package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskforge/task-manager/internal/metrics"
	"github.com/taskforge/task-manager/internal/core/domain"
	"github.com/taskforge/task-manager/internal/core/ports"
)

const maxPageLimit = 100

// TaskService implements the owner-scoped task use cases. Every operation is
// keyed by the authenticated user; ownership is enforced by the repository
// filters, never by post-hoc comparison.
type TaskService struct {
	repo   ports.TaskRepository
	logger zerolog.Logger
}

func NewTaskService(repo ports.TaskRepository, logger zerolog.Logger) *TaskService {
	return &TaskService{repo: repo, logger: logger}
}

func (s *TaskService) Create(ctx context.Context, userID string, input ports.CreateTaskInput) (*domain.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, &domain.ValidationError{Field: "title", Reason: "is required"}
	}

	priority := domain.PriorityMedium
	if input.Priority != "" {
		p, err := domain.ParsePriority(input.Priority)
		if err != nil {
			return nil, err
		}
		priority = p
	}

	now := time.Now().UTC()
	task := &domain.Task{
		UserID:      userID,
		Title:       title,
		Description: input.Description,
		DueDate:     input.DueDate,
		Status:      domain.StatusPending,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.repo.Create(ctx, task)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to create task")
		return nil, err
	}

	metrics.TasksCreatedTotal.WithLabelValues(string(created.Priority)).Inc()
	s.logger.Info().Str("task_id", created.ID).Str("user_id", userID).Msg("task created")
	return created, nil
}

func (s *TaskService) Get(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	return s.repo.FindByID(ctx, taskID, userID)
}

// List returns one page of the user's tasks ordered by priority (high first)
// then due date (earliest first, undated tasks last). Page and limit must
// both be at least 1; limit is capped at 100. Defaults for omitted query
// parameters are the transport layer's concern.
func (s *TaskService) List(ctx context.Context, userID string, page, limit int) (*ports.TaskPage, error) {
	if page < 1 || limit < 1 {
		return nil, domain.ErrInvalidPagination
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	docs, total, err := s.repo.List(ctx, ports.ListTasksFilter{UserID: userID, Page: page, Limit: limit})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list tasks")
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	result := &ports.TaskPage{
		Docs:        docs,
		TotalDocs:   total,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
		HasPrevPage: page > 1,
		HasNextPage: int64(page)*int64(limit) < total,
	}
	if result.HasPrevPage {
		prev := page - 1
		result.PrevPage = &prev
	}
	if result.HasNextPage {
		next := page + 1
		result.NextPage = &next
	}
	return result, nil
}

func (s *TaskService) Update(ctx context.Context, userID, taskID string, input ports.UpdateTaskInput) (*domain.Task, error) {
	patch, err := buildPatch(input)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, taskID, userID, patch)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil {
		metrics.TaskStatusChangesTotal.WithLabelValues(string(*patch.Status)).Inc()
	}
	s.logger.Info().Str("task_id", taskID).Str("user_id", userID).Msg("task updated")
	return updated, nil
}

// SetStatus is Update restricted to the status field; it backs the
// toggle-complete interaction.
func (s *TaskService) SetStatus(ctx context.Context, userID, taskID, status string) (*domain.Task, error) {
	return s.Update(ctx, userID, taskID, ports.UpdateTaskInput{Status: &status})
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	if err := s.repo.Delete(ctx, taskID, userID); err != nil {
		return err
	}
	s.logger.Info().Str("task_id", taskID).Str("user_id", userID).Msg("task deleted")
	return nil
}

// buildPatch validates the raw partial update and converts it to the typed
// repository patch. Supplying an empty title is rejected; omitting it is not.
func buildPatch(input ports.UpdateTaskInput) (ports.TaskPatch, error) {
	var patch ports.TaskPatch

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return patch, &domain.ValidationError{Field: "title", Reason: "must not be empty"}
		}
		patch.Title = &title
	}
	if input.Description != nil {
		patch.Description = input.Description
	}
	if input.DueDate != nil {
		patch.DueDate = input.DueDate
	}
	if input.Status != nil {
		status, err := domain.ParseStatus(*input.Status)
		if err != nil {
			return patch, err
		}
		patch.Status = &status
	}
	if input.Priority != nil {
		priority, err := domain.ParsePriority(*input.Priority)
		if err != nil {
			return patch, err
		}
		patch.Priority = &priority
	}

	return patch, nil
}
