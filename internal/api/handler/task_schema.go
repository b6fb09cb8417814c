package handler

import (
	"time"

	"github.com/taskforge/task-manager/internal/core/domain"
	"github.com/taskforge/task-manager/internal/core/ports"
)

// errorResponse mirrors the envelope rendered by the API error handler; it
// exists here for the generated API documentation.
type errorResponse struct {
	Msg string `json:"msg"`
}

// --- Request types ---

type createTaskRequest struct {
	Title       string     `json:"title"       validate:"required"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Priority    string     `json:"priority"    validate:"omitempty,oneof=low medium high"`
}

// updateTaskRequest enumerates exactly the mutable fields. Owner, id, and
// timestamps are not bindable, so a payload naming them is silently ignored.
type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Status      *string    `json:"status"   validate:"omitempty,oneof=pending completed"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=low medium high"`
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed"`
}

// --- Response types ---
// Response-only types owned by the transport layer, kept separate from the
// domain so the JSON contract is not coupled to internal changes.

type taskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toTaskResponse(t *domain.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// listTasksResponse is the pagination envelope.
type listTasksResponse struct {
	Docs        []taskResponse `json:"docs"`
	TotalDocs   int64          `json:"totalDocs"`
	Limit       int            `json:"limit"`
	Page        int            `json:"page"`
	TotalPages  int            `json:"totalPages"`
	HasPrevPage bool           `json:"hasPrevPage"`
	HasNextPage bool           `json:"hasNextPage"`
	PrevPage    *int           `json:"prevPage"`
	NextPage    *int           `json:"nextPage"`
}

func toListResponse(p *ports.TaskPage) listTasksResponse {
	docs := make([]taskResponse, 0, len(p.Docs))
	for _, t := range p.Docs {
		docs = append(docs, toTaskResponse(t))
	}
	return listTasksResponse{
		Docs:        docs,
		TotalDocs:   p.TotalDocs,
		Limit:       p.Limit,
		Page:        p.Page,
		TotalPages:  p.TotalPages,
		HasPrevPage: p.HasPrevPage,
		HasNextPage: p.HasNextPage,
		PrevPage:    p.PrevPage,
		NextPage:    p.NextPage,
	}
}

// messageResponse is used for acknowledgement-only replies.
type messageResponse struct {
	Msg string `json:"msg"`
}
