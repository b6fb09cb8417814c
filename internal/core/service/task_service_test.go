package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskforge/task-manager/internal/core/domain"
	"github.com/taskforge/task-manager/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubTaskRepo struct {
	tasks  map[string]*domain.Task
	nextID int
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{tasks: make(map[string]*domain.Task)}
}

func cloneTask(t *domain.Task) *domain.Task {
	clone := *t
	if t.DueDate != nil {
		due := *t.DueDate
		clone.DueDate = &due
	}
	return &clone
}

func (r *stubTaskRepo) Create(_ context.Context, t *domain.Task) (*domain.Task, error) {
	clone := cloneTask(t)
	r.nextID++
	clone.ID = "task_" + strconv.Itoa(r.nextID)
	r.tasks[clone.ID] = cloneTask(clone)
	return clone, nil
}

func (r *stubTaskRepo) FindByID(_ context.Context, taskID, userID string) (*domain.Task, error) {
	t, ok := r.tasks[taskID]
	// Owner mismatch behaves exactly like absence (mirrors the Mongo filter).
	if !ok || t.UserID != userID {
		return nil, domain.ErrTaskNotFound
	}
	return cloneTask(t), nil
}

func (r *stubTaskRepo) List(_ context.Context, filter ports.ListTasksFilter) ([]*domain.Task, int64, error) {
	var owned []*domain.Task
	for _, t := range r.tasks {
		if t.UserID == filter.UserID {
			owned = append(owned, cloneTask(t))
		}
	}

	sort.SliceStable(owned, func(i, j int) bool {
		a, b := owned[i], owned[j]
		if a.Priority.Weight() != b.Priority.Weight() {
			return a.Priority.Weight() > b.Priority.Weight()
		}
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return a.CreatedAt.Before(b.CreatedAt)
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		case !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	total := int64(len(owned))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(owned) {
		return nil, total, nil
	}
	end := start + filter.Limit
	if end > len(owned) {
		end = len(owned)
	}
	return owned[start:end], total, nil
}

func (r *stubTaskRepo) Update(_ context.Context, taskID, userID string, patch ports.TaskPatch) (*domain.Task, error) {
	t, ok := r.tasks[taskID]
	if !ok || t.UserID != userID {
		return nil, domain.ErrTaskNotFound
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.DueDate != nil {
		due := *patch.DueDate
		t.DueDate = &due
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	t.UpdatedAt = time.Now().UTC()
	return cloneTask(t), nil
}

func (r *stubTaskRepo) Delete(_ context.Context, taskID, userID string) error {
	t, ok := r.tasks[taskID]
	if !ok || t.UserID != userID {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, taskID)
	return nil
}

func newTestTaskService(repo ports.TaskRepository) *TaskService {
	return NewTaskService(repo, zerolog.Nop())
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestTaskService_Create_Defaults(t *testing.T) {
	svc := newTestTaskService(newStubTaskRepo())

	task, err := svc.Create(context.Background(), "u1", ports.CreateTaskInput{Title: "Write report"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if task.ID == "" {
		t.Fatalf("expected assigned id")
	}
	if task.UserID != "u1" {
		t.Fatalf("expected owner u1, got %s", task.UserID)
	}
	if task.Status != domain.StatusPending {
		t.Fatalf("expected pending status, got %s", task.Status)
	}
	if task.Priority != domain.PriorityMedium {
		t.Fatalf("expected medium priority, got %s", task.Priority)
	}
	if task.DueDate != nil {
		t.Fatalf("expected no due date")
	}
	if task.CreatedAt.IsZero() || task.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps to be set")
	}
}

func TestTaskService_Create_FieldsRoundTrip(t *testing.T) {
	repo := newStubTaskRepo()
	svc := newTestTaskService(repo)

	due := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	created, err := svc.Create(context.Background(), "u1", ports.CreateTaskInput{
		Title:       "Write report",
		Description: "quarterly numbers",
		DueDate:     &due,
		Priority:    "high",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := svc.Get(context.Background(), "u1", created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Title != "Write report" || got.Description != "quarterly numbers" {
		t.Fatalf("unexpected fields: %+v", got)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Fatalf("unexpected due date: %v", got.DueDate)
	}
	if got.Priority != domain.PriorityHigh {
		t.Fatalf("unexpected priority: %s", got.Priority)
	}
}

func TestTaskService_Create_Validation(t *testing.T) {
	svc := newTestTaskService(newStubTaskRepo())

	if _, err := svc.Create(context.Background(), "u1", ports.CreateTaskInput{Title: "   "}); err == nil {
		t.Fatalf("expected error for blank title")
	}

	_, err := svc.Create(context.Background(), "u1", ports.CreateTaskInput{Title: "x", Priority: "urgent"})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "priority" {
		t.Fatalf("expected priority validation error, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Ownership
// ---------------------------------------------------------------------------

func TestTaskService_Get_OtherUsersTaskIsNotFound(t *testing.T) {
	svc := newTestTaskService(newStubTaskRepo())

	created, err := svc.Create(context.Background(), "owner", ports.CreateTaskInput{Title: "private"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.Get(context.Background(), "intruder", created.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if _, err := svc.Update(context.Background(), "intruder", created.ID, ports.UpdateTaskInput{}); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound on update, got %v", err)
	}
	if err := svc.Delete(context.Background(), "intruder", created.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound on delete, got %v", err)
	}

	// The task is untouched and still visible to its owner.
	if _, err := svc.Get(context.Background(), "owner", created.ID); err != nil {
		t.Fatalf("owner lost access: %v", err)
	}
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func TestTaskService_List_ScopedToOwner(t *testing.T) {
	svc := newTestTaskService(newStubTaskRepo())

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(context.Background(), "alice", ports.CreateTaskInput{Title: "a" + strconv.Itoa(i)}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	if _, err := svc.Create(context.Background(), "bob", ports.CreateTaskInput{Title: "b0"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	page, err := svc.List(context.Background(), "alice", 1, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.TotalDocs != 3 {
		t.Fatalf("expected 3 tasks, got %d", page.TotalDocs)
	}
	for _, task := range page.Docs {
		if task.UserID != "alice" {
			t.Fatalf("foreign task leaked into listing: %+v", task)
		}
	}
}

func TestTaskService_List_Ordering(t *testing.T) {
	svc := newTestTaskService(newStubTaskRepo())

	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	mk := func(title, priority string, due *time.Time) {
		t.Helper()
		if _, err := svc.Create(context.Background(), "u1", ports.CreateTaskInput{Title: title, Priority: priority, DueDate: due}); err != nil {
			t.Fatalf("create %s failed: %v", title, err)
		}
	}
	mk("low-early", "low", &early)
	mk("high-late", "high", &late)
	mk("medium-none", "medium", nil)
	mk("high-early", "high", &early)
	mk("medium-early", "medium", &early)

	page, err := svc.List(context.Background(), "u1", 1, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	var titles []string
	for _, task := range page.Docs {
		titles = append(titles, task.Title)
	}
	want := []string{"high-early", "high-late", "medium-early", "medium-none", "low-early"}
	if len(titles) != len(want) {
		t.Fatalf("expected %d tasks, got %v", len(want), titles)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("position %d: expected %s, got %s (full order %v)", i, want[i], titles[i], titles)
		}
	}
}

func TestTaskService_List_Pagination(t *testing.T) {
	svc := newTestTaskService(newStubTaskRepo())

	for i := 0; i < 7; i++ {
		if _, err := svc.Create(context.Background(), "u1", ports.CreateTaskInput{Title: "t" + strconv.Itoa(i)}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	first, err := svc.List(context.Background(), "u1", 1, 3)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(first.Docs) != 3 || first.TotalDocs != 7 || first.TotalPages != 3 {
		t.Fatalf("unexpected first page: %+v", first)
	}
	if first.HasPrevPage || !first.HasNextPage {
		t.Fatalf("unexpected flags on first page: %+v", first)
	}
	if first.PrevPage != nil || first.NextPage == nil || *first.NextPage != 2 {
		t.Fatalf("unexpected page pointers: %+v", first)
	}

	last, err := svc.List(context.Background(), "u1", 3, 3)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(last.Docs) != 1 {
		t.Fatalf("expected 1 task on last page, got %d", len(last.Docs))
	}
	if !last.HasPrevPage || last.HasNextPage {
		t.Fatalf("unexpected flags on last page: %+v", last)
	}
}

func TestTaskService_List_InvalidPagination(t *testing.T) {
	svc := newTestTaskService(newStubTaskRepo())

	if _, err := svc.List(context.Background(), "u1", 0, 10); !errors.Is(err, domain.ErrInvalidPagination) {
		t.Fatalf("expected ErrInvalidPagination for page 0, got %v", err)
	}
	if _, err := svc.List(context.Background(), "u1", 1, 0); !errors.Is(err, domain.ErrInvalidPagination) {
		t.Fatalf("expected ErrInvalidPagination for zero limit, got %v", err)
	}
	if _, err := svc.List(context.Background(), "u1", 1, -1); !errors.Is(err, domain.ErrInvalidPagination) {
		t.Fatalf("expected ErrInvalidPagination for negative limit, got %v", err)
	}
}

func TestTaskService_List_LimitCap(t *testing.T) {
	svc := newTestTaskService(newStubTaskRepo())

	page, err := svc.List(context.Background(), "u1", 1, 5000)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.Limit != 100 {
		t.Fatalf("expected limit capped at 100, got %d", page.Limit)
	}
}

// ---------------------------------------------------------------------------
// Update / SetStatus / Delete
// ---------------------------------------------------------------------------

func TestTaskService_Update_PartialFields(t *testing.T) {
	svc := newTestTaskService(newStubTaskRepo())

	created, err := svc.Create(context.Background(), "u1", ports.CreateTaskInput{Title: "before", Priority: "low"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	title := "after"
	priority := "high"
	updated, err := svc.Update(context.Background(), "u1", created.ID, ports.UpdateTaskInput{Title: &title, Priority: &priority})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if updated.Title != "after" || updated.Priority != domain.PriorityHigh {
		t.Fatalf("unexpected task after update: %+v", updated)
	}
	// Untouched fields survive, immutable fields cannot move.
	if updated.Status != domain.StatusPending {
		t.Fatalf("status changed unexpectedly: %s", updated.Status)
	}
	if updated.ID != created.ID || updated.UserID != created.UserID {
		t.Fatalf("identity changed: %+v", updated)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("created_at changed: %v -> %v", created.CreatedAt, updated.CreatedAt)
	}
}

func TestTaskService_Update_BadEnums(t *testing.T) {
	svc := newTestTaskService(newStubTaskRepo())

	created, err := svc.Create(context.Background(), "u1", ports.CreateTaskInput{Title: "x"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	bad := "urgent"
	var ve *domain.ValidationError
	if _, err := svc.Update(context.Background(), "u1", created.ID, ports.UpdateTaskInput{Priority: &bad}); !errors.As(err, &ve) || ve.Field != "priority" {
		t.Fatalf("expected priority validation error, got %v", err)
	}

	badStatus := "done"
	if _, err := svc.Update(context.Background(), "u1", created.ID, ports.UpdateTaskInput{Status: &badStatus}); !errors.As(err, &ve) || ve.Field != "status" {
		t.Fatalf("expected status validation error, got %v", err)
	}

	empty := "  "
	if _, err := svc.Update(context.Background(), "u1", created.ID, ports.UpdateTaskInput{Title: &empty}); !errors.As(err, &ve) || ve.Field != "title" {
		t.Fatalf("expected title validation error, got %v", err)
	}
}

func TestTaskService_SetStatus_ToggleRoundTrip(t *testing.T) {
	svc := newTestTaskService(newStubTaskRepo())

	created, err := svc.Create(context.Background(), "u1", ports.CreateTaskInput{Title: "toggle me"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	completed, err := svc.SetStatus(context.Background(), "u1", created.ID, "completed")
	if err != nil {
		t.Fatalf("set status failed: %v", err)
	}
	if completed.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}

	back, err := svc.SetStatus(context.Background(), "u1", created.ID, "pending")
	if err != nil {
		t.Fatalf("set status failed: %v", err)
	}
	if back.Status != created.Status {
		t.Fatalf("toggle did not round-trip: %s", back.Status)
	}

	if _, err := svc.SetStatus(context.Background(), "u1", created.ID, "archived"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestTaskService_Delete_ThenGetNotFound(t *testing.T) {
	svc := newTestTaskService(newStubTaskRepo())

	created, err := svc.Create(context.Background(), "u1", ports.CreateTaskInput{Title: "ephemeral"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.Delete(context.Background(), "u1", created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.Get(context.Background(), "u1", created.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound after delete, got %v", err)
	}
	if err := svc.Delete(context.Background(), "u1", created.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound on second delete, got %v", err)
	}
}
