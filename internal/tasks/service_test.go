package tasks

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/tasknest/tasknest/internal/apperror"
)

// memoryTaskRepo is an in-memory TaskRepository exercising the same
// owner-scoping rules as the SQL implementation.
type memoryTaskRepo struct {
	tasks map[string]*Task
}

func newMemoryTaskRepo() *memoryTaskRepo {
	return &memoryTaskRepo{tasks: make(map[string]*Task)}
}

func (m *memoryTaskRepo) Create(_ context.Context, task *Task) error {
	clone := *task
	m.tasks[task.ID] = &clone
	return nil
}

func (m *memoryTaskRepo) FindByOwnerAndID(_ context.Context, ownerID, id string) (*Task, error) {
	task, ok := m.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, apperror.NewNotFound("task not found")
	}
	clone := *task
	return &clone, nil
}

func (m *memoryTaskRepo) List(_ context.Context, ownerID string, opts ListOptions) ([]Task, int64, error) {
	var matched []Task
	for _, task := range m.tasks {
		if task.OwnerID != ownerID {
			continue
		}
		if opts.Status != "" && task.Status != opts.Status {
			continue
		}
		matched = append(matched, *task)
	}
	asc := opts.Order == OrderAsc
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			if asc {
				return matched[i].CreatedAt.Before(matched[j].CreatedAt)
			}
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		if asc {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	if opts.Offset >= len(matched) {
		return []Task{}, total, nil
	}
	end := opts.Offset + opts.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[opts.Offset:end], total, nil
}

func (m *memoryTaskRepo) Update(_ context.Context, task *Task) error {
	existing, ok := m.tasks[task.ID]
	if !ok || existing.OwnerID != task.OwnerID {
		return nil
	}
	clone := *task
	m.tasks[task.ID] = &clone
	return nil
}

func (m *memoryTaskRepo) Delete(_ context.Context, ownerID, id string) error {
	task, ok := m.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return apperror.NewNotFound("task not found")
	}
	delete(m.tasks, id)
	return nil
}

func wantAppError(t *testing.T, err error, status int) {
	t.Helper()
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error = %v, want *apperror.AppError", err)
	}
	if appErr.Status != status {
		t.Fatalf("status = %d, want %d (message: %s)", appErr.Status, status, appErr.Message)
	}
}

func mustCreate(t *testing.T, svc TaskService, ownerID string, input CreateInput) *Task {
	t.Helper()
	task, err := svc.Create(context.Background(), ownerID, input)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return task
}

func strPtr(s string) *string { return &s }

func TestCreate_Defaults(t *testing.T) {
	svc := NewTaskService(newMemoryTaskRepo())

	task := mustCreate(t, svc, "owner-1", CreateInput{Title: "  write report  "})

	if task.Title != "write report" {
		t.Errorf("Title = %q, want trimmed %q", task.Title, "write report")
	}
	if task.Status != StatusTodo {
		t.Errorf("Status = %q, want default %q", task.Status, StatusTodo)
	}
	if task.Description != nil {
		t.Errorf("Description = %v, want nil", *task.Description)
	}
	if task.ID == "" {
		t.Error("ID is empty, expected a generated UUID")
	}
	if task.OwnerID != "owner-1" {
		t.Errorf("OwnerID = %q, want %q", task.OwnerID, "owner-1")
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := NewTaskService(newMemoryTaskRepo())
	ctx := context.Background()

	longTitle := make([]byte, maxTitleLen+1)
	for i := range longTitle {
		longTitle[i] = 'a'
	}

	tests := []struct {
		name  string
		input CreateInput
	}{
		{"empty title", CreateInput{Title: ""}},
		{"whitespace title", CreateInput{Title: "   "}},
		{"title too long", CreateInput{Title: string(longTitle)}},
		{"unknown status", CreateInput{Title: "ok", Status: "BLOCKED"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "owner-1", tt.input)
			wantAppError(t, err, 400)
		})
	}
}

func TestGet_OwnershipIsolation(t *testing.T) {
	svc := NewTaskService(newMemoryTaskRepo())
	ctx := context.Background()

	task := mustCreate(t, svc, "owner-1", CreateInput{Title: "private"})

	// The owner sees it.
	if _, err := svc.Get(ctx, "owner-1", task.ID); err != nil {
		t.Fatalf("Get() as owner error = %v", err)
	}

	// Another user gets the same 404 as for a nonexistent ID.
	_, err := svc.Get(ctx, "owner-2", task.ID)
	wantAppError(t, err, 404)
	_, err = svc.Get(ctx, "owner-2", "no-such-id")
	wantAppError(t, err, 404)
}

func TestList_PaginationMeta(t *testing.T) {
	repo := newMemoryTaskRepo()
	svc := NewTaskService(repo)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		task := mustCreate(t, svc, "owner-1", CreateInput{Title: "task"})
		// Spread creation times so ordering is deterministic.
		repo.tasks[task.ID].CreatedAt = base.Add(time.Duration(i) * time.Minute)
	}

	items, meta, err := svc.List(ctx, "owner-1", ListInput{Page: 3, Limit: 10})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 5 {
		t.Errorf("len(items) = %d, want 5", len(items))
	}
	if meta.Total != 25 {
		t.Errorf("Total = %d, want 25", meta.Total)
	}
	if meta.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", meta.TotalPages)
	}
	if meta.Page != 3 || meta.Limit != 10 {
		t.Errorf("Page/Limit = %d/%d, want 3/10", meta.Page, meta.Limit)
	}
}

func TestList_SinglePartialPage(t *testing.T) {
	svc := NewTaskService(newMemoryTaskRepo())

	mustCreate(t, svc, "owner-1", CreateInput{Title: "one"})
	mustCreate(t, svc, "owner-1", CreateInput{Title: "two"})

	items, meta, err := svc.List(context.Background(), "owner-1", ListInput{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len(items) = %d, want 2", len(items))
	}
	if meta.Page != defaultPage || meta.Limit != defaultLimit {
		t.Errorf("Page/Limit = %d/%d, want defaults %d/%d", meta.Page, meta.Limit, defaultPage, defaultLimit)
	}
	if meta.TotalPages != 1 {
		t.Errorf("TotalPages = %d, want 1", meta.TotalPages)
	}
}

func TestList_PagePastEnd(t *testing.T) {
	svc := NewTaskService(newMemoryTaskRepo())
	mustCreate(t, svc, "owner-1", CreateInput{Title: "only one"})

	items, meta, err := svc.List(context.Background(), "owner-1", ListInput{Page: 99, Limit: 10})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("len(items) = %d, want 0", len(items))
	}
	if meta.Total != 1 || meta.TotalPages != 1 {
		t.Errorf("Total/TotalPages = %d/%d, want 1/1", meta.Total, meta.TotalPages)
	}
}

func TestList_ClampsAndDefaults(t *testing.T) {
	svc := NewTaskService(newMemoryTaskRepo())

	_, meta, err := svc.List(context.Background(), "owner-1", ListInput{Page: -3, Limit: 10000})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if meta.Page != 1 {
		t.Errorf("Page = %d, want clamped 1", meta.Page)
	}
	if meta.Limit != maxLimit {
		t.Errorf("Limit = %d, want clamped %d", meta.Limit, maxLimit)
	}
}

func TestList_StatusFilter(t *testing.T) {
	svc := NewTaskService(newMemoryTaskRepo())
	ctx := context.Background()

	mustCreate(t, svc, "owner-1", CreateInput{Title: "a", Status: StatusTodo})
	mustCreate(t, svc, "owner-1", CreateInput{Title: "b", Status: StatusDone})
	mustCreate(t, svc, "owner-1", CreateInput{Title: "c", Status: StatusDone})

	items, meta, err := svc.List(ctx, "owner-1", ListInput{Status: StatusDone})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 2 || meta.Total != 2 {
		t.Errorf("items/Total = %d/%d, want 2/2", len(items), meta.Total)
	}

	_, _, err = svc.List(ctx, "owner-1", ListInput{Status: "NOPE"})
	wantAppError(t, err, 400)
}

func TestList_OrderDirection(t *testing.T) {
	repo := newMemoryTaskRepo()
	svc := NewTaskService(repo)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"oldest", "middle", "newest"} {
		task := mustCreate(t, svc, "owner-1", CreateInput{Title: title})
		repo.tasks[task.ID].CreatedAt = base.Add(time.Duration(i) * time.Hour)
	}

	// Default is newest first.
	items, _, err := svc.List(ctx, "owner-1", ListInput{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if items[0].Title != "newest" || items[2].Title != "oldest" {
		t.Errorf("default order = [%s %s %s], want newest first",
			items[0].Title, items[1].Title, items[2].Title)
	}

	// ASC flips it; lowercase input is accepted.
	for _, order := range []string{"ASC", "asc"} {
		items, _, err = svc.List(ctx, "owner-1", ListInput{Order: order})
		if err != nil {
			t.Fatalf("List(order=%s) error = %v", order, err)
		}
		if items[0].Title != "oldest" || items[2].Title != "newest" {
			t.Errorf("order=%s = [%s %s %s], want oldest first",
				order, items[0].Title, items[1].Title, items[2].Title)
		}
	}

	_, _, err = svc.List(ctx, "owner-1", ListInput{Order: "SIDEWAYS"})
	wantAppError(t, err, 400)
}

func TestList_IsolatedBetweenOwners(t *testing.T) {
	svc := NewTaskService(newMemoryTaskRepo())
	ctx := context.Background()

	mustCreate(t, svc, "owner-1", CreateInput{Title: "mine"})
	mustCreate(t, svc, "owner-2", CreateInput{Title: "theirs"})

	items, meta, err := svc.List(ctx, "owner-1", ListInput{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 1 || meta.Total != 1 {
		t.Fatalf("items/Total = %d/%d, want 1/1", len(items), meta.Total)
	}
	if items[0].Title != "mine" {
		t.Errorf("Title = %q, want %q", items[0].Title, "mine")
	}
}

func TestUpdate_PartialMerge(t *testing.T) {
	svc := NewTaskService(newMemoryTaskRepo())
	ctx := context.Background()

	task := mustCreate(t, svc, "owner-1", CreateInput{
		Title:       "original",
		Description: strPtr("keep me"),
	})

	doing := StatusDoing
	updated, err := svc.Update(ctx, "owner-1", task.ID, UpdateInput{Status: &doing})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Status != StatusDoing {
		t.Errorf("Status = %q, want %q", updated.Status, StatusDoing)
	}
	if updated.Title != "original" {
		t.Errorf("Title = %q, want untouched %q", updated.Title, "original")
	}
	if updated.Description == nil || *updated.Description != "keep me" {
		t.Error("Description was not preserved across a partial update")
	}
}

func TestUpdate_Validation(t *testing.T) {
	svc := NewTaskService(newMemoryTaskRepo())
	ctx := context.Background()

	task := mustCreate(t, svc, "owner-1", CreateInput{Title: "fine"})

	_, err := svc.Update(ctx, "owner-1", task.ID, UpdateInput{Title: strPtr("  ")})
	wantAppError(t, err, 400)

	bad := Status("WAITING")
	_, err = svc.Update(ctx, "owner-1", task.ID, UpdateInput{Status: &bad})
	wantAppError(t, err, 400)
}

func TestUpdate_OtherOwner(t *testing.T) {
	svc := NewTaskService(newMemoryTaskRepo())

	task := mustCreate(t, svc, "owner-1", CreateInput{Title: "private"})

	_, err := svc.Update(context.Background(), "owner-2", task.ID, UpdateInput{Title: strPtr("hijack")})
	wantAppError(t, err, 404)
}

func TestDelete(t *testing.T) {
	svc := NewTaskService(newMemoryTaskRepo())
	ctx := context.Background()

	task := mustCreate(t, svc, "owner-1", CreateInput{Title: "doomed"})

	// Another owner cannot delete it.
	err := svc.Delete(ctx, "owner-2", task.ID)
	wantAppError(t, err, 404)

	if err := svc.Delete(ctx, "owner-1", task.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	// Gone for real, and a second delete is a 404.
	_, err = svc.Get(ctx, "owner-1", task.ID)
	wantAppError(t, err, 404)
	err = svc.Delete(ctx, "owner-1", task.ID)
	wantAppError(t, err, 404)
}
