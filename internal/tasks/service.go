package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tasknest/tasknest/internal/apperror"
	"github.com/tasknest/tasknest/internal/response"
)

// Listing defaults and bounds.
const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
	maxTitleLen  = 255
)

// TaskService defines the business logic contract for tasks. Every method
// takes the calling user's ID; a caller can never see or touch another
// user's tasks.
type TaskService interface {
	Create(ctx context.Context, ownerID string, input CreateInput) (*Task, error)
	Get(ctx context.Context, ownerID, id string) (*Task, error)
	List(ctx context.Context, ownerID string, input ListInput) ([]Task, *response.Pagination, error)
	Update(ctx context.Context, ownerID, id string, input UpdateInput) (*Task, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type taskService struct {
	repo TaskRepository
}

// NewTaskService creates a new task service.
func NewTaskService(repo TaskRepository) TaskService {
	return &taskService{repo: repo}
}

func (s *taskService) Create(ctx context.Context, ownerID string, input CreateInput) (*Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperror.NewValidation("title is required")
	}
	if len(title) > maxTitleLen {
		return nil, apperror.NewValidation("title must be at most 255 characters")
	}

	status := input.Status
	if status == "" {
		status = StatusTodo
	}
	if !status.Valid() {
		return nil, apperror.NewValidation("status must be one of TODO, DOING, DONE")
	}

	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: input.Description,
		Status:      status,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating task: %w", err))
	}

	slog.Debug("task created",
		slog.String("task_id", task.ID),
		slog.String("owner_id", ownerID),
	)

	return task, nil
}

func (s *taskService) Get(ctx context.Context, ownerID, id string) (*Task, error) {
	task, err := s.repo.FindByOwnerAndID(ctx, ownerID, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("fetching task: %w", err))
	}
	return task, nil
}

func (s *taskService) List(ctx context.Context, ownerID string, input ListInput) ([]Task, *response.Pagination, error) {
	page := input.Page
	if page < 1 {
		page = defaultPage
	}
	limit := input.Limit
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	if input.Status != "" && !input.Status.Valid() {
		return nil, nil, apperror.NewValidation("status must be one of TODO, DOING, DONE")
	}

	order := strings.ToUpper(strings.TrimSpace(input.Order))
	if order == "" {
		order = OrderDesc
	}
	if order != OrderAsc && order != OrderDesc {
		return nil, nil, apperror.NewValidation("order must be ASC or DESC")
	}

	items, total, err := s.repo.List(ctx, ownerID, ListOptions{
		Status: input.Status,
		Order:  order,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, nil, apperror.NewInternal(fmt.Errorf("listing tasks: %w", err))
	}

	// A page past the end is not an error: empty items, truthful meta.
	return items, response.NewPagination(page, limit, total), nil
}

func (s *taskService) Update(ctx context.Context, ownerID, id string, input UpdateInput) (*Task, error) {
	task, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperror.NewValidation("title cannot be empty")
		}
		if len(title) > maxTitleLen {
			return nil, apperror.NewValidation("title must be at most 255 characters")
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, apperror.NewValidation("status must be one of TODO, DOING, DONE")
		}
		task.Status = *input.Status
	}

	task.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("updating task: %w", err))
	}

	return task, nil
}

func (s *taskService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		if apperror.IsNotFound(err) {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("deleting task: %w", err))
	}

	slog.Debug("task deleted",
		slog.String("task_id", id),
		slog.String("owner_id", ownerID),
	)

	return nil
}
