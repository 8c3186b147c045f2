package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tasknest/tasknest/internal/apperror"
)

// TaskRepository defines persistence for tasks. Every method that touches an
// existing row takes the owner's ID; there is deliberately no way to load a
// task without it.
type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	FindByOwnerAndID(ctx context.Context, ownerID, id string) (*Task, error)
	List(ctx context.Context, ownerID string, opts ListOptions) ([]Task, int64, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, ownerID, id string) error
}

// ListOptions narrows, orders, and pages a listing query.
type ListOptions struct {
	Status Status // empty means all statuses
	Order  string // OrderAsc or OrderDesc
	Limit  int
	Offset int
}

// taskRepository implements TaskRepository backed by MariaDB.
type taskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *Task) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, status, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Title, task.Description, task.Status, task.OwnerID,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (r *taskRepository) FindByOwnerAndID(ctx context.Context, ownerID, id string) (*Task, error) {
	var task Task
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, description, status, owner_id, created_at, updated_at
		FROM tasks
		WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	).Scan(&task.ID, &task.Title, &task.Description, &task.Status,
		&task.OwnerID, &task.CreatedAt, &task.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// Absent and owned-by-someone-else are indistinguishable on purpose.
		return nil, apperror.NewNotFound("task not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying task: %w", err)
	}
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context, ownerID string, opts ListOptions) ([]Task, int64, error) {
	where := "WHERE owner_id = ?"
	args := []any{ownerID}
	if opts.Status != "" {
		where += " AND status = ?"
		args = append(args, opts.Status)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tasks "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting tasks: %w", err)
	}

	// The direction is interpolated, never the raw input: anything other
	// than an explicit ASC collapses to DESC.
	direction := "DESC"
	if opts.Order == OrderAsc {
		direction = "ASC"
	}

	query := `
		SELECT id, title, description, status, owner_id, created_at, updated_at
		FROM tasks ` + where + `
		ORDER BY created_at ` + direction + `, id ` + direction + `
		LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		var task Task
		if err := rows.Scan(&task.ID, &task.Title, &task.Description, &task.Status,
			&task.OwnerID, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating tasks: %w", err)
	}

	return tasks, total, nil
}

func (r *taskRepository) Update(ctx context.Context, task *Task) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, status = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		task.Title, task.Description, task.Status, task.UpdatedAt,
		task.ID, task.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, ownerID, id string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM tasks WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if n == 0 {
		return apperror.NewNotFound("task not found")
	}
	return nil
}
