// Package tasks implements per-user task management: CRUD over tasks that
// are always scoped to their owner, with paginated listing and status
// filtering.
package tasks

import "time"

// Status is the lifecycle state of a task.
type Status string

const (
	StatusTodo  Status = "TODO"
	StatusDoing Status = "DOING"
	StatusDone  Status = "DONE"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusDoing, StatusDone:
		return true
	}
	return false
}

// Sort directions for listing by creation time.
const (
	OrderAsc  = "ASC"
	OrderDesc = "DESC"
)

// Task represents a single task owned by a user. OwnerID is never exposed
// through the API; every query is already scoped to the caller.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Status      Status    `json:"status"`
	OwnerID     string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateRequest is the JSON payload for creating a task.
type CreateRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
}

// UpdateRequest is the JSON payload for updating a task. All fields are
// optional; absent fields keep their current value.
type UpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// CreateInput carries validated task creation data into the service.
type CreateInput struct {
	Title       string
	Description *string
	Status      Status
}

// UpdateInput carries the partial update into the service. Nil fields are
// left untouched.
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *Status
}

// ListInput carries pagination, filtering, and sort direction for task
// listing.
type ListInput struct {
	Page   int
	Limit  int
	Status Status // empty means no filter
	Order  string // ASC or DESC by creation time; empty means DESC
}
