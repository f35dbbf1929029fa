package tasks

import "time"

// Task statuses double as kanban board columns.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusReview     = "review"
	StatusDone       = "done"
)

// BoardColumns lists statuses in board display order.
func BoardColumns() []string {
	return []string{StatusTodo, StatusInProgress, StatusReview, StatusDone}
}

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task represents a unit of work. A task has exactly one creator and
// exactly one assignee, possibly the same user.
type Task struct {
	ID           int64
	Title        string
	Description  string
	Status       string
	Priority     string
	CreatorID    int64
	AssigneeID   int64
	DepartmentID *int64
	DueDate      *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Departments of the creator and assignee at read time, used by
	// the access gate for manager-level checks.
	CreatorDepartmentID  *int64
	AssigneeDepartmentID *int64
}
