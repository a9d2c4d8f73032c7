package model

import "time"

// TaskStatus is the workflow state of a project task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskBlocked    TaskStatus = "blocked"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskDone, TaskBlocked:
		return true
	}
	return false
}

// TaskPriority is the urgency of a project task.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// Valid reports whether p is a known task priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

// TaskItem is a unit of work within a project workspace.
type TaskItem struct {
	ID          string       `json:"id,omitempty" db:"id" yaml:"id,omitempty"`
	ProjectID   string       `json:"project_id,omitempty" db:"project_id" yaml:"project_id,omitempty"`
	Title       string       `json:"title" db:"title" yaml:"title"`
	Description string       `json:"description" db:"description" yaml:"description"`
	Status      TaskStatus   `json:"status" db:"status" yaml:"status"`
	Priority    TaskPriority `json:"priority" db:"priority" yaml:"priority"`

	// EstimatedHours is nil when no estimate is known.
	EstimatedHours *float64 `json:"estimated_hours" db:"estimated_hours" yaml:"estimated_hours"`

	// DueDate is an ISO-8601 date (YYYY-MM-DD), nil when unset.
	DueDate *string `json:"due_date" db:"due_date" yaml:"due_date"`

	Tags         StringList `json:"tags" db:"tags" yaml:"tags"`
	Dependencies StringList `json:"dependencies" db:"dependencies" yaml:"dependencies"`
	Position     int        `json:"position" db:"position" yaml:"position"`
	CreatedAt    time.Time  `json:"created_at,omitzero" db:"created_at" yaml:"-"`
	UpdatedAt    time.Time  `json:"updated_at,omitzero" db:"updated_at" yaml:"-"`
}
