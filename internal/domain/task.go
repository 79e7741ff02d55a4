package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the workflow state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusCanceled   TaskStatus = "canceled"
	TaskStatusBacklog    TaskStatus = "backlog"
)

// TaskPriority represents how urgent a task is
type TaskPriority string

// Possible task priority values
const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// TaskLabel categorises a task
type TaskLabel string

// Possible task label values
const (
	TaskLabelBug           TaskLabel = "bug"
	TaskLabelFeature       TaskLabel = "feature"
	TaskLabelEnhancement   TaskLabel = "enhancement"
	TaskLabelDocumentation TaskLabel = "documentation"
)

// TaskStatuses lists every status in display order.
var TaskStatuses = []TaskStatus{
	TaskStatusTodo,
	TaskStatusInProgress,
	TaskStatusDone,
	TaskStatusCanceled,
	TaskStatusBacklog,
}

// TaskPriorities lists every priority from lowest to highest.
var TaskPriorities = []TaskPriority{
	TaskPriorityLow,
	TaskPriorityMedium,
	TaskPriorityHigh,
}

// TaskLabels lists every label.
var TaskLabels = []TaskLabel{
	TaskLabelBug,
	TaskLabelFeature,
	TaskLabelEnhancement,
	TaskLabelDocumentation,
}

// Task is a single row of the tasks table.
type Task struct {
	ID        uuid.UUID    `json:"id"`
	Code      string       `json:"code"`
	Title     string       `json:"title"`
	Status    TaskStatus   `json:"status"`
	Priority  TaskPriority `json:"priority"`
	Label     TaskLabel    `json:"label"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Validate checks that the enumerated fields of the task hold known values.
func (t *Task) Validate() error {
	if !t.Status.IsValid() {
		return ErrInvalidTaskStatus
	}
	if !t.Priority.IsValid() {
		return ErrInvalidTaskPriority
	}
	if !t.Label.IsValid() {
		return ErrInvalidTaskLabel
	}
	return nil
}

// IsValid reports whether s is a known TaskStatus.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone,
		TaskStatusCanceled, TaskStatusBacklog:
		return true
	default:
		return false
	}
}

// IsValid reports whether p is a known TaskPriority.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	default:
		return false
	}
}

// IsValid reports whether l is a known TaskLabel.
func (l TaskLabel) IsValid() bool {
	switch l {
	case TaskLabelBug, TaskLabelFeature, TaskLabelEnhancement, TaskLabelDocumentation:
		return true
	default:
		return false
	}
}
