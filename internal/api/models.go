package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdeck-api/internal/domain"
	"github.com/phrazzld/taskdeck-api/internal/events"
)

// TaskResponse is one task row of a list response.
type TaskResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Priority  string    `json:"priority"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskListResponse is the body of GET /api/tasks.
type TaskListResponse struct {
	Rows      []TaskResponse `json:"rows"`
	Page      int            `json:"page"`
	PerPage   int            `json:"per_page"`
	PageCount int            `json:"page_count"`
}

// CountResponse is the body of GET /api/tasks/count.
type CountResponse struct {
	Field string `json:"field"`
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CountsResponse is the body of the per-value aggregate endpoints.
type CountsResponse struct {
	Field  string         `json:"field"`
	Counts map[string]int `json:"counts"`
}

// InvalidateRequest defines the payload of POST /api/cache/invalidate.
type InvalidateRequest struct {
	Tags []string `json:"tags" validate:"required,min=1,max=32,dive,required,max=64"`
}

// InvalidateResponse echoes the tags that were dropped.
type InvalidateResponse struct {
	Invalidated []string `json:"invalidated"`
}

// MutationRequest defines the payload of POST /api/tasks/mutations.
type MutationRequest struct {
	Kind   events.MutationKind `json:"kind"    validate:"required,oneof=created updated deleted"`
	TaskID uuid.UUID           `json:"task_id" validate:"required"`
	Before *events.TaskState   `json:"before,omitempty"`
	After  *events.TaskState   `json:"after,omitempty"`
}

// MutationResponse acknowledges an accepted mutation notification.
type MutationResponse struct {
	EventID uuid.UUID `json:"event_id"`
	Tags    []string  `json:"tags"`
}

func toTaskResponse(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:        t.ID,
		Code:      t.Code,
		Title:     t.Title,
		Status:    string(t.Status),
		Priority:  string(t.Priority),
		Label:     string(t.Label),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
