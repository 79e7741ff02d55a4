package store

import (
	"context"

	"github.com/phrazzld/taskdeck-api/internal/domain"
	"github.com/phrazzld/taskdeck-api/internal/query"
)

// TaskPage is one page of tasks together with the total number of rows
// matching the filter, both read from the same snapshot.
type TaskPage struct {
	Rows  []domain.Task
	Total int
}

// TaskStore defines the read-only interface for task data.
// Version: 1.0
type TaskStore interface {
	// ListPage returns the rows selected by plan and the total number of rows
	// matching plan.Where, ignoring limit and offset. Both reads happen
	// atomically so Total always agrees with Rows.
	ListPage(ctx context.Context, plan query.Plan) (*TaskPage, error)

	// CountByColumn returns the number of rows per distinct value of an
	// enumerated column. Values with no rows are absent from the map.
	// A non-nil where narrows the rows being counted.
	CountByColumn(ctx context.Context, col query.Column, where query.Expr) (map[string]int, error)
}
