package query

import (
	"strings"
	"time"

	"github.com/phrazzld/taskdeck-api/internal/domain"
)

// ColumnKind describes how a column may be filtered.
type ColumnKind int

// Column kinds
const (
	// KindText columns are matched by substring.
	KindText ColumnKind = iota
	// KindEnum columns hold one of a fixed set of values and are matched exactly.
	KindEnum
	// KindTime columns are only filtered through date bounds.
	KindTime
	// KindID is the primary key; matched exactly and used as the sort tie-breaker.
	KindID
)

// Column is a recognised column of the tasks table.
type Column struct {
	// Name is the SQL column name.
	Name string
	Kind ColumnKind

	text func(t domain.Task) string
	time func(t domain.Task) time.Time
}

// Selectable reports whether the column holds enumerated values.
func (c Column) Selectable() bool {
	return c.Kind == KindEnum
}

// textValue returns the column value of t as a string. Time columns return
// an RFC3339 rendering.
func (c Column) textValue(t domain.Task) string {
	if c.text != nil {
		return c.text(t)
	}
	if c.time != nil {
		return c.time(t).UTC().Format(time.RFC3339Nano)
	}
	return ""
}

// Value returns the column value of t as it would be read from storage.
func (c Column) Value(t domain.Task) string {
	return c.textValue(t)
}

// compare orders a and b by this column.
func (c Column) compare(a, b domain.Task) int {
	if c.time != nil {
		return c.time(a).Compare(c.time(b))
	}
	return strings.Compare(c.textValue(a), c.textValue(b))
}

// Recognised columns of the tasks table.
var (
	ColumnID = Column{Name: "id", Kind: KindID,
		text: func(t domain.Task) string { return t.ID.String() }}
	ColumnCode = Column{Name: "code", Kind: KindText,
		text: func(t domain.Task) string { return t.Code }}
	ColumnTitle = Column{Name: "title", Kind: KindText,
		text: func(t domain.Task) string { return t.Title }}
	ColumnStatus = Column{Name: "status", Kind: KindEnum,
		text: func(t domain.Task) string { return string(t.Status) }}
	ColumnPriority = Column{Name: "priority", Kind: KindEnum,
		text: func(t domain.Task) string { return string(t.Priority) }}
	ColumnLabel = Column{Name: "label", Kind: KindEnum,
		text: func(t domain.Task) string { return string(t.Label) }}
	ColumnCreatedAt = Column{Name: "created_at", Kind: KindTime,
		time: func(t domain.Task) time.Time { return t.CreatedAt }}
	ColumnUpdatedAt = Column{Name: "updated_at", Kind: KindTime,
		time: func(t domain.Task) time.Time { return t.UpdatedAt }}
)

// columns is the static allow-list of field names accepted from callers.
// camelCase aliases are accepted for the timestamp columns.
var columns = map[string]Column{
	"id":         ColumnID,
	"code":       ColumnCode,
	"title":      ColumnTitle,
	"status":     ColumnStatus,
	"priority":   ColumnPriority,
	"label":      ColumnLabel,
	"created_at": ColumnCreatedAt,
	"createdAt":  ColumnCreatedAt,
	"updated_at": ColumnUpdatedAt,
	"updatedAt":  ColumnUpdatedAt,
}

// LookupColumn returns the column for a caller-supplied field name.
func LookupColumn(field string) (Column, bool) {
	c, ok := columns[field]
	return c, ok
}
