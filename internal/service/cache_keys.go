package service

import (
	"time"

	"github.com/phrazzld/taskdeck-api/internal/domain"
)

// AggregateTTL is how long an aggregate count stays cached.
const AggregateTTL = 900 * time.Second

// Cache tags. Every aggregate entry carries TagAggregateInvalidation plus one
// entry-specific tag.
const (
	// TagAggregateInvalidation drops every cached aggregate.
	TagAggregateInvalidation = "aggregate-invalidation"
	// TagStatusCounts drops the grouped status counts.
	TagStatusCounts = "status-counts"
	// TagPriorityCounts drops the grouped priority counts.
	TagPriorityCounts = "priority-counts"
)

// Families of the per-value tags.
const (
	tagFamilyStatus   = "status"
	tagFamilyPriority = "priority"
)

// TagFamilies lists the families of every tag aggregates are cached under.
func TagFamilies() []string {
	return []string{
		tagFamilyStatus,
		tagFamilyPriority,
		TagStatusCounts,
		TagPriorityCounts,
		TagAggregateInvalidation,
	}
}

const (
	keyStatusCounts   = "task-status-counts"
	keyPriorityCounts = "task-priority-counts"
)

// StatusTag is the tag of the cached count for a single status value.
func StatusTag(s domain.TaskStatus) string {
	return tagFamilyStatus + ":" + string(s)
}

// PriorityTag is the tag of the cached count for a single priority value.
func PriorityTag(p domain.TaskPriority) string {
	return tagFamilyPriority + ":" + string(p)
}

func statusCountKey(s domain.TaskStatus) string {
	return "task-count:status:" + string(s)
}

func priorityCountKey(p domain.TaskPriority) string {
	return "task-count:priority:" + string(p)
}
