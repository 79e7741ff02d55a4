package domain

import "time"

// MatchMode selects how a filter term is compared against its column.
type MatchMode string

// Supported match modes
const (
	// MatchExact compares an enumerated column against one or more
	// comma-separated candidates.
	MatchExact MatchMode = "exact"
	// MatchContains performs a case-insensitive substring match.
	MatchContains MatchMode = "contains"
	// MatchContainsCaseSensitive performs a case-sensitive substring match.
	MatchContainsCaseSensitive MatchMode = "contains_cs"
)

// Combinator decides how multiple filter terms are merged.
type Combinator string

// Supported combinators. Anything else is treated as CombinatorAnd.
const (
	CombinatorAnd Combinator = "and"
	CombinatorOr  Combinator = "or"
)

// FilterTerm is one field/value pair taken from the caller.
// A term whose Field is not a known task column is ignored.
type FilterTerm struct {
	Field string    `json:"field"`
	Value string    `json:"value"`
	Mode  MatchMode `json:"mode,omitempty"`
}

// DateRange bounds the creation time of listed tasks. Both ends are inclusive
// and either may be nil.
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.From == nil && r.To == nil
}

// QueryRequest describes one page of the task list.
type QueryRequest struct {
	Page       int          `json:"page"`
	PerPage    int          `json:"per_page"`
	Sort       string       `json:"sort,omitempty"`
	Filters    []FilterTerm `json:"filters,omitempty"`
	Combinator Combinator   `json:"combinator,omitempty"`
	DateRange  DateRange    `json:"date_range,omitempty"`
}

// Validate checks the pagination preconditions of the request.
func (q QueryRequest) Validate() error {
	if q.Page < 1 {
		return NewValidationError("page", "must be at least 1", ErrInvalidPagination)
	}
	if q.PerPage < 1 {
		return NewValidationError("per_page", "must be at least 1", ErrInvalidPagination)
	}
	return nil
}

// QueryResult is one page of tasks plus the number of pages available.
// It is built per request and never cached.
type QueryResult struct {
	Rows      []Task `json:"rows"`
	PageCount int    `json:"page_count"`
}

// EmptyQueryResult returns the result served when a listing cannot be computed.
func EmptyQueryResult() QueryResult {
	return QueryResult{Rows: []Task{}, PageCount: 0}
}
