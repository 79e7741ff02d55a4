package query

import (
	"math"
	"sort"
	"strings"

	"github.com/phrazzld/taskdeck-api/internal/domain"
)

// SortSeparator splits a sort string into column and direction, e.g. "title.asc".
const SortSeparator = "."

// SortTerm is one column of an ORDER BY clause.
type SortTerm struct {
	Column Column
	Desc   bool
}

// DefaultSort is applied when the caller's sort column is absent or unknown:
// newest first, with the id as tie-breaker so pages never overlap.
var DefaultSort = []SortTerm{
	{Column: ColumnCreatedAt, Desc: true},
	{Column: ColumnID, Desc: true},
}

// Plan is a fully resolved listing query.
type Plan struct {
	Where   Expr
	OrderBy []SortTerm
	Limit   int
	Offset  int
}

// Combine merges optional predicates with the given combinator. nil
// predicates are dropped; with none left the result is nil (match all).
// CombinatorOr yields a disjunction, anything else a conjunction.
func Combine(c domain.Combinator, exprs ...Expr) Expr {
	present := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		if e != nil {
			present = append(present, e)
		}
	}

	switch len(present) {
	case 0:
		return nil
	case 1:
		return present[0]
	}

	if c == domain.CombinatorOr {
		return Or(present)
	}
	return And(present)
}

// ResolveSort parses "column.direction". Unknown or missing columns fall back
// to DefaultSort. Any direction other than "asc" sorts descending. The id
// column is appended as tie-breaker in the same direction.
func ResolveSort(raw string) []SortTerm {
	field, dir, _ := strings.Cut(strings.TrimSpace(raw), SortSeparator)
	col, ok := LookupColumn(field)
	if !ok {
		return DefaultSort
	}

	desc := !strings.EqualFold(dir, "asc")
	terms := []SortTerm{{Column: col, Desc: desc}}
	if col.Kind != KindID {
		terms = append(terms, SortTerm{Column: ColumnID, Desc: desc})
	}
	return terms
}

// Offset returns the row offset of a page, never negative. An offset that
// does not fit in an int saturates at math.MaxInt, which is past every row.
func Offset(page, perPage int) int {
	if page <= 1 || perPage <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/perPage {
		return math.MaxInt
	}
	return (page - 1) * perPage
}

// PageCount returns ceil(total/perPage). It is 0 when total is 0 or perPage
// is not positive.
func PageCount(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// Compose turns a request into a Plan. Filter terms are merged with the
// request combinator; the date range always narrows the result (AND) and
// applies to created_at.
func Compose(req domain.QueryRequest) Plan {
	terms := make([]Expr, 0, len(req.Filters))
	for _, f := range req.Filters {
		terms = append(terms, FromTerm(f))
	}

	where := Combine(domain.CombinatorAnd,
		Combine(req.Combinator, terms...),
		AtLeast(ColumnCreatedAt, req.DateRange.From),
		AtMost(ColumnCreatedAt, req.DateRange.To),
	)

	return Plan{
		Where:   where,
		OrderBy: ResolveSort(req.Sort),
		Limit:   req.PerPage,
		Offset:  Offset(req.Page, req.PerPage),
	}
}

// SortTasks orders tasks in place according to terms. It is the in-memory
// counterpart of OrderBy.
func SortTasks(tasks []domain.Task, terms []SortTerm) {
	sort.SliceStable(tasks, func(i, j int) bool {
		for _, t := range terms {
			c := t.Column.compare(tasks[i], tasks[j])
			if c == 0 {
				continue
			}
			if t.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}
