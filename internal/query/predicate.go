package query

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdeck-api/internal/domain"
)

// ValueSeparator splits the candidates of an enumerated filter value.
const ValueSeparator = ","

// Expr is a boolean expression over a task row. A nil Expr means "no filter"
// and matches every row.
//
// Expressions render to SQL with positional placeholders and can also be
// evaluated against an in-memory row, so every store sees the same semantics.
type Expr interface {
	// Matches reports whether t satisfies the expression.
	Matches(t domain.Task) bool

	writeSQL(w *sqlWriter)
}

// Eq is an equality test against a single value.
type Eq struct {
	Column Column
	Value  string
}

// Matches implements Expr.
func (e Eq) Matches(t domain.Task) bool {
	return e.Column.textValue(t) == e.Value
}

func (e Eq) writeSQL(w *sqlWriter) {
	w.write(e.Column.Name)
	if e.Column.Kind == KindID {
		if _, err := uuid.Parse(e.Value); err != nil {
			// A malformed id matches no row rather than failing the uuid cast.
			w.write("::text")
		}
	}
	w.write(" = ")
	w.arg(e.Value)
}

// Contains is a substring test. The rendered pattern is %Value% with LIKE
// metacharacters in Value escaped.
type Contains struct {
	Column        Column
	Value         string
	CaseSensitive bool
}

// Matches implements Expr.
func (e Contains) Matches(t domain.Task) bool {
	v := e.Column.textValue(t)
	if e.CaseSensitive {
		return strings.Contains(v, e.Value)
	}
	return strings.Contains(strings.ToLower(v), strings.ToLower(e.Value))
}

func (e Contains) writeSQL(w *sqlWriter) {
	op := " ILIKE "
	if e.CaseSensitive {
		op = " LIKE "
	}
	w.write(e.Column.Name)
	w.write(op)
	w.arg("%" + escapeLike(e.Value) + "%")
	w.write(` ESCAPE '\'`)
}

// Bound is an inclusive lower (AtLeast) or upper (AtMost) bound on a time column.
type Bound struct {
	Column Column
	At     time.Time
	Upper  bool
}

// Matches implements Expr.
func (e Bound) Matches(t domain.Task) bool {
	if e.Column.time == nil {
		return false
	}
	c := e.Column.time(t).Compare(e.At)
	if e.Upper {
		return c <= 0
	}
	return c >= 0
}

func (e Bound) writeSQL(w *sqlWriter) {
	w.write(e.Column.Name)
	if e.Upper {
		w.write(" <= ")
	} else {
		w.write(" >= ")
	}
	w.arg(e.At)
}

// And is the conjunction of its operands.
type And []Expr

// Matches implements Expr.
func (e And) Matches(t domain.Task) bool {
	for _, sub := range e {
		if !sub.Matches(t) {
			return false
		}
	}
	return true
}

func (e And) writeSQL(w *sqlWriter) {
	w.group(" AND ", e)
}

// Or is the disjunction of its operands.
type Or []Expr

// Matches implements Expr.
func (e Or) Matches(t domain.Task) bool {
	for _, sub := range e {
		if sub.Matches(t) {
			return true
		}
	}
	return false
}

func (e Or) writeSQL(w *sqlWriter) {
	w.group(" OR ", e)
}

// Selectable builds the predicate for an enumerated column. value may carry
// several candidates separated by ValueSeparator; the result is an OR of
// equality tests. Returns nil when no candidate is left after trimming.
// Id candidates are normalised to the canonical lower-case form.
func Selectable(col Column, value string) Expr {
	var candidates Or
	for _, part := range strings.Split(value, ValueSeparator) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if col.Kind == KindID {
			if id, err := uuid.Parse(part); err == nil {
				part = id.String()
			}
		}
		candidates = append(candidates, Eq{Column: col, Value: part})
	}

	switch len(candidates) {
	case 0:
		return nil
	case 1:
		return candidates[0]
	default:
		return candidates
	}
}

// Substring builds a substring predicate for a free-text column.
// Returns nil for an empty value.
func Substring(col Column, value string, caseSensitive bool) Expr {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return Contains{Column: col, Value: value, CaseSensitive: caseSensitive}
}

// AtLeast returns an inclusive lower bound, or nil when from is nil.
func AtLeast(col Column, from *time.Time) Expr {
	if from == nil {
		return nil
	}
	return Bound{Column: col, At: *from}
}

// AtMost returns an inclusive upper bound, or nil when to is nil.
func AtMost(col Column, to *time.Time) Expr {
	if to == nil {
		return nil
	}
	return Bound{Column: col, At: *to, Upper: true}
}

// FromTerm builds the predicate for a caller-supplied filter term.
// Unknown fields, time columns and empty values yield nil.
//
// Id columns are always matched exactly. Otherwise, when the term carries no
// mode, enumerated columns are matched exactly and text columns by
// case-insensitive substring.
func FromTerm(term domain.FilterTerm) Expr {
	col, ok := LookupColumn(term.Field)
	if !ok || col.Kind == KindTime {
		return nil
	}
	if col.Kind == KindID {
		return Selectable(col, term.Value)
	}

	switch term.Mode {
	case domain.MatchExact:
		return Selectable(col, term.Value)
	case domain.MatchContains:
		return Substring(col, term.Value, false)
	case domain.MatchContainsCaseSensitive:
		return Substring(col, term.Value, true)
	}

	if col.Kind == KindText {
		return Substring(col, term.Value, false)
	}
	return Selectable(col, term.Value)
}

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
