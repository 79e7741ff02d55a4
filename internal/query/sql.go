package query

import (
	"strconv"
	"strings"
)

// sqlWriter accumulates SQL text and its positional ($n) arguments.
type sqlWriter struct {
	sb   strings.Builder
	args []any
	base int
}

func (w *sqlWriter) write(s string) {
	w.sb.WriteString(s)
}

func (w *sqlWriter) arg(v any) {
	w.args = append(w.args, v)
	w.sb.WriteString("$")
	w.sb.WriteString(strconv.Itoa(w.base + len(w.args)))
}

func (w *sqlWriter) group(sep string, exprs []Expr) {
	w.write("(")
	for i, e := range exprs {
		if i > 0 {
			w.write(sep)
		}
		e.writeSQL(w)
	}
	w.write(")")
}

// Where renders e as a SQL boolean expression. Placeholders are numbered
// from argOffset+1 so the fragment can follow arguments already bound by the
// caller. A nil expression renders as TRUE with no arguments.
func Where(e Expr, argOffset int) (string, []any) {
	if e == nil {
		return "TRUE", nil
	}
	w := &sqlWriter{base: argOffset}
	e.writeSQL(w)
	return w.sb.String(), w.args
}

// OrderBy renders sort terms as a SQL ORDER BY list (without the keyword).
// Text and enumerated columns sort by byte order (COLLATE "C"), the order
// SortTasks uses, so results do not depend on the database locale.
func OrderBy(terms []SortTerm) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		dir := " ASC"
		if t.Desc {
			dir = " DESC"
		}
		col := t.Column.Name
		if t.Column.Kind == KindText || t.Column.Kind == KindEnum {
			col += ` COLLATE "C"`
		}
		parts = append(parts, col+dir)
	}
	return strings.Join(parts, ", ")
}
