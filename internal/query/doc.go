// Package query translates the task list filter vocabulary into boolean
// expressions and resolves sorting and pagination.
//
// Predicates are built per filter term (FromTerm, Selectable, Substring,
// AtLeast, AtMost), merged with Combine, and rendered to SQL by Where and
// OrderBy. Only columns in the static allow-list are ever rendered, so caller
// input never reaches SQL text; values are always bound as arguments.
package query
