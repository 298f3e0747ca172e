package repository

import (
	"strconv"
	"strings"
)

// SelectQuery accumulates parameterized clauses for a filtered read. Callers
// write `?` placeholders; they are rewritten to positional $n arguments, so
// user input never reaches the SQL text itself. Soft-deleted rows are
// excluded unless WithDeleted is called.
type SelectQuery struct {
	table          string
	columns        []string
	clauses        []string
	args           []any
	orderBy        string
	includeDeleted bool
}

// NewSelectQuery starts a query over the given table and select list.
func NewSelectQuery(table string, columns []string) *SelectQuery {
	return &SelectQuery{table: table, columns: columns}
}

// Where appends a predicate. Placeholders written as `?` are rebound to the
// next positional arguments.
func (q *SelectQuery) Where(clause string, args ...any) *SelectQuery {
	q.clauses = append(q.clauses, rebind(clause, len(q.args)+1))
	q.args = append(q.args, args...)
	return q
}

// OrderBy sets the ordering expression. The expression must be a trusted
// literal, never user input.
func (q *SelectQuery) OrderBy(expr string) *SelectQuery {
	q.orderBy = expr
	return q
}

// WithDeleted disables the default soft-delete scope.
func (q *SelectQuery) WithDeleted() *SelectQuery {
	q.includeDeleted = true
	return q
}

// Args returns the accumulated positional arguments.
func (q *SelectQuery) Args() []any {
	return q.args
}

// CountSQL renders the counting form of the query. Ordering and bounds do
// not apply to an aggregate and are omitted.
func (q *SelectQuery) CountSQL() string {
	return q.render("COUNT(*)", 0, 0, false)
}

// SelectSQL renders the fetching form. A non-positive limit leaves the
// result unbounded.
func (q *SelectQuery) SelectSQL(limit, offset int) string {
	return q.render(strings.Join(q.columns, ", "), limit, offset, true)
}

func (q *SelectQuery) render(selectList string, limit, offset int, ordered bool) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(selectList)
	sb.WriteString(" FROM ")
	sb.WriteString(q.table)

	clauses := q.clauses
	if !q.includeDeleted {
		clauses = append([]string{"deleted_at IS NULL"}, clauses...)
	}
	if len(clauses) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(clauses, " AND "))
	}
	if ordered && q.orderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(q.orderBy)
	}
	if limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(limit))
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.Itoa(offset))
	}
	return sb.String()
}

// rebind replaces each `?` in clause with $n starting at start.
func rebind(clause string, start int) string {
	var sb strings.Builder
	n := start
	for _, r := range clause {
		if r == '?' {
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			n++
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
