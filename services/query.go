package services

import (
	"github.com/defenseportal/psql"
)

// scope narrows q with where; keys of where replace the same keys of
// q.Where. The caller's map is not modified.
func scope(q psql.Query, where psql.Where) psql.Query {
	merged := make(psql.Where, len(q.Where)+len(where))
	for column, value := range q.Where {
		merged[column] = value
	}
	for column, value := range where {
		merged[column] = value
	}
	q.Where = merged
	return q
}

// ordered sets the ordering of q unless the caller chose one.
func ordered(q psql.Query, column string, direction psql.Direction) psql.Query {
	if q.OrderBy == "" {
		q.OrderBy = column
		q.OrderDirection = direction
	}
	return q
}

// byPosition is the ordering of rubric rows.
func byPosition(where psql.Where) psql.Query {
	return psql.Query{Where: where, OrderBy: "position", OrderDirection: psql.Asc}
}
