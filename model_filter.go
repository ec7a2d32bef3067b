package psql

import (
	"database/sql/driver"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

type (
	// Where maps column names to the value they must match. A nil value
	// matches NULL, a slice matches any of its elements and an unset
	// Optional is ignored. An empty Where matches every row.
	//
	//	psql.Where{"status": "active", "deleted_at": nil, "role": []string{"staff", "admin"}}
	//	// WHERE "deleted_at" IS NULL AND "role" = ANY($1) AND "status" = $2
	Where map[string]interface{}

	// Direction of ORDER BY.
	Direction string

	// Query describes filtering, sorting and paging of a SELECT. All fields
	// are optional. Limit must be positive and Offset non-negative, other
	// values are ignored.
	Query struct {
		Where          Where
		OrderBy        string
		OrderDirection Direction
		Limit          int
		Offset         int
	}

	// Page is one page of rows together with the number of rows matching
	// the filter regardless of paging.
	Page[Row any] struct {
		Items  []Row `json:"items"`
		Total  int64 `json:"total"`
		Limit  int   `json:"limit"`
		Offset int   `json:"offset"`
	}

	// args is the positional parameter list of one statement. Every
	// fragment of a statement binds through the same args so placeholders
	// are numbered in order of appearance.
	args struct {
		values []interface{}
	}
)

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

func (a *args) bind(value interface{}) string {
	a.values = append(a.values, value)
	return "$" + strconv.Itoa(len(a.values))
}

// where compiles a Where into " WHERE ..." (or "" when nothing filters).
// Column names are sorted so the same Where always gives the same SQL.
func (a *args) where(w Where) (string, error) {
	names := make([]string, 0, len(w))
	for name := range w {
		names = append(names, name)
	}
	sort.Strings(names)
	conditions := make([]string, 0, len(names))
	for _, name := range names {
		value, ok := resolve(w[name])
		if !ok {
			continue
		}
		quoted, err := Quote(name)
		if err != nil {
			return "", err
		}
		switch {
		case isNull(value):
			conditions = append(conditions, quoted+" IS NULL")
		case isList(value):
			if reflect.ValueOf(value).Len() == 0 {
				conditions = append(conditions, "FALSE")
				continue
			}
			conditions = append(conditions, quoted+" = ANY("+a.bind(pq.Array(value))+")")
		default:
			conditions = append(conditions, quoted+" = "+a.bind(value))
		}
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), nil
}

// query compiles WHERE, ORDER BY, LIMIT and OFFSET of a Query.
func (a *args) query(q Query) (string, error) {
	sql, err := a.where(q.Where)
	if err != nil {
		return "", err
	}
	if q.OrderBy != "" {
		quoted, err := Quote(q.OrderBy)
		if err != nil {
			return "", err
		}
		sql += " ORDER BY " + quoted + " " + q.OrderDirection.keyword()
	}
	if limit, ok := q.limit(); ok {
		sql += " LIMIT " + strconv.Itoa(limit)
	}
	if offset, ok := q.offset(); ok {
		sql += " OFFSET " + strconv.Itoa(offset)
	}
	return sql, nil
}

func (d Direction) keyword() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

func (q Query) limit() (int, bool) {
	return q.Limit, q.Limit > 0
}

// OFFSET 0 is the same as no offset, so it is left out as well.
func (q Query) offset() (int, bool) {
	return q.Offset, q.Offset > 0
}

// isList reports whether a filter value is a set of values. []byte is a
// single bytea value.
// isNull reports whether value is nil or a nil pointer or map, such as the
// *T field of a nullable column.
func isNull(value interface{}) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func isList(value interface{}) bool {
	if _, ok := value.([]byte); ok {
		return false
	}
	switch reflect.TypeOf(value).Kind() {
	case reflect.Slice, reflect.Array:
		_, isValuer := value.(driver.Valuer)
		return !isValuer && !isScalarArray(value)
	}
	return false
}

// isScalarArray excludes fixed-size byte arrays such as uuid.UUID, which
// are single values.
func isScalarArray(value interface{}) bool {
	rt := reflect.TypeOf(value)
	return rt.Kind() == reflect.Array && rt.Elem().Kind() == reflect.Uint8
}
