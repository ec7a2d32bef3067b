package psql

import (
	"reflect"
	"strings"
	"sync"
)

type (
	// shape is the parsed column layout of a row or payload struct type.
	// It is computed once per type.
	shape struct {
		fields   []shapeField
		byColumn map[string]int
		err      error
	}

	shapeField struct {
		name   string // struct field name
		column string // column name in database
		quoted string
		index  []int
	}
)

var shapes sync.Map // reflect.Type -> *shape

func shapeOf(rt reflect.Type) *shape {
	if s, ok := shapes.Load(rt); ok {
		return s.(*shape)
	}
	s := &shape{byColumn: map[string]int{}}
	s.fields, s.err = parseStruct(rt, nil)
	for i, f := range s.fields {
		if _, ok := s.byColumn[f.column]; !ok {
			s.byColumn[f.column] = i
		}
	}
	actual, _ := shapes.LoadOrStore(rt, s)
	return actual.(*shape)
}

// parseStruct collects column names of exported fields, descending into
// embedded structs. Column names come from the "column" tag or
// DefaultColumnNamer; "-" skips the field.
func parseStruct(rt reflect.Type, parent []int) (fields []shapeField, err error) {
	if rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return nil, ErrInvalidPayload
	}
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		index := append(append([]int{}, parent...), i)
		columnName := f.Tag.Get("column")
		if columnName == "-" {
			continue
		}
		if idx := strings.Index(columnName, ","); idx != -1 {
			columnName = columnName[:idx]
		}
		if f.Anonymous && columnName == "" && f.Type.Kind() == reflect.Struct {
			embedded, err := parseStruct(f.Type, index)
			if err != nil {
				return nil, err
			}
			fields = append(fields, embedded...)
			continue
		}
		if f.PkgPath != "" {
			continue // ignore unexported field
		}
		if columnName == "" {
			columnName = DefaultColumnNamer(f.Name)
		}
		quoted, err := Quote(columnName)
		if err != nil {
			return nil, err
		}
		fields = append(fields, shapeField{
			name:   f.Name,
			column: columnName,
			quoted: quoted,
			index:  index,
		})
	}
	return
}

func fieldInterface(fv reflect.Value) interface{} {
	if !fv.CanInterface() {
		return nil
	}
	return fv.Interface()
}

// Columns returns the column names of a row or payload struct in field
// order.
func Columns(object interface{}) ([]string, error) {
	rt := reflect.TypeOf(object)
	if rt == nil {
		return nil, ErrInvalidPayload
	}
	for rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	s := shapeOf(rt)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		out = append(out, f.column)
	}
	return out, nil
}

// table is the validated name shared by every accessor. A bad name is kept as
// an error and reported by each operation before any SQL is sent.
type table struct {
	name   string
	quoted string
	err    error
}

func newTable(name string) table {
	quoted, err := Quote(name)
	return table{name: name, quoted: quoted, err: err}
}
