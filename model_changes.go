package psql

import (
	"database/sql/driver"
	"encoding/json"
	"reflect"
	"sort"
)

type (
	// Values is a column name to value map usable as an insert or patch
	// payload. An absent key is left out of the statement, a nil value is
	// written as NULL.
	//
	//	users.Update(ctx, psql.Where{"id": id}, psql.Values{"avatar_url": nil})
	//	// UPDATE "users" SET "avatar_url" = $1 WHERE "id" = $2 RETURNING *
	Values map[string]interface{}

	// Optional holds a value that can be unset, explicitly NULL or set. The
	// zero Optional is unset: it is stripped from payloads and skipped in
	// filters.
	Optional[T any] struct {
		value T
		set   bool
		null  bool
	}

	// optional is implemented by every Optional[T].
	optional interface {
		optionalValue() (value interface{}, present bool)
	}

	column struct {
		name  string
		value interface{}
	}
)

// Set returns an Optional holding value.
func Set[T any](value T) Optional[T] {
	return Optional[T]{value: value, set: true}
}

// Null returns an Optional that is written as NULL.
func Null[T any]() Optional[T] {
	return Optional[T]{set: true, null: true}
}

// Present reports whether the Optional is set or NULL.
func (o Optional[T]) Present() bool {
	return o.set
}

// IsNull reports whether the Optional is explicitly NULL.
func (o Optional[T]) IsNull() bool {
	return o.set && o.null
}

// Get returns the value and whether it is set and not NULL.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set && !o.null
}

func (o Optional[T]) optionalValue() (interface{}, bool) {
	if !o.set {
		return nil, false
	}
	if o.null {
		return nil, true
	}
	return o.value, true
}

// Value implements driver.Valuer so a present Optional can be passed to raw
// SQL as an argument directly.
func (o Optional[T]) Value() (driver.Value, error) {
	v, ok := o.optionalValue()
	if !ok || v == nil {
		return nil, nil
	}
	if valuer, ok := v.(driver.Valuer); ok {
		return valuer.Value()
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	v, _ := o.optionalValue()
	return json.Marshal(v)
}

// UnmarshalJSON sets the Optional from JSON; a JSON null becomes NULL, so a
// request body that leaves a key out keeps the field unset.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*o = Null[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = Set(v)
	return nil
}

// resolve strips undefined values. It returns false if the value must be
// left out of the statement.
func resolve(value interface{}) (interface{}, bool) {
	switch v := value.(type) {
	case nil:
		return nil, true
	case optional:
		return v.optionalValue()
	}
	return value, true
}

// payloadColumns lists the columns of an insert or patch payload after
// stripping undefined fields. Struct payloads keep their field order, Values
// are sorted by column name.
func payloadColumns(payload interface{}) ([]column, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case Values:
		return valuesColumns(p)
	case map[string]interface{}:
		return valuesColumns(p)
	}
	rv := reflect.ValueOf(payload)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, ErrInvalidPayload
	}
	shape := shapeOf(rv.Type())
	if shape.err != nil {
		return nil, shape.err
	}
	var columns []column
	for _, f := range shape.fields {
		fv := rv.FieldByIndex(f.index)
		switch fv.Kind() {
		case reflect.Ptr, reflect.Interface:
			if fv.IsNil() {
				continue
			}
		}
		value, ok := resolve(fieldInterface(fv))
		if !ok {
			continue
		}
		if pv := reflect.ValueOf(value); pv.Kind() == reflect.Ptr && !pv.IsNil() {
			if _, isValuer := value.(driver.Valuer); !isValuer {
				value = pv.Elem().Interface()
			}
		}
		columns = append(columns, column{name: f.quoted, value: value})
	}
	return columns, nil
}

func valuesColumns(values map[string]interface{}) ([]column, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	columns := make([]column, 0, len(names))
	for _, name := range names {
		value, ok := resolve(values[name])
		if !ok {
			continue
		}
		quoted, err := Quote(name)
		if err != nil {
			return nil, err
		}
		columns = append(columns, column{name: quoted, value: value})
	}
	return columns, nil
}
