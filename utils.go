package psql

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5"
)

var (
	// DefaultColumnNamer converts struct field names to column names when a
	// field has no "column" tag. Default is ToUnderscore.
	DefaultColumnNamer func(string) string = ToUnderscore

	safeIdentifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// UnsafeIdentifierError is returned when a table or column name is not a
// plain identifier. Identifiers come from code, never from request bodies, so
// this error always points at a programming mistake.
type UnsafeIdentifierError struct {
	Identifier string
}

func (e *UnsafeIdentifierError) Error() string {
	return "psql: unsafe identifier " + `"` + e.Identifier + `"`
}

// IsSafeIdentifier reports whether Quote would accept the identifier.
func IsSafeIdentifier(identifier string) bool {
	_, ok := identifierSegments(identifier)
	return ok
}

// Quote validates an identifier and returns it double-quoted. The identifier
// may contain one dot (schema.table or table.column); each segment is checked
// and quoted on its own:
//
//	psql.Quote("users")        // "users"
//	psql.Quote("public.users") // "public"."users"
//	psql.Quote("users; --")    // *UnsafeIdentifierError
func Quote(identifier string) (string, error) {
	segments, ok := identifierSegments(identifier)
	if !ok {
		return "", &UnsafeIdentifierError{Identifier: identifier}
	}
	return pgx.Identifier(segments).Sanitize(), nil
}

// MustQuote is like Quote but panics if the identifier is unsafe.
func MustQuote(identifier string) string {
	quoted, err := Quote(identifier)
	if err != nil {
		panic(err)
	}
	return quoted
}

func identifierSegments(identifier string) ([]string, bool) {
	segments := strings.Split(identifier, ".")
	if len(segments) > 2 {
		return nil, false
	}
	for _, segment := range segments {
		if !safeIdentifierRe.MatchString(segment) {
			return nil, false
		}
	}
	return segments, true
}

// Convert "CamelCase" word to its "snake_case" (underscore) form. For example,
// "FullName" will be converted to "full_name".
func ToUnderscore(str string) string { // from govalidator
	var output []rune
	var segment []rune
	for _, r := range str {
		// not treat number as separate segment
		if !unicode.IsLower(r) && string(r) != "_" && !unicode.IsNumber(r) {
			output = addSegment(output, segment)
			segment = nil
		}
		segment = append(segment, unicode.ToLower(r))
	}
	output = addSegment(output, segment)
	return string(output)
}

func addSegment(inrune, segment []rune) []rune { // from govalidator
	if len(segment) == 0 {
		return inrune
	}
	if len(inrune) != 0 {
		inrune = append(inrune, '_')
	}
	inrune = append(inrune, segment...)
	return inrune
}
