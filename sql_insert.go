package psql

import (
	"context"
	"strings"
)

type (
	// Mutable adds create, update, delete and upsert to Readonly. Insert and
	// Patch are the payload types accepted by Create and Update: structs
	// whose nil pointer and unset Optional fields are left out of the
	// statement, or Values.
	Mutable[Row, Insert, Patch any] struct {
		*Readonly[Row]
	}

	// JoinTable is the accessor of a many-to-many association table. Its
	// rows have no identity beyond their key columns, so they are created
	// and deleted but never updated.
	JoinTable[Row, Insert any] struct {
		*Readonly[Row]
	}
)

// NewMutable creates a Mutable accessor for a table.
func NewMutable[Row, Insert, Patch any](ex *Executor, tableName string) *Mutable[Row, Insert, Patch] {
	return &Mutable[Row, Insert, Patch]{NewReadonly[Row](ex, tableName)}
}

// NewJoinTable creates a JoinTable accessor for an association table.
func NewJoinTable[Row, Insert any](ex *Executor, tableName string) *JoinTable[Row, Insert] {
	return &JoinTable[Row, Insert]{NewReadonly[Row](ex, tableName)}
}

// Create inserts one row and returns it as stored. A payload with no fields
// left after stripping inserts a row of column defaults.
//
//	INSERT INTO "notifications" ("user_id", "title") VALUES ($1, $2) RETURNING *
//	INSERT INTO "notifications" DEFAULT VALUES RETURNING *
func (m *Mutable[Row, Insert, Patch]) Create(ctx context.Context, payload Insert) (*Row, error) {
	return insertRow[Row](ctx, m.Readonly, payload)
}

// CreateMany inserts rows one statement at a time, in input order, and
// returns them in the same order. It stops at the first failure; rows
// inserted before it stay unless the caller runs it in a transaction.
func (m *Mutable[Row, Insert, Patch]) CreateMany(ctx context.Context, payloads []Insert) ([]Row, error) {
	return insertRows[Row](ctx, m.Readonly, payloads)
}

// CreateOnConflict inserts a row, or updates the existing row that
// conflicts on the conflict columns. Every inserted column except the
// conflict columns and the keep columns is overwritten with the new value;
// with nothing to overwrite the conflict is ignored and no row is returned.
//
//	INSERT INTO "evaluation_scores" ("evaluation_id", "criterion_id", "score") VALUES ($1, $2, $3)
//	ON CONFLICT ("evaluation_id", "criterion_id") DO UPDATE SET "score" = EXCLUDED."score" RETURNING *
func (m *Mutable[Row, Insert, Patch]) CreateOnConflict(ctx context.Context, payload Insert, conflict []string, keep ...string) (*Row, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(conflict) == 0 {
		return nil, ErrEmptyConflict
	}
	columns, err := payloadColumns(payload)
	if err != nil {
		return nil, err
	}
	skip := map[string]bool{}
	targets := make([]string, 0, len(conflict))
	for _, name := range append(append([]string{}, conflict...), keep...) {
		quoted, err := Quote(name)
		if err != nil {
			return nil, err
		}
		skip[quoted] = true
		if len(targets) < len(conflict) {
			targets = append(targets, quoted)
		}
	}
	a := &args{}
	sql := insertSQL(m.quoted, columns, a)
	var actions []string
	for _, c := range columns {
		if skip[c.name] {
			continue
		}
		actions = append(actions, c.name+" = EXCLUDED."+c.name)
	}
	sql += " ON CONFLICT (" + strings.Join(targets, ", ") + ")"
	if len(actions) == 0 {
		sql += " DO NOTHING"
	} else {
		sql += " DO UPDATE SET " + strings.Join(actions, ", ")
	}
	return QueryFirst[Row](ctx, m.ex, sql+" RETURNING *", a.values...)
}

// Create inserts one association row.
func (j *JoinTable[Row, Insert]) Create(ctx context.Context, payload Insert) (*Row, error) {
	return insertRow[Row](ctx, j.Readonly, payload)
}

// CreateMany inserts association rows one at a time, in input order.
func (j *JoinTable[Row, Insert]) CreateMany(ctx context.Context, payloads []Insert) ([]Row, error) {
	return insertRows[Row](ctx, j.Readonly, payloads)
}

func insertRow[Row any](ctx context.Context, r *Readonly[Row], payload interface{}) (*Row, error) {
	if r.err != nil {
		return nil, r.err
	}
	columns, err := payloadColumns(payload)
	if err != nil {
		return nil, err
	}
	a := &args{}
	return QueryFirst[Row](ctx, r.ex, insertSQL(r.quoted, columns, a)+" RETURNING *", a.values...)
}

func insertRows[Row, Insert any](ctx context.Context, r *Readonly[Row], payloads []Insert) ([]Row, error) {
	out := make([]Row, 0, len(payloads))
	for _, payload := range payloads {
		row, err := insertRow[Row](ctx, r, payload)
		if err != nil {
			return nil, err
		}
		if row != nil {
			out = append(out, *row)
		}
	}
	return out, nil
}

func insertSQL(quotedTable string, columns []column, a *args) string {
	if len(columns) == 0 {
		return "INSERT INTO " + quotedTable + " DEFAULT VALUES"
	}
	fields := make([]string, 0, len(columns))
	numbers := make([]string, 0, len(columns))
	for _, c := range columns {
		fields = append(fields, c.name)
		numbers = append(numbers, a.bind(c.value))
	}
	return "INSERT INTO " + quotedTable + " (" + strings.Join(fields, ", ") + ") VALUES (" + strings.Join(numbers, ", ") + ")"
}
