package psql

import (
	"context"
	"strings"
)

// Update sets the patch columns on every row matching where and returns the
// updated rows. A patch with nothing left after stripping undefined fields
// sends no statement and returns no rows. An empty where updates every row.
//
//	UPDATE "defense_schedules" SET "status" = $1, "room" = $2 WHERE "id" = $3 RETURNING *
func (m *Mutable[Row, Insert, Patch]) Update(ctx context.Context, where Where, patch Patch) ([]Row, error) {
	if m.err != nil {
		return nil, m.err
	}
	columns, err := payloadColumns(patch)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return []Row{}, nil
	}
	a := &args{}
	sets := make([]string, 0, len(columns))
	for _, c := range columns {
		sets = append(sets, c.name+" = "+a.bind(c.value))
	}
	// WHERE binds after SET on the same args, so its placeholders follow
	// the SET ones.
	cond, err := a.where(where)
	if err != nil {
		return nil, err
	}
	sql := "UPDATE " + m.quoted + " SET " + strings.Join(sets, ", ") + cond + " RETURNING *"
	return QueryAll[Row](ctx, m.ex, sql, a.values...)
}

// UpdateOne is like Update but returns only the first updated row, or nil.
func (m *Mutable[Row, Insert, Patch]) UpdateOne(ctx context.Context, where Where, patch Patch) (*Row, error) {
	rows, err := m.Update(ctx, where, patch)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// Upsert finds the row matching where and creates it from create if there
// is none. An existing row is returned unchanged when patch is nil, and
// updated with patch otherwise; if the update changes nothing (for example
// every patch field is unset) the existing row is returned.
func (m *Mutable[Row, Insert, Patch]) Upsert(ctx context.Context, where Where, create Insert, patch *Patch) (*Row, error) {
	existing, err := m.FindOne(ctx, where)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return m.Create(ctx, create)
	}
	if patch == nil {
		return existing, nil
	}
	updated, err := m.UpdateOne(ctx, where, *patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return existing, nil
	}
	return updated, nil
}
