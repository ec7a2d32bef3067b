package psql

import (
	"context"
)

// Delete removes the rows matching where and returns how many were removed.
// An empty where deletes every row.
//
//	DELETE FROM "sessions" WHERE "user_id" = $1
func (m *Mutable[Row, Insert, Patch]) Delete(ctx context.Context, where Where) (int64, error) {
	return deleteRows(ctx, m.Readonly, where)
}

// Delete removes the association rows matching where.
func (j *JoinTable[Row, Insert]) Delete(ctx context.Context, where Where) (int64, error) {
	return deleteRows(ctx, j.Readonly, where)
}

// Replace deletes the association rows matching where and inserts payloads
// in their place, all in one transaction (a savepoint if the accessor is
// already bound to a transaction).
//
//	members.Replace(ctx, psql.Where{"group_id": groupID}, newMembers)
func (j *JoinTable[Row, Insert]) Replace(ctx context.Context, where Where, payloads []Insert) ([]Row, error) {
	if j.err != nil {
		return nil, j.err
	}
	return InTransaction(ctx, j.ex, func(ctx context.Context, tx *Executor) ([]Row, error) {
		scoped := NewJoinTable[Row, Insert](tx, j.name)
		if _, err := scoped.Delete(ctx, where); err != nil {
			return nil, err
		}
		return scoped.CreateMany(ctx, payloads)
	})
}

func deleteRows[Row any](ctx context.Context, r *Readonly[Row], where Where) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	a := &args{}
	cond, err := a.where(where)
	if err != nil {
		return 0, err
	}
	return r.ex.Exec(ctx, "DELETE FROM "+r.quoted+cond, a.values...)
}
