package psql

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Readonly gives find, count and paging access to one table or view. Row is
// the struct every result row is scanned into.
type Readonly[Row any] struct {
	table
	ex *Executor
}

// NewReadonly creates a Readonly accessor for a table or view. The name is
// validated here; an unsafe name makes every operation fail with
// *UnsafeIdentifierError before any SQL is sent.
func NewReadonly[Row any](ex *Executor, tableName string) *Readonly[Row] {
	return &Readonly[Row]{table: newTable(tableName), ex: ex}
}

// Table returns the unquoted table name.
func (r *Readonly[Row]) Table() string {
	return r.name
}

// Executor returns the Executor the accessor is bound to.
func (r *Readonly[Row]) Executor() *Executor {
	return r.ex
}

// FindOne returns the first row matching where, or nil. It is only
// deterministic if where narrows to a single row.
//
//	SELECT * FROM "users" WHERE "email" = $1 LIMIT 1
func (r *Readonly[Row]) FindOne(ctx context.Context, where Where) (*Row, error) {
	if r.err != nil {
		return nil, r.err
	}
	a := &args{}
	cond, err := a.where(where)
	if err != nil {
		return nil, err
	}
	return QueryFirst[Row](ctx, r.ex, "SELECT * FROM "+r.quoted+cond+" LIMIT 1", a.values...)
}

// FindMany returns the rows matching the query; no match is an empty
// slice, not an error.
//
//	SELECT * FROM "users" WHERE "role" = $1 ORDER BY "created_at" DESC LIMIT 20 OFFSET 40
func (r *Readonly[Row]) FindMany(ctx context.Context, q Query) ([]Row, error) {
	if r.err != nil {
		return nil, r.err
	}
	a := &args{}
	clauses, err := a.query(q)
	if err != nil {
		return nil, err
	}
	return QueryAll[Row](ctx, r.ex, "SELECT * FROM "+r.quoted+clauses, a.values...)
}

// Count returns the number of rows matching where.
func (r *Readonly[Row]) Count(ctx context.Context, where Where) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	a := &args{}
	cond, err := a.where(where)
	if err != nil {
		return 0, err
	}
	var count int64
	err = r.ex.QueryRow(ctx, "SELECT COUNT(*) FROM "+r.quoted+cond, []interface{}{&count}, a.values...)
	return count, err
}

// Exists reports whether any row matches where.
func (r *Readonly[Row]) Exists(ctx context.Context, where Where) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	a := &args{}
	cond, err := a.where(where)
	if err != nil {
		return false, err
	}
	var exists bool
	err = r.ex.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM "+r.quoted+cond+")", []interface{}{&exists}, a.values...)
	return exists, err
}

// FindPage returns one page of rows and the total number of rows matching
// q.Where. The two queries run concurrently on a pool and one after the
// other inside a transaction, whose connection runs one statement at a
// time. Limit and Offset of the page echo the values used, or the number of
// items and 0 when the query had no paging.
func (r *Readonly[Row]) FindPage(ctx context.Context, q Query) (*Page[Row], error) {
	if r.err != nil {
		return nil, r.err
	}
	var (
		items []Row
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	if r.ex.InTransaction() {
		g.SetLimit(1)
	}
	g.Go(func() (err error) {
		items, err = r.FindMany(gctx, q)
		return
	})
	g.Go(func() (err error) {
		total, err = r.Count(gctx, q.Where)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	page := &Page[Row]{Items: items, Total: total}
	if limit, ok := q.limit(); ok {
		page.Limit = limit
	} else {
		page.Limit = len(items)
	}
	if offset, ok := q.offset(); ok {
		page.Offset = offset
	}
	return page, nil
}
