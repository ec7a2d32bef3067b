package psql

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/gopsql/db"
	"github.com/gopsql/logger"
)

var (
	ErrInvalidPayload = errors.New("psql: payload must be a struct, a pointer to struct or Values")
	ErrInvalidTarget  = errors.New("psql: row type must be a struct")
	ErrNoConnection   = errors.New("psql: no connection")
	ErrNotPool        = errors.New("psql: executor is bound to a transaction, not a pool")
	ErrEmptyConflict  = errors.New("psql: conflict target must name at least one column")
)

type (
	// Executor runs statements either on a pool or on the single connection
	// of an open transaction. Accessors and services are bound to one
	// Executor; Transaction hands out an Executor bound to the transaction.
	Executor struct {
		pool   db.DB
		tx     db.Tx
		logger logger.Logger
	}
)

// NewExecutor creates an Executor for a pool. Options can be a
// logger.Logger, which prints every statement; by default nothing is
// logged.
//
//	conn, _ := pgx.Open(connStr)
//	ex := psql.NewExecutor(conn, logger.StandardLogger)
func NewExecutor(pool db.DB, options ...interface{}) *Executor {
	e := &Executor{pool: pool}
	for _, option := range options {
		switch o := option.(type) {
		case logger.Logger:
			e.logger = o
		}
	}
	return e
}

// InTransaction reports whether the Executor is bound to a transaction.
func (e *Executor) InTransaction() bool {
	return e.tx != nil
}

// Close shuts the pool down. It fails for transaction-bound executors, whose
// connection belongs to the transaction.
func (e *Executor) Close() error {
	if e.tx != nil {
		return ErrNotPool
	}
	if e.pool == nil {
		return ErrNoConnection
	}
	return e.pool.Close()
}

// Exec runs a statement and returns the number of rows affected.
func (e *Executor) Exec(ctx context.Context, sql string, values ...interface{}) (int64, error) {
	if e.pool == nil {
		return 0, ErrNoConnection
	}
	sql, values = e.convert(sql, values)
	e.log(sql, values)
	var result db.Result
	var err error
	if e.tx != nil {
		result, err = e.tx.ExecContext(ctx, sql, values...)
	} else {
		result, err = e.pool.ExecContext(ctx, sql, values...)
	}
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Query runs a statement returning rows. The caller must close the rows.
func (e *Executor) Query(ctx context.Context, sql string, values ...interface{}) (db.Rows, error) {
	if e.pool == nil {
		return nil, ErrNoConnection
	}
	sql, values = e.convert(sql, values)
	e.log(sql, values)
	if e.tx != nil {
		return e.tx.QueryContext(ctx, sql, values...)
	}
	return e.pool.QueryContext(ctx, sql, values...)
}

// QueryRow runs a statement and scans the first row into dest.
func (e *Executor) QueryRow(ctx context.Context, sql string, dest []interface{}, values ...interface{}) error {
	if e.pool == nil {
		return ErrNoConnection
	}
	sql, values = e.convert(sql, values)
	e.log(sql, values)
	if e.tx != nil {
		return e.tx.QueryRowContext(ctx, sql, values...).Scan(dest...)
	}
	return e.pool.QueryRowContext(ctx, sql, values...).Scan(dest...)
}

func (e *Executor) convert(sql string, values []interface{}) (string, []interface{}) {
	sql = strings.TrimSpace(sql)
	if c, ok := e.pool.(db.ConvertParameters); ok {
		return c.ConvertParameters(sql, values)
	}
	return sql, values
}

func (e *Executor) log(sql string, args []interface{}) {
	if e.logger == nil {
		return
	}
	if len(args) == 0 {
		e.logger.Debug(sql)
		return
	}
	e.logger.Debug(sql, args)
}

func (e *Executor) logError(message string, err error) {
	if e.logger == nil {
		return
	}
	e.logger.Error(message, err)
}

// QueryAll runs a statement and scans every row into a Row. Use it for
// hand-written SQL that the generic accessors cannot express.
//
//	rows, err := psql.QueryAll[models.Schedule](ctx, ex,
//		`SELECT s.* FROM "defense_schedules" s JOIN "schedule_panelists" p ON p."schedule_id" = s."id" WHERE p."staff_id" = $1`, staffID)
func QueryAll[Row any](ctx context.Context, e *Executor, sql string, values ...interface{}) ([]Row, error) {
	rs, err := rowShape[Row]()
	if err != nil {
		return nil, err
	}
	rows, err := e.Query(ctx, sql, values...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := []Row{}
	for rows.Next() {
		var row Row
		if err := rs.scan(reflect.ValueOf(&row).Elem(), columns, rows); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// QueryFirst is like QueryAll but returns only the first row, or nil if the
// statement returned no rows.
func QueryFirst[Row any](ctx context.Context, e *Executor, sql string, values ...interface{}) (*Row, error) {
	rows, err := QueryAll[Row](ctx, e, sql, values...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func rowShape[Row any]() (*shape, error) {
	rt := reflect.TypeOf((*Row)(nil)).Elem()
	if rt.Kind() != reflect.Struct {
		return nil, ErrInvalidTarget
	}
	s := shapeOf(rt)
	return s, s.err
}

// scan a row into the struct fields matching the result columns; columns
// without a field are read and discarded.
func (s *shape) scan(rv reflect.Value, columns []string, scannable db.Scannable) error {
	dests := make([]interface{}, len(columns))
	for i, name := range columns {
		idx, ok := s.byColumn[name]
		if !ok {
			dests[i] = new(interface{})
			continue
		}
		dests[i] = rv.FieldByIndex(s.fields[idx].index).Addr().Interface()
	}
	return scannable.Scan(dests...)
}
