package psql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
)

type (
	TransactionBlock func(context.Context, *Executor) error
)

// savepoints numbers savepoint names for the lifetime of the process.
var savepoints atomic.Uint64

func nextSavepoint() string {
	return "sp_" + strconv.FormatUint(savepoints.Add(1), 36)
}

// MustTransaction is like Transaction but panics if transaction fails.
func (e *Executor) MustTransaction(ctx context.Context, block TransactionBlock) {
	if err := e.Transaction(ctx, block); err != nil {
		panic(err)
	}
}

// Transaction runs block in a transaction scope and passes it an Executor
// bound to that scope; block must use it (or accessors built on it) for its
// statements to be part of the transaction.
//
// On a pool Executor this is a real transaction: BEGIN, then COMMIT if block
// returns nil and ROLLBACK otherwise; the connection goes back to the pool
// either way. On an Executor already bound to a transaction it is a
// savepoint on the same connection: SAVEPOINT, then RELEASE SAVEPOINT or
// ROLLBACK TO SAVEPOINT, so a failed inner block leaves the outer
// transaction usable.
//
// The error returned by block is returned as is; a failing rollback is
// logged and does not replace it. A panic in block is rolled back and
// returned as an error.
func (e *Executor) Transaction(ctx context.Context, block TransactionBlock) error {
	if e.pool == nil {
		return ErrNoConnection
	}
	if e.tx != nil {
		return e.savepoint(ctx, block)
	}
	return e.begin(ctx, block)
}

// InTransaction is like Executor.Transaction but passes through the value
// produced by block.
func InTransaction[T any](ctx context.Context, e *Executor, block func(context.Context, *Executor) (T, error)) (out T, err error) {
	err = e.Transaction(ctx, func(ctx context.Context, tx *Executor) error {
		var blockErr error
		out, blockErr = block(ctx, tx)
		return blockErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (e *Executor) begin(ctx context.Context, block TransactionBlock) (err error) {
	e.log("BEGIN", nil)
	tx, err := e.pool.BeginTx(ctx, "", false)
	if err != nil {
		return
	}
	scoped := &Executor{pool: e.pool, tx: tx, logger: e.logger}
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
			scoped.rollback(ctx, err)
		} else if err != nil {
			scoped.rollback(ctx, err)
		} else {
			e.log("COMMIT", nil)
			err = tx.Commit(ctx)
		}
	}()
	err = block(ctx, scoped)
	return
}

func (e *Executor) savepoint(ctx context.Context, block TransactionBlock) (err error) {
	name := MustQuote(nextSavepoint())
	if _, err = e.Exec(ctx, "SAVEPOINT "+name); err != nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
			e.rollbackTo(ctx, name, err)
		} else if err != nil {
			e.rollbackTo(ctx, name, err)
		} else {
			_, err = e.Exec(ctx, "RELEASE SAVEPOINT "+name)
		}
	}()
	err = block(ctx, e)
	return
}

// rollback ends the transaction of a scoped Executor. It runs even if ctx
// is already cancelled so that the connection is always released.
func (e *Executor) rollback(ctx context.Context, cause error) {
	e.log("ROLLBACK", nil)
	if err := e.tx.Rollback(context.WithoutCancel(ctx)); err != nil {
		e.logError("rollback failed after "+cause.Error()+":", err)
	}
}

func (e *Executor) rollbackTo(ctx context.Context, name string, cause error) {
	if _, err := e.Exec(context.WithoutCancel(ctx), "ROLLBACK TO SAVEPOINT "+name); err != nil {
		e.logError("rollback to savepoint "+name+" failed after "+cause.Error()+":", err)
	}
}

func panicError(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return errors.New(fmt.Sprint(r))
}
