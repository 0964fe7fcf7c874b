package dbpool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type txKey struct{}

// execer is the subset of *sqlx.DB and *sqlx.Tx the model layer needs;
// WithTx/TxFrom let a single call site work whether or not it's inside a
// transaction.
type execer interface {
	sqlx.ExtContext
}

// WithTx stashes tx in ctx so nested calls reuse the same transaction
// instead of opening a new one. Nested RunInTx calls flatten onto the
// outer transaction rather than creating savepoints (§5): the outer
// transaction owns the COMMIT/ROLLBACK, inner calls are no-ops over the
// same *sqlx.Tx.
func WithTx(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFrom returns the transaction stashed in ctx, if any.
func TxFrom(ctx context.Context) (*sqlx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx, ok
}

// Execer resolves the connection a model-layer call should use for ctx: the
// current transaction if one is active, otherwise the pool itself, wrapped
// so every call traces as a span.
func (p *Pool) Execer(ctx context.Context) execer {
	if tx, ok := TxFrom(ctx); ok {
		return newTracingExecer(tx)
	}
	return newTracingExecer(p.DB)
}

// RunInTx runs fn inside a transaction, beginning one only if ctx doesn't
// already carry one. A panic or returned error rolls back; cancellation of
// ctx unwinds the same way since Postgres rolls back on a severed
// connection. Success commits exactly once, at the outermost call.
func (p *Pool) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := TxFrom(ctx); ok {
		return fn(ctx)
	}

	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("dbpool: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = fmt.Errorf("%w (rollback also failed: %s)", err, rbErr)
			}
			return
		}
		err = tx.Commit()
	}()

	err = fn(WithTx(ctx, tx))
	return err
}
