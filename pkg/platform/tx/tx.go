package tx

import (
	"context"
	"database/sql"
	"fmt"
)

type sqlTxKey struct{}

// WithTx stores a SQL transaction in context so stores join it instead of opening their own.
func WithTx(ctx context.Context, sqlTx *sql.Tx) context.Context {
	if sqlTx == nil {
		return ctx
	}
	return context.WithValue(ctx, sqlTxKey{}, sqlTx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	sqlTx, ok := ctx.Value(sqlTxKey{}).(*sql.Tx)
	return sqlTx, ok
}

// Run calls fn inside the ambient transaction if ctx carries one, otherwise inside a new
// transaction on db that commits when fn succeeds.
func Run(ctx context.Context, db *sql.DB, fn func(sqlTx *sql.Tx) error) error {
	if sqlTx, ok := From(ctx); ok {
		return fn(sqlTx)
	}
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()
	if err := fn(sqlTx); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
