package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/stockcheckout/internal/db"
)

// withTx executes fn within a transaction if dbtx is a pool,
// or uses the existing transaction if dbtx already is one
func withTx[T any](ctx context.Context, dbtx db.DBTX, fn func(tx pgx.Tx) (T, error)) (_ T, txErr error) {
	var zero T

	if tx, ok := dbtx.(pgx.Tx); ok {
		return fn(tx)
	}

	pool, ok := dbtx.(*pgxpool.Pool)
	if !ok {
		return zero, fmt.Errorf("dbtx is neither pgx.Tx nor *pgxpool.Pool: %T", dbtx)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return zero, fmt.Errorf("pool.Begin: %w", err)
	}

	defer func() {
		if txErr != nil {
			rollbackErr := tx.Rollback(ctx)
			if rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				txErr = errors.Join(txErr, fmt.Errorf("tx.Rollback: %w", rollbackErr))
			}
		}
	}()

	result, err := fn(tx)
	if err != nil {
		return zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return zero, fmt.Errorf("tx.Commit: %w", err)
	}

	return result, nil
}

func withTxQueries[T any](ctx context.Context, dbtx db.DBTX, fn func(q *db.Queries) (T, error)) (T, error) {
	return withTx(ctx, dbtx, func(tx pgx.Tx) (T, error) {
		return fn(db.New(tx))
	})
}

func withTxExec(ctx context.Context, dbtx db.DBTX, fn func(q *db.Queries) error) error {
	_, err := withTxQueries(ctx, dbtx, func(q *db.Queries) (struct{}, error) {
		return struct{}{}, fn(q)
	})
	return err
}
