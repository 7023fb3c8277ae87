package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/marketplace-orders/internal/db"
	"github.com/nikolayk812/marketplace-orders/internal/port"
)

// withTx executes fn within a transaction if the repository was created with a pool,
// or uses the existing transaction if the repository was created with a transaction
func withTx[T any](ctx context.Context, dbtx db.DBTX, fn func(q *db.Queries) (T, error)) (T, error) {
	return inTx(ctx, dbtx, func(tx pgx.Tx) (T, error) {
		return fn(db.New(tx))
	})
}

func inTx[T any](ctx context.Context, dbtx db.DBTX, fn func(tx pgx.Tx) (T, error)) (_ T, txErr error) {
	var zero T

	// Already in a transaction, just use it
	if tx, ok := dbtx.(pgx.Tx); ok {
		return fn(tx)
	}

	// Must be a pool, create a new transaction
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

type txManager struct {
	pool *pgxpool.Pool
}

func NewTxManager(pool *pgxpool.Pool) port.TxManager {
	return &txManager{pool: pool}
}

func (m *txManager) Repositories() port.Repositories {
	return port.Repositories{
		Orders: NewOrder(m.pool),
		Offers: NewOffer(m.pool),
		Carts:  NewCart(m.pool),
		Buyers: NewBuyer(m.pool),
	}
}

func (m *txManager) WithinTx(ctx context.Context, fn func(repos port.Repositories) error) error {
	_, err := inTx(ctx, m.pool, func(tx pgx.Tx) (struct{}, error) {
		return struct{}{}, fn(port.Repositories{
			Orders: NewOrderWithTx(tx),
			Offers: NewOfferWithTx(tx),
			Carts:  NewCartWithTx(tx),
			Buyers: NewBuyerWithTx(tx),
		})
	})
	return err
}

// Migrate applies the database schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("db.Migrate: %w", err)
	}
	return nil
}
