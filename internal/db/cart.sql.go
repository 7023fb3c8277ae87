package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const cartExists = `SELECT EXISTS (SELECT 1 FROM carts WHERE owner_id = $1)`

func (q *Queries) CartExists(ctx context.Context, ownerID string) (bool, error) {
	row := q.db.QueryRow(ctx, cartExists, ownerID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const getCart = `SELECT owner_id, product_id, seller_id, quantity, price_amount, price_currency, created_at
FROM cart_items
WHERE owner_id = $1
ORDER BY created_at, product_id, seller_id`

func (q *Queries) GetCart(ctx context.Context, ownerID string) ([]CartItem, error) {
	rows, err := q.db.Query(ctx, getCart, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CartItem
	for rows.Next() {
		var i CartItem
		if err := rows.Scan(
			&i.OwnerID,
			&i.ProductID,
			&i.SellerID,
			&i.Quantity,
			&i.PriceAmount,
			&i.PriceCurrency,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertCart = `INSERT INTO carts (owner_id)
VALUES ($1)
ON CONFLICT (owner_id) DO UPDATE SET updated_at = now()`

func (q *Queries) UpsertCart(ctx context.Context, ownerID string) error {
	_, err := q.db.Exec(ctx, upsertCart, ownerID)
	return err
}

const deleteCartItems = `DELETE FROM cart_items WHERE owner_id = $1`

func (q *Queries) DeleteCartItems(ctx context.Context, ownerID string) error {
	_, err := q.db.Exec(ctx, deleteCartItems, ownerID)
	return err
}

const addItem = `INSERT INTO cart_items (owner_id, product_id, seller_id, quantity, price_amount, price_currency, created_at)
VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7::timestamptz, now()))
ON CONFLICT (owner_id, product_id, seller_id) DO UPDATE
    SET quantity       = excluded.quantity,
        price_amount   = excluded.price_amount,
        price_currency = excluded.price_currency`

type AddItemParams struct {
	OwnerID       string
	ProductID     string
	SellerID      string
	Quantity      int32
	PriceAmount   decimal.Decimal
	PriceCurrency string
	CreatedAt     *time.Time
}

func (q *Queries) AddItem(ctx context.Context, arg AddItemParams) error {
	_, err := q.db.Exec(ctx, addItem,
		arg.OwnerID,
		arg.ProductID,
		arg.SellerID,
		arg.Quantity,
		arg.PriceAmount,
		arg.PriceCurrency,
		arg.CreatedAt,
	)
	return err
}

const deleteCart = `DELETE FROM carts WHERE owner_id = $1`

func (q *Queries) DeleteCart(ctx context.Context, ownerID string) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, deleteCart, ownerID)
}

const deleteCartOffers = `DELETE FROM cart_items
WHERE owner_id = $1
  AND (product_id, seller_id) IN (SELECT * FROM unnest($2::text[], $3::text[]))`

func (q *Queries) DeleteCartOffers(ctx context.Context, ownerID string, productIDs, sellerIDs []string) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, deleteCartOffers, ownerID, productIDs, sellerIDs)
}

const deleteCartIfEmpty = `DELETE FROM carts c
WHERE c.owner_id = $1
  AND NOT EXISTS (SELECT 1 FROM cart_items i WHERE i.owner_id = c.owner_id)`

func (q *Queries) DeleteCartIfEmpty(ctx context.Context, ownerID string) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, deleteCartIfEmpty, ownerID)
}
