package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const getOffer = `SELECT product_id, seller_id, price_amount, price_currency, stock, active, updated_at
FROM offers
WHERE product_id = $1
  AND seller_id = $2`

type GetOfferParams struct {
	ProductID string
	SellerID  string
}

func (q *Queries) GetOffer(ctx context.Context, arg GetOfferParams) (Offer, error) {
	row := q.db.QueryRow(ctx, getOffer, arg.ProductID, arg.SellerID)
	var i Offer
	err := row.Scan(
		&i.ProductID,
		&i.SellerID,
		&i.PriceAmount,
		&i.PriceCurrency,
		&i.Stock,
		&i.Active,
		&i.UpdatedAt,
	)
	return i, err
}

const productExists = `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`

func (q *Queries) ProductExists(ctx context.Context, id string) (bool, error) {
	row := q.db.QueryRow(ctx, productExists, id)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const decrementStock = `UPDATE offers
SET stock      = stock - $3,
    updated_at = now()
WHERE product_id = $1
  AND seller_id = $2
  AND active
  AND stock >= $3`

type ChangeStockParams struct {
	ProductID string
	SellerID  string
	Quantity  int32
}

// DecrementStock is a compare-and-decrement: zero rows affected means the
// offer is gone, inactive or short of stock.
func (q *Queries) DecrementStock(ctx context.Context, arg ChangeStockParams) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, decrementStock, arg.ProductID, arg.SellerID, arg.Quantity)
}

const incrementStock = `UPDATE offers
SET stock      = stock + $3,
    updated_at = now()
WHERE product_id = $1
  AND seller_id = $2`

func (q *Queries) IncrementStock(ctx context.Context, arg ChangeStockParams) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, incrementStock, arg.ProductID, arg.SellerID, arg.Quantity)
}

const upsertProduct = `INSERT INTO products (id, name)
VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET name = excluded.name`

func (q *Queries) UpsertProduct(ctx context.Context, id, name string) error {
	_, err := q.db.Exec(ctx, upsertProduct, id, name)
	return err
}

const upsertOffer = `INSERT INTO offers (product_id, seller_id, price_amount, price_currency, stock, active)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (product_id, seller_id) DO UPDATE
    SET price_amount   = excluded.price_amount,
        price_currency = excluded.price_currency,
        stock          = excluded.stock,
        active         = excluded.active,
        updated_at     = now()`

type UpsertOfferParams struct {
	ProductID     string
	SellerID      string
	PriceAmount   decimal.Decimal
	PriceCurrency string
	Stock         int32
	Active        bool
}

func (q *Queries) UpsertOffer(ctx context.Context, arg UpsertOfferParams) error {
	_, err := q.db.Exec(ctx, upsertOffer,
		arg.ProductID,
		arg.SellerID,
		arg.PriceAmount,
		arg.PriceCurrency,
		arg.Stock,
		arg.Active,
	)
	return err
}
