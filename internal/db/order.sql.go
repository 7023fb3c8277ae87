package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, buyer_id, shipping_info, delivery_method, payment_method, currency,
       subtotal, shipping, tax, total, status, payment_status, created_at, status_updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.BuyerID,
		&o.ShippingInfo,
		&o.DeliveryMethod,
		&o.PaymentMethod,
		&o.Currency,
		&o.Subtotal,
		&o.Shipping,
		&o.Tax,
		&o.Total,
		&o.Status,
		&o.PaymentStatus,
		&o.CreatedAt,
		&o.StatusUpdatedAt,
	)
	return o, err
}

const insertOrder = `INSERT INTO orders (buyer_id, shipping_info, delivery_method, payment_method, currency,
                    subtotal, shipping, tax, total, status, payment_status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id, created_at, status_updated_at`

type InsertOrderParams struct {
	BuyerID        string
	ShippingInfo   []byte
	DeliveryMethod string
	PaymentMethod  string
	Currency       string
	Subtotal       decimal.Decimal
	Shipping       decimal.Decimal
	Tax            decimal.Decimal
	Total          decimal.Decimal
	Status         string
	PaymentStatus  string
}

type InsertOrderRow struct {
	ID              uuid.UUID
	CreatedAt       time.Time
	StatusUpdatedAt time.Time
}

func (q *Queries) InsertOrder(ctx context.Context, arg InsertOrderParams) (InsertOrderRow, error) {
	row := q.db.QueryRow(ctx, insertOrder,
		arg.BuyerID,
		arg.ShippingInfo,
		arg.DeliveryMethod,
		arg.PaymentMethod,
		arg.Currency,
		arg.Subtotal,
		arg.Shipping,
		arg.Tax,
		arg.Total,
		arg.Status,
		arg.PaymentStatus,
	)
	var i InsertOrderRow
	err := row.Scan(&i.ID, &i.CreatedAt, &i.StatusUpdatedAt)
	return i, err
}

const insertOrderItem = `INSERT INTO order_items (order_id, position, product_id, seller_id, quantity, price_amount, promotion)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

type InsertOrderItemParams struct {
	OrderID     uuid.UUID
	Position    int32
	ProductID   string
	SellerID    string
	Quantity    int32
	PriceAmount decimal.Decimal
	Promotion   []byte
}

func (q *Queries) InsertOrderItem(ctx context.Context, arg InsertOrderItemParams) error {
	_, err := q.db.Exec(ctx, insertOrderItem,
		arg.OrderID,
		arg.Position,
		arg.ProductID,
		arg.SellerID,
		arg.Quantity,
		arg.PriceAmount,
		arg.Promotion,
	)
	return err
}

const insertSuborder = `INSERT INTO suborders (order_id, position, seller_id, subtotal, status, status_updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`

type InsertSuborderParams struct {
	OrderID         uuid.UUID
	Position        int32
	SellerID        string
	Subtotal        decimal.Decimal
	Status          string
	StatusUpdatedAt time.Time
}

func (q *Queries) InsertSuborder(ctx context.Context, arg InsertSuborderParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, insertSuborder,
		arg.OrderID,
		arg.Position,
		arg.SellerID,
		arg.Subtotal,
		arg.Status,
		arg.StatusUpdatedAt,
	)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}

const getOrder = `SELECT ` + orderColumns + `
FROM orders
WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderForUpdate = getOrder + `
FOR UPDATE`

func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, id))
}

const listOrdersByBuyer = `SELECT ` + orderColumns + `
FROM orders
WHERE buyer_id = $1
ORDER BY created_at DESC, id`

func (q *Queries) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByBuyer, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getOrderItems = `SELECT order_id, position, product_id, seller_id, quantity, price_amount, promotion
FROM order_items
WHERE order_id = ANY($1::uuid[])
ORDER BY order_id, position`

func (q *Queries) GetOrderItems(ctx context.Context, orderIDs []uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, getOrderItems, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(
			&i.OrderID,
			&i.Position,
			&i.ProductID,
			&i.SellerID,
			&i.Quantity,
			&i.PriceAmount,
			&i.Promotion,
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

const getSuborders = `SELECT id, order_id, position, seller_id, subtotal, status, status_updated_at
FROM suborders
WHERE order_id = ANY($1::uuid[])
ORDER BY order_id, position`

func (q *Queries) GetSuborders(ctx context.Context, orderIDs []uuid.UUID) ([]Suborder, error) {
	rows, err := q.db.Query(ctx, getSuborders, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Suborder
	for rows.Next() {
		var i Suborder
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.Position,
			&i.SellerID,
			&i.Subtotal,
			&i.Status,
			&i.StatusUpdatedAt,
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

const listSellerOrders = `SELECT o.id, o.buyer_id, o.shipping_info, o.delivery_method, o.payment_method, o.currency,
       o.total, o.status, o.payment_status, o.created_at,
       s.id, s.subtotal, s.status, s.status_updated_at,
       count(*) OVER () AS total_count
FROM suborders s
         JOIN orders o ON o.id = s.order_id
WHERE s.seller_id = $1
  AND ($2::text[] IS NULL OR s.status = ANY ($2::text[]))
  AND ($3::timestamptz IS NULL OR o.created_at > $3::timestamptz)
  AND ($4::timestamptz IS NULL OR o.created_at < $4::timestamptz)
ORDER BY o.created_at DESC, o.id
LIMIT $5 OFFSET $6`

type ListSellerOrdersParams struct {
	SellerID      string
	Statuses      []string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Limit         int32
	Offset        int32
}

type ListSellerOrdersRow struct {
	OrderID                 uuid.UUID
	BuyerID                 string
	ShippingInfo            []byte
	DeliveryMethod          string
	PaymentMethod           string
	Currency                string
	Total                   decimal.Decimal
	Status                  string
	PaymentStatus           string
	CreatedAt               time.Time
	SuborderID              uuid.UUID
	SuborderSubtotal        decimal.Decimal
	SuborderStatus          string
	SuborderStatusUpdatedAt time.Time
	TotalCount              int64
}

func (q *Queries) ListSellerOrders(ctx context.Context, arg ListSellerOrdersParams) ([]ListSellerOrdersRow, error) {
	rows, err := q.db.Query(ctx, listSellerOrders,
		arg.SellerID,
		arg.Statuses,
		arg.CreatedAfter,
		arg.CreatedBefore,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ListSellerOrdersRow
	for rows.Next() {
		var i ListSellerOrdersRow
		if err := rows.Scan(
			&i.OrderID,
			&i.BuyerID,
			&i.ShippingInfo,
			&i.DeliveryMethod,
			&i.PaymentMethod,
			&i.Currency,
			&i.Total,
			&i.Status,
			&i.PaymentStatus,
			&i.CreatedAt,
			&i.SuborderID,
			&i.SuborderSubtotal,
			&i.SuborderStatus,
			&i.SuborderStatusUpdatedAt,
			&i.TotalCount,
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

const countSellerOrders = `SELECT count(*)
FROM suborders s
         JOIN orders o ON o.id = s.order_id
WHERE s.seller_id = $1
  AND ($2::text[] IS NULL OR s.status = ANY ($2::text[]))
  AND ($3::timestamptz IS NULL OR o.created_at > $3::timestamptz)
  AND ($4::timestamptz IS NULL OR o.created_at < $4::timestamptz)`

// CountSellerOrders is used when the requested page is past the last row,
// where the window count of ListSellerOrders is unavailable.
func (q *Queries) CountSellerOrders(ctx context.Context, arg ListSellerOrdersParams) (int64, error) {
	row := q.db.QueryRow(ctx, countSellerOrders,
		arg.SellerID,
		arg.Statuses,
		arg.CreatedAfter,
		arg.CreatedBefore,
	)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updateSuborderStatus = `UPDATE suborders
SET status            = $3,
    status_updated_at = $4
WHERE order_id = $1
  AND id = $2`

type UpdateSuborderStatusParams struct {
	OrderID         uuid.UUID
	ID              uuid.UUID
	Status          string
	StatusUpdatedAt time.Time
}

func (q *Queries) UpdateSuborderStatus(ctx context.Context, arg UpdateSuborderStatusParams) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, updateSuborderStatus, arg.OrderID, arg.ID, arg.Status, arg.StatusUpdatedAt)
}

const updateOrderStatus = `UPDATE orders
SET status            = $2,
    payment_status    = $3,
    status_updated_at = $4
WHERE id = $1`

type UpdateOrderStatusParams struct {
	ID              uuid.UUID
	Status          string
	PaymentStatus   string
	StatusUpdatedAt time.Time
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, updateOrderStatus, arg.ID, arg.Status, arg.PaymentStatus, arg.StatusUpdatedAt)
}

const deleteOrder = `DELETE FROM orders WHERE id = $1`

// DeleteOrder removes the order; items, suborders and idempotency keys cascade.
func (q *Queries) DeleteOrder(ctx context.Context, id uuid.UUID) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, deleteOrder, id)
}

const insertIdempotencyKey = `INSERT INTO order_idempotency (idempotency_key, order_id)
VALUES ($1, $2)`

func (q *Queries) InsertIdempotencyKey(ctx context.Context, key string, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, insertIdempotencyKey, key, orderID)
	return err
}

const getOrderIDByIdempotencyKey = `SELECT order_id
FROM order_idempotency
WHERE idempotency_key = $1`

func (q *Queries) GetOrderIDByIdempotencyKey(ctx context.Context, key string) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, getOrderIDByIdempotencyKey, key)
	var orderID uuid.UUID
	err := row.Scan(&orderID)
	return orderID, err
}
