package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/marketplace-orders/internal/db"
	"github.com/nikolayk812/marketplace-orders/internal/domain"
	"github.com/nikolayk812/marketplace-orders/internal/port"
	"github.com/samber/lo"
	"golang.org/x/text/currency"
)

type orderRepository struct {
	q    *db.Queries
	dbtx db.DBTX
}

func NewOrder(pool *pgxpool.Pool) port.OrderRepository {
	return &orderRepository{
		q:    db.New(pool),
		dbtx: pool,
	}
}

func NewOrderWithTx(tx pgx.Tx) port.OrderRepository {
	return &orderRepository{
		q:    db.New(tx),
		dbtx: tx, // use provided transaction instead
	}
}

func (r *orderRepository) InsertOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	var o domain.Order

	if len(order.Items) == 0 {
		return o, errors.New("no items in order")
	}
	if len(order.Suborders) == 0 {
		return o, errors.New("no suborders in order")
	}

	shippingInfo, err := json.Marshal(order.ShippingInfo)
	if err != nil {
		return o, fmt.Errorf("json.Marshal[shippingInfo]: %w", err)
	}

	return withTx(ctx, r.dbtx, func(q *db.Queries) (domain.Order, error) {
		row, err := q.InsertOrder(ctx, db.InsertOrderParams{
			BuyerID:        order.BuyerID,
			ShippingInfo:   shippingInfo,
			DeliveryMethod: string(order.DeliveryMethod),
			PaymentMethod:  order.PaymentMethod,
			Currency:       order.Currency.String(),
			Subtotal:       order.Subtotal,
			Shipping:       order.Shipping,
			Tax:            order.Tax,
			Total:          order.Total,
			Status:         string(order.Status),
			PaymentStatus:  string(order.PaymentStatus),
		})
		if err != nil {
			return o, fmt.Errorf("q.InsertOrder: %w", err)
		}

		for idx, item := range order.Items {
			promotion, err := marshalPromotion(item.Promotion)
			if err != nil {
				return o, fmt.Errorf("marshalPromotion[%d]: %w", idx, err)
			}

			arg := db.InsertOrderItemParams{
				OrderID:     row.ID,
				Position:    int32(idx),
				ProductID:   item.ProductID,
				SellerID:    item.SellerID,
				Quantity:    int32(item.Quantity),
				PriceAmount: item.Price,
				Promotion:   promotion,
			}
			if err := q.InsertOrderItem(ctx, arg); err != nil {
				return o, fmt.Errorf("q.InsertOrderItem: %w", err)
			}
		}

		saved := order
		saved.ID = row.ID
		saved.CreatedAt = row.CreatedAt
		saved.StatusUpdatedAt = row.StatusUpdatedAt
		saved.Suborders = make([]domain.Suborder, len(order.Suborders))

		for idx, sub := range order.Suborders {
			suborderID, err := q.InsertSuborder(ctx, db.InsertSuborderParams{
				OrderID:         row.ID,
				Position:        int32(idx),
				SellerID:        sub.SellerID,
				Subtotal:        sub.Subtotal,
				Status:          string(sub.Status),
				StatusUpdatedAt: row.StatusUpdatedAt,
			})
			if err != nil {
				return o, fmt.Errorf("q.InsertSuborder: %w", err)
			}

			sub.ID = suborderID
			sub.StatusUpdatedAt = row.StatusUpdatedAt
			saved.Suborders[idx] = sub
		}

		return saved, nil
	})
}

func (r *orderRepository) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	return r.getOrder(ctx, orderID, (*db.Queries).GetOrder)
}

// GetOrderForUpdate only holds the lock when the repository is bound to a transaction.
func (r *orderRepository) GetOrderForUpdate(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	return r.getOrder(ctx, orderID, (*db.Queries).GetOrderForUpdate)
}

func (r *orderRepository) getOrder(
	ctx context.Context,
	orderID uuid.UUID,
	get func(q *db.Queries, ctx context.Context, id uuid.UUID) (db.Order, error),
) (domain.Order, error) {
	var o domain.Order

	if orderID == uuid.Nil {
		return o, fmt.Errorf("orderID is empty")
	}

	order, err := withTx(ctx, r.dbtx, func(q *db.Queries) (domain.Order, error) {
		dbOrder, err := get(q, ctx, orderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return o, fmt.Errorf("q.GetOrder: %w", ErrNotFound)
			}
			return o, fmt.Errorf("q.GetOrder: %w", err)
		}

		orders, err := r.resolveOrders(ctx, q, []db.Order{dbOrder})
		if err != nil {
			return o, fmt.Errorf("r.resolveOrders: %w", err)
		}

		return orders[0], nil
	})
	if err != nil {
		return o, fmt.Errorf("withTx: %w", err)
	}

	return order, nil
}

func (r *orderRepository) ListBuyerOrders(ctx context.Context, buyerID string) ([]domain.Order, error) {
	if buyerID == "" {
		return nil, fmt.Errorf("buyerID is empty")
	}

	orders, err := withTx(ctx, r.dbtx, func(q *db.Queries) ([]domain.Order, error) {
		dbOrders, err := q.ListOrdersByBuyer(ctx, buyerID)
		if err != nil {
			return nil, fmt.Errorf("q.ListOrdersByBuyer: %w", err)
		}

		return r.resolveOrders(ctx, q, dbOrders)
	})
	if err != nil {
		return nil, fmt.Errorf("withTx: %w", err)
	}

	return orders, nil
}

// resolveOrders loads items and suborders of all given orders with one query each.
func (r *orderRepository) resolveOrders(ctx context.Context, q *db.Queries, dbOrders []db.Order) ([]domain.Order, error) {
	if len(dbOrders) == 0 {
		return nil, nil
	}

	ids := lo.Map(dbOrders, func(o db.Order, _ int) uuid.UUID { return o.ID })

	dbItems, err := q.GetOrderItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("q.GetOrderItems: %w", err)
	}

	dbSuborders, err := q.GetSuborders(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("q.GetSuborders: %w", err)
	}

	itemsByOrder := lo.GroupBy(dbItems, func(i db.OrderItem) uuid.UUID { return i.OrderID })
	subordersByOrder := lo.GroupBy(dbSuborders, func(s db.Suborder) uuid.UUID { return s.OrderID })

	result := make([]domain.Order, 0, len(dbOrders))
	for _, dbOrder := range dbOrders {
		order, err := mapDBOrderToDomain(dbOrder, itemsByOrder[dbOrder.ID], subordersByOrder[dbOrder.ID])
		if err != nil {
			return nil, fmt.Errorf("mapDBOrderToDomain[%s]: %w", dbOrder.ID, err)
		}
		result = append(result, order)
	}

	return result, nil
}

func mapDomainSellerFilterToDB(filter domain.SellerOrderFilter) db.ListSellerOrdersParams {
	var statuses []string
	for _, status := range filter.Statuses {
		statuses = append(statuses, string(status))
	}

	var createdAfter, createdBefore *time.Time

	if filter.CreatedAt != nil {
		createdAfter = filter.CreatedAt.After
		createdBefore = filter.CreatedAt.Before
	}

	return db.ListSellerOrdersParams{
		SellerID:      filter.SellerID,
		Statuses:      nilSliceIfEmpty(statuses),
		CreatedAfter:  createdAfter,
		CreatedBefore: createdBefore,
		Limit:         int32(filter.Page.Limit),
		Offset:        int32(filter.Page.Offset()),
	}
}

func (r *orderRepository) ListSellerOrders(ctx context.Context, filter domain.SellerOrderFilter) (domain.SellerOrderPage, error) {
	var p domain.SellerOrderPage

	if err := filter.Validate(); err != nil {
		return p, fmt.Errorf("filter.Validate: %w", err)
	}

	arg := mapDomainSellerFilterToDB(filter)

	return withTx(ctx, r.dbtx, func(q *db.Queries) (domain.SellerOrderPage, error) {
		rows, err := q.ListSellerOrders(ctx, arg)
		if err != nil {
			return p, fmt.Errorf("q.ListSellerOrders: %w", err)
		}

		var total int64
		switch {
		case len(rows) > 0:
			total = rows[0].TotalCount
		case arg.Offset > 0:
			total, err = q.CountSellerOrders(ctx, arg)
			if err != nil {
				return p, fmt.Errorf("q.CountSellerOrders: %w", err)
			}
		}

		orderIDs := lo.Map(rows, func(row db.ListSellerOrdersRow, _ int) uuid.UUID { return row.OrderID })

		var dbItems []db.OrderItem
		if len(orderIDs) > 0 {
			dbItems, err = q.GetOrderItems(ctx, orderIDs)
			if err != nil {
				return p, fmt.Errorf("q.GetOrderItems: %w", err)
			}
		}

		sellerItems := lo.GroupBy(
			lo.Filter(dbItems, func(i db.OrderItem, _ int) bool { return i.SellerID == filter.SellerID }),
			func(i db.OrderItem) uuid.UUID { return i.OrderID },
		)

		orders := make([]domain.SellerOrder, 0, len(rows))
		for _, row := range rows {
			so, err := mapListSellerOrdersRowToDomain(row, filter.SellerID, sellerItems[row.OrderID])
			if err != nil {
				return p, fmt.Errorf("mapListSellerOrdersRowToDomain[%s]: %w", row.OrderID, err)
			}
			orders = append(orders, so)
		}

		return domain.SellerOrderPage{
			Orders: orders,
			Total:  int(total),
			Page:   filter.Page,
		}, nil
	})
}

func (r *orderRepository) UpdateSuborderStatus(ctx context.Context, orderID, suborderID uuid.UUID, status domain.OrderStatus, at time.Time) error {
	if orderID == uuid.Nil {
		return fmt.Errorf("orderID is empty")
	}
	if status == "" {
		return fmt.Errorf("status is empty")
	}

	cmdTag, err := r.q.UpdateSuborderStatus(ctx, db.UpdateSuborderStatusParams{
		OrderID:         orderID,
		ID:              suborderID,
		Status:          string(status),
		StatusUpdatedAt: at,
	})
	if err != nil {
		return fmt.Errorf("q.UpdateSuborderStatus: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("q.UpdateSuborderStatus: %w", ErrSuborderNotFound)
	}

	return nil
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus, paymentStatus domain.PaymentStatus, at time.Time) error {
	if orderID == uuid.Nil {
		return fmt.Errorf("orderID is empty")
	}
	if status == "" {
		return fmt.Errorf("status is empty")
	}

	cmdTag, err := r.q.UpdateOrderStatus(ctx, db.UpdateOrderStatusParams{
		ID:              orderID,
		Status:          string(status),
		PaymentStatus:   string(paymentStatus),
		StatusUpdatedAt: at,
	})
	if err != nil {
		return fmt.Errorf("q.UpdateOrderStatus: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("q.UpdateOrderStatus: %w", ErrNotFound)
	}

	return nil
}

func (r *orderRepository) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return fmt.Errorf("orderID is empty")
	}

	cmdTag, err := r.q.DeleteOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("q.DeleteOrder: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("q.DeleteOrder: %w", ErrNotFound)
	}

	return nil
}

func (r *orderRepository) SaveIdempotencyKey(ctx context.Context, key string, orderID uuid.UUID) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}

	if err := r.q.InsertIdempotencyKey(ctx, key, orderID); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("q.InsertIdempotencyKey: %w", ErrDuplicateIdempotencyKey)
		}
		return fmt.Errorf("q.InsertIdempotencyKey: %w", err)
	}

	return nil
}

func (r *orderRepository) GetOrderIDByIdempotencyKey(ctx context.Context, key string) (uuid.UUID, error) {
	orderID, err := r.q.GetOrderIDByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("q.GetOrderIDByIdempotencyKey: %w", ErrIdempotencyKeyNotFound)
		}
		return uuid.Nil, fmt.Errorf("q.GetOrderIDByIdempotencyKey: %w", err)
	}

	return orderID, nil
}

func mapDBOrderToDomain(dbOrder db.Order, dbItems []db.OrderItem, dbSuborders []db.Suborder) (domain.Order, error) {
	var o domain.Order

	items, err := mapDBOrderItemsToDomain(dbItems)
	if err != nil {
		return o, fmt.Errorf("mapDBOrderItemsToDomain: %w", err)
	}

	suborders := make([]domain.Suborder, 0, len(dbSuborders))
	for _, dbSub := range dbSuborders {
		sub, err := mapDBSuborderToDomain(dbSub, items)
		if err != nil {
			return o, fmt.Errorf("mapDBSuborderToDomain: %w", err)
		}
		suborders = append(suborders, sub)
	}

	shippingInfo, err := unmarshalShippingInfo(dbOrder.ShippingInfo)
	if err != nil {
		return o, fmt.Errorf("unmarshalShippingInfo: %w", err)
	}

	parsedCurrency, err := currency.ParseISO(dbOrder.Currency)
	if err != nil {
		return o, fmt.Errorf("currency[%s] is not valid: %w", dbOrder.Currency, err)
	}

	status, err := domain.ToOrderStatus(dbOrder.Status)
	if err != nil {
		return o, fmt.Errorf("domain.ToOrderStatus[%s]: %w", dbOrder.Status, err)
	}

	paymentStatus, err := domain.ToPaymentStatus(dbOrder.PaymentStatus)
	if err != nil {
		return o, fmt.Errorf("domain.ToPaymentStatus[%s]: %w", dbOrder.PaymentStatus, err)
	}

	deliveryMethod, err := domain.ToDeliveryMethod(dbOrder.DeliveryMethod)
	if err != nil {
		return o, fmt.Errorf("domain.ToDeliveryMethod[%s]: %w", dbOrder.DeliveryMethod, err)
	}

	return domain.Order{
		ID:              dbOrder.ID,
		BuyerID:         dbOrder.BuyerID,
		Items:           items,
		Suborders:       suborders,
		ShippingInfo:    shippingInfo,
		DeliveryMethod:  deliveryMethod,
		PaymentMethod:   dbOrder.PaymentMethod,
		Currency:        parsedCurrency,
		Subtotal:        dbOrder.Subtotal,
		Shipping:        dbOrder.Shipping,
		Tax:             dbOrder.Tax,
		Total:           dbOrder.Total,
		Status:          status,
		PaymentStatus:   paymentStatus,
		CreatedAt:       dbOrder.CreatedAt,
		StatusUpdatedAt: dbOrder.StatusUpdatedAt,
	}, nil
}

func mapDBOrderItemsToDomain(rows []db.OrderItem) ([]domain.OrderItem, error) {
	var items []domain.OrderItem

	for _, row := range rows {
		promotion, err := unmarshalPromotion(row.Promotion)
		if err != nil {
			return nil, fmt.Errorf("unmarshalPromotion[%d]: %w", row.Position, err)
		}

		items = append(items, domain.OrderItem{
			ProductID: row.ProductID,
			SellerID:  row.SellerID,
			Quantity:  int(row.Quantity),
			Price:     row.PriceAmount,
			Promotion: promotion,
		})
	}

	return items, nil
}

func mapDBSuborderToDomain(row db.Suborder, orderItems []domain.OrderItem) (domain.Suborder, error) {
	status, err := domain.ToOrderStatus(row.Status)
	if err != nil {
		return domain.Suborder{}, fmt.Errorf("domain.ToOrderStatus[%s]: %w", row.Status, err)
	}

	return domain.Suborder{
		ID:       row.ID,
		SellerID: row.SellerID,
		Items: lo.Filter(orderItems, func(item domain.OrderItem, _ int) bool {
			return item.SellerID == row.SellerID
		}),
		Subtotal:        row.Subtotal,
		Status:          status,
		StatusUpdatedAt: row.StatusUpdatedAt,
	}, nil
}

func mapListSellerOrdersRowToDomain(row db.ListSellerOrdersRow, sellerID string, dbItems []db.OrderItem) (domain.SellerOrder, error) {
	var so domain.SellerOrder

	items, err := mapDBOrderItemsToDomain(dbItems)
	if err != nil {
		return so, fmt.Errorf("mapDBOrderItemsToDomain: %w", err)
	}

	shippingInfo, err := unmarshalShippingInfo(row.ShippingInfo)
	if err != nil {
		return so, fmt.Errorf("unmarshalShippingInfo: %w", err)
	}

	parsedCurrency, err := currency.ParseISO(row.Currency)
	if err != nil {
		return so, fmt.Errorf("currency[%s] is not valid: %w", row.Currency, err)
	}

	orderStatus, err := domain.ToOrderStatus(row.Status)
	if err != nil {
		return so, fmt.Errorf("domain.ToOrderStatus[%s]: %w", row.Status, err)
	}

	suborderStatus, err := domain.ToOrderStatus(row.SuborderStatus)
	if err != nil {
		return so, fmt.Errorf("domain.ToOrderStatus[%s]: %w", row.SuborderStatus, err)
	}

	paymentStatus, err := domain.ToPaymentStatus(row.PaymentStatus)
	if err != nil {
		return so, fmt.Errorf("domain.ToPaymentStatus[%s]: %w", row.PaymentStatus, err)
	}

	deliveryMethod, err := domain.ToDeliveryMethod(row.DeliveryMethod)
	if err != nil {
		return so, fmt.Errorf("domain.ToDeliveryMethod[%s]: %w", row.DeliveryMethod, err)
	}

	return domain.SellerOrder{
		OrderID:        row.OrderID,
		BuyerID:        row.BuyerID,
		ShippingInfo:   shippingInfo,
		DeliveryMethod: deliveryMethod,
		PaymentMethod:  row.PaymentMethod,
		PaymentStatus:  paymentStatus,
		OrderStatus:    orderStatus,
		Currency:       parsedCurrency,
		OrderTotal:     row.Total,
		CreatedAt:      row.CreatedAt,
		Suborder: domain.Suborder{
			ID:              row.SuborderID,
			SellerID:        sellerID,
			Items:           items,
			Subtotal:        row.SuborderSubtotal,
			Status:          suborderStatus,
			StatusUpdatedAt: row.SuborderStatusUpdatedAt,
		},
	}, nil
}

func unmarshalShippingInfo(data []byte) (domain.ShippingInfo, error) {
	var info domain.ShippingInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return info, fmt.Errorf("json.Unmarshal: %w", err)
	}
	return info, nil
}

func marshalPromotion(p *domain.Promotion) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

func unmarshalPromotion(data []byte) (*domain.Promotion, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var p domain.Promotion
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("json.Unmarshal: %w", err)
	}
	return &p, nil
}

func nilSliceIfEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}
