package port

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/marketplace-orders/internal/domain"
)

type OrderRepository interface {
	// InsertOrder stores the order aggregate and returns it with generated
	// ids and timestamps.
	InsertOrder(ctx context.Context, order domain.Order) (domain.Order, error)

	GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
	// GetOrderForUpdate locks the order row until the surrounding transaction ends.
	GetOrderForUpdate(ctx context.Context, orderID uuid.UUID) (domain.Order, error)

	ListBuyerOrders(ctx context.Context, buyerID string) ([]domain.Order, error)
	ListSellerOrders(ctx context.Context, filter domain.SellerOrderFilter) (domain.SellerOrderPage, error)

	UpdateSuborderStatus(ctx context.Context, orderID, suborderID uuid.UUID, status domain.OrderStatus, at time.Time) error
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus, paymentStatus domain.PaymentStatus, at time.Time) error

	DeleteOrder(ctx context.Context, orderID uuid.UUID) error

	SaveIdempotencyKey(ctx context.Context, key string, orderID uuid.UUID) error
	GetOrderIDByIdempotencyKey(ctx context.Context, key string) (uuid.UUID, error)
}
