package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/marketplace-orders/internal/domain"
)

type OrderService interface {
	Checkout(ctx context.Context, checkout domain.Checkout) (domain.Order, error)
	UpdateSuborderStatus(ctx context.Context, orderID, suborderID uuid.UUID, status domain.OrderStatus) (domain.Order, error)

	GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
	ListBuyerOrders(ctx context.Context, buyerID string) ([]domain.Order, error)
	ListSellerOrders(ctx context.Context, filter domain.SellerOrderFilter) (domain.SellerOrderPage, error)
}
