package port

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/marketplace-orders/internal/domain"
)

type Notifier interface {
	OrderCreated(ctx context.Context, event domain.OrderCreated) error
}

// IdempotencyCache is a fast lookup in front of the authoritative
// idempotency keys stored with the orders.
type IdempotencyCache interface {
	GetOrderID(ctx context.Context, key string) (uuid.UUID, bool, error)
	SetOrderID(ctx context.Context, key string, orderID uuid.UUID, ttl time.Duration) error
}
