package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/marketplace-orders/internal/port"
	"github.com/redis/go-redis/v9"
)

const checkoutOperation = "checkout"

type redisCache struct {
	client      *redis.Client
	serviceName string
}

// NewRedisCache keeps idempotency key -> order id mappings in Redis.
func NewRedisCache(client *redis.Client, serviceName string) port.IdempotencyCache {
	return &redisCache{
		client:      client,
		serviceName: serviceName,
	}
}

func (r *redisCache) GetOrderID(ctx context.Context, key string) (uuid.UUID, bool, error) {
	value, err := r.client.Get(ctx, r.generateKey(checkoutOperation, key)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("client.Get: %w", err)
	}

	orderID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("uuid.Parse[%s]: %w", value, err)
	}

	return orderID, true, nil
}

func (r *redisCache) SetOrderID(ctx context.Context, key string, orderID uuid.UUID, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.generateKey(checkoutOperation, key), orderID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("client.Set: %w", err)
	}
	return nil
}

func (r *redisCache) generateKey(operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", r.serviceName, operation, key)
}
