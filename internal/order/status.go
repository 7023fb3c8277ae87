package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nikolayk812/marketplace-orders/internal/domain"
	"github.com/nikolayk812/marketplace-orders/internal/port"
	"github.com/nikolayk812/marketplace-orders/internal/repository"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// UpdateSuborderStatus moves one suborder to status and folds the new set of
// suborder statuses into the parent order. The parent row stays locked
// until the transaction ends, so sibling updates are applied one at a time.
func (s *Service) UpdateSuborderStatus(ctx context.Context, orderID, suborderID uuid.UUID, status domain.OrderStatus) (_ domain.Order, err error) {
	ctx, span := tracer.Start(ctx, "order.UpdateSuborderStatus", trace.WithAttributes(
		attribute.String("order.id", orderID.String()),
		attribute.String("suborder.id", suborderID.String()),
		attribute.String("status", string(status)),
	))
	defer func() {
		endSpan(span, err)
	}()

	newTransitionError := func(reason string, err error) error {
		return &domain.StatusTransitionError{
			OrderID:    orderID.String(),
			SuborderID: suborderID.String(),
			Status:     string(status),
			Reason:     reason,
			Err:        err,
		}
	}

	if _, err := domain.ToOrderStatus(string(status)); err != nil {
		return domain.Order{}, newTransitionError("unknown status", err)
	}

	var updated domain.Order

	err = s.txManager.WithinTx(ctx, func(repos port.Repositories) error {
		order, err := repos.Orders.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return newTransitionError("order not found", &domain.NotFoundError{
					Entity:    "order",
					ID:        orderID.String(),
					ItemIndex: -1,
				})
			}
			return fmt.Errorf("orders.GetOrderForUpdate: %w", err)
		}

		at := s.now()

		if err := order.ApplySuborderStatus(suborderID, status, at); err != nil {
			return err
		}

		if err := repos.Orders.UpdateSuborderStatus(ctx, order.ID, suborderID, status, at); err != nil {
			return fmt.Errorf("orders.UpdateSuborderStatus: %w", err)
		}

		if err := repos.Orders.UpdateOrderStatus(ctx, order.ID, order.Status, order.PaymentStatus, at); err != nil {
			return fmt.Errorf("orders.UpdateOrderStatus: %w", err)
		}

		updated = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.metrics.StatusUpdated(string(status))
	s.logger.InfoContext(ctx, "suborder status updated",
		"order_id", orderID,
		"suborder_id", suborderID,
		"suborder_status", status,
		"order_status", updated.Status,
		"payment_status", updated.PaymentStatus,
	)

	return updated, nil
}
