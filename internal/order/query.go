package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nikolayk812/marketplace-orders/internal/domain"
	"github.com/nikolayk812/marketplace-orders/internal/repository"
)

func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	if orderID == uuid.Nil {
		return domain.Order{}, &domain.ValidationError{Field: "orderID", Reason: "is empty"}
	}

	order, err := s.repos.Orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Order{}, &domain.NotFoundError{Entity: "order", ID: orderID.String(), ItemIndex: -1}
		}
		return domain.Order{}, fmt.Errorf("orders.GetOrder: %w", err)
	}

	return order, nil
}

// ListBuyerOrders returns the buyer's orders, newest first.
func (s *Service) ListBuyerOrders(ctx context.Context, buyerID string) ([]domain.Order, error) {
	if buyerID == "" {
		return nil, &domain.ValidationError{Field: "buyerID", Reason: "is empty"}
	}

	orders, err := s.repos.Orders.ListBuyerOrders(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("orders.ListBuyerOrders: %w", err)
	}

	return orders, nil
}

// ListSellerOrders pages through the seller's suborders. A zero page
// number or limit falls back to the first page of DefaultPageLimit.
func (s *Service) ListSellerOrders(ctx context.Context, filter domain.SellerOrderFilter) (domain.SellerOrderPage, error) {
	if filter.Page.Number == 0 {
		filter.Page.Number = 1
	}
	if filter.Page.Limit == 0 {
		filter.Page.Limit = domain.DefaultPageLimit
	}

	if err := filter.Validate(); err != nil {
		return domain.SellerOrderPage{}, &domain.ValidationError{Field: "filter", Reason: err.Error()}
	}

	page, err := s.repos.Orders.ListSellerOrders(ctx, filter)
	if err != nil {
		return domain.SellerOrderPage{}, fmt.Errorf("orders.ListSellerOrders: %w", err)
	}

	return page, nil
}
