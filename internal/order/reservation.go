package order

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/nikolayk812/marketplace-orders/internal/domain"
	"github.com/nikolayk812/marketplace-orders/internal/port"
	"github.com/nikolayk812/marketplace-orders/internal/repository"
)

type reservedItem struct {
	key      domain.OfferKey
	quantity int
}

// Reservation decrements offer stock item by item and remembers every
// successful decrement so that it can be released again.
type Reservation struct {
	offers   port.OfferRepository
	reserved []reservedItem
}

func NewReservation(offers port.OfferRepository) *Reservation {
	return &Reservation{offers: offers}
}

// Reserve applies the conditional decrement to every item. Offers are
// decremented in (ProductID, SellerID) order so that concurrent checkouts
// lock shared offer rows in the same order.
//
// When an offer runs short the decrements made so far are released and an
// InsufficientStockError carrying the stock left is returned.
func (r *Reservation) Reserve(ctx context.Context, items []domain.OrderItem) error {
	sorted := make([]int, len(items))
	for i := range sorted {
		sorted[i] = i
	}
	slices.SortStableFunc(sorted, func(a, b int) int {
		return cmp.Or(
			cmp.Compare(items[a].ProductID, items[b].ProductID),
			cmp.Compare(items[a].SellerID, items[b].SellerID),
		)
	})

	for _, idx := range sorted {
		item := items[idx]

		err := r.offers.DecrementStock(ctx, item.OfferKey(), item.Quantity)
		if err == nil {
			r.reserved = append(r.reserved, reservedItem{key: item.OfferKey(), quantity: item.Quantity})
			continue
		}

		if !errors.Is(err, repository.ErrOfferUnavailable) {
			return fmt.Errorf("offers.DecrementStock: %w", err)
		}

		shortErr := r.shortage(ctx, idx, item, err)

		if releaseErr := r.Release(ctx); releaseErr != nil {
			return errors.Join(shortErr, fmt.Errorf("r.Release: %w", releaseErr))
		}

		return shortErr
	}

	return nil
}

// shortage re-reads the offer that lost the decrement. When the offer
// cannot be read the decrement failure is reported as is.
func (r *Reservation) shortage(ctx context.Context, idx int, item domain.OrderItem, decrementErr error) error {
	offer, err := r.offers.GetOffer(ctx, item.OfferKey())
	if err != nil {
		return &domain.InventoryUpdateError{
			ProductID: item.ProductID,
			SellerID:  item.SellerID,
			Err:       errors.Join(decrementErr, fmt.Errorf("offers.GetOffer: %w", err)),
		}
	}

	return &domain.InsufficientStockError{
		ItemIndex: idx,
		ProductID: item.ProductID,
		SellerID:  item.SellerID,
		Requested: item.Quantity,
		Available: offer.Stock,
	}
}

// Release re-increments the tracked decrements, newest first.
func (r *Reservation) Release(ctx context.Context) error {
	var errs []error

	for i := len(r.reserved) - 1; i >= 0; i-- {
		item := r.reserved[i]
		if err := r.offers.IncrementStock(ctx, item.key, item.quantity); err != nil {
			errs = append(errs, fmt.Errorf("offers.IncrementStock[%s/%s]: %w", item.key.ProductID, item.key.SellerID, err))
		}
	}

	r.reserved = nil

	return errors.Join(errs...)
}

func (r *Reservation) Reserved() []domain.OfferKey {
	keys := make([]domain.OfferKey, 0, len(r.reserved))
	for _, item := range r.reserved {
		keys = append(keys, item.key)
	}
	return keys
}
