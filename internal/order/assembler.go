package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nikolayk812/marketplace-orders/internal/domain"
	"github.com/nikolayk812/marketplace-orders/internal/port"
	"github.com/nikolayk812/marketplace-orders/internal/repository"
	"github.com/samber/lo"
	"golang.org/x/text/currency"
)

// assembler validates a checkout against the buyer and catalog stores and
// builds the unsaved order. It never writes.
type assembler struct {
	buyers          port.BuyerRepository
	offers          port.OfferRepository
	defaultCurrency currency.Unit
}

func (a assembler) assemble(ctx context.Context, checkout domain.Checkout, now time.Time) (domain.Order, domain.Buyer, error) {
	var (
		o domain.Order
		b domain.Buyer
	)

	if err := checkout.Validate(); err != nil {
		return o, b, err
	}

	orderCurrency := checkout.Currency
	if orderCurrency == (currency.Unit{}) {
		orderCurrency = a.defaultCurrency
	}

	buyer, err := a.buyers.GetBuyer(ctx, checkout.BuyerID)
	if err != nil {
		if errors.Is(err, repository.ErrBuyerNotFound) {
			return o, b, &domain.NotFoundError{Entity: "buyer", ID: checkout.BuyerID, ItemIndex: -1}
		}
		return o, b, fmt.Errorf("buyers.GetBuyer: %w", err)
	}

	for idx, item := range checkout.Items {
		if err := a.checkItem(ctx, idx, item, orderCurrency); err != nil {
			return o, b, err
		}
	}

	items := lo.Map(checkout.Items, func(item domain.CheckoutItem, _ int) domain.OrderItem {
		return item.ToOrderItem()
	})

	order := domain.Order{
		BuyerID:         checkout.BuyerID,
		Items:           items,
		Suborders:       domain.GroupSuborders(items, now),
		ShippingInfo:    checkout.ShippingInfo,
		DeliveryMethod:  checkout.DeliveryMethod,
		PaymentMethod:   checkout.PaymentMethod,
		Currency:        orderCurrency,
		Subtotal:        checkout.Subtotal,
		Shipping:        checkout.Shipping,
		Tax:             checkout.Tax,
		Total:           checkout.Total,
		PaymentStatus:   domain.PaymentStatusPending,
		StatusUpdatedAt: now,
	}
	order.RecomputeStatus(now)

	return order, buyer, nil
}

func (a assembler) checkItem(ctx context.Context, idx int, item domain.CheckoutItem, orderCurrency currency.Unit) error {
	exists, err := a.offers.ProductExists(ctx, item.ProductID)
	if err != nil {
		return fmt.Errorf("offers.ProductExists: %w", err)
	}
	if !exists {
		return &domain.NotFoundError{Entity: "product", ID: item.ProductID, ItemIndex: idx}
	}

	offer, err := a.offers.GetOffer(ctx, item.OfferKey())
	if err != nil && !errors.Is(err, repository.ErrOfferNotFound) {
		return fmt.Errorf("offers.GetOffer: %w", err)
	}
	if err != nil || !offer.Active {
		return &domain.NotFoundError{
			Entity:    "offer",
			ID:        item.ProductID + "/" + item.SellerID,
			ItemIndex: idx,
		}
	}

	if !offer.Price.SameCurrency(orderCurrency) {
		return &domain.ValidationError{
			Field:  fmt.Sprintf("Items[%d]", idx),
			Reason: fmt.Sprintf("offer is priced in %s, order in %s", offer.Price.Currency, orderCurrency),
		}
	}

	if item.Quantity > offer.Stock {
		return &domain.InsufficientStockError{
			ItemIndex: idx,
			ProductID: item.ProductID,
			SellerID:  item.SellerID,
			Requested: item.Quantity,
			Available: offer.Stock,
		}
	}

	return nil
}
