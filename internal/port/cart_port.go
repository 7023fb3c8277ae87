package port

import (
	"context"

	"github.com/nikolayk812/marketplace-orders/internal/domain"
)

type CartRepository interface {
	GetCart(ctx context.Context, ownerID string) (domain.Cart, error)
	// SaveCart replaces the stored items of the cart.
	SaveCart(ctx context.Context, cart domain.Cart) error
	DeleteCart(ctx context.Context, ownerID string) error
	// RemoveOffers deletes the items matching keys and drops the cart once
	// no item is left. Other items are not touched.
	RemoveOffers(ctx context.Context, ownerID string, keys []domain.OfferKey) error

	AddItem(ctx context.Context, ownerID string, item domain.CartItem) error
}
