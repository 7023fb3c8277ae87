package port

import (
	"context"

	"github.com/nikolayk812/marketplace-orders/internal/domain"
)

type OfferRepository interface {
	GetOffer(ctx context.Context, key domain.OfferKey) (domain.Offer, error)
	ProductExists(ctx context.Context, productID string) (bool, error)

	// DecrementStock lowers the stock only if at least quantity is available.
	DecrementStock(ctx context.Context, key domain.OfferKey, quantity int) error
	IncrementStock(ctx context.Context, key domain.OfferKey, quantity int) error

	UpsertProduct(ctx context.Context, product domain.Product) error
	UpsertOffer(ctx context.Context, offer domain.Offer) error
}

type BuyerRepository interface {
	GetBuyer(ctx context.Context, buyerID string) (domain.Buyer, error)
	UpsertBuyer(ctx context.Context, buyer domain.Buyer) error
}
