package port

import "context"

type Repositories struct {
	Orders OrderRepository
	Offers OfferRepository
	Carts  CartRepository
	Buyers BuyerRepository
}

// TxManager hands out repositories, either pool-bound or bound to one transaction.
type TxManager interface {
	Repositories() Repositories
	// WithinTx commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}
