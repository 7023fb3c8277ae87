package domain

import "time"

type OfferKey struct {
	ProductID string
	SellerID  string
}

// Offer is a seller's price and stock for a catalog product.
type Offer struct {
	ProductID string
	SellerID  string
	Price     Money
	Stock     int
	Active    bool

	UpdatedAt time.Time
}

func (o Offer) Key() OfferKey {
	return OfferKey{ProductID: o.ProductID, SellerID: o.SellerID}
}

type Product struct {
	ID   string
	Name string
}

type Buyer struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
}
