package domain

import "time"

type Cart struct {
	OwnerID string
	Items   []CartItem
}

type CartItem struct {
	ProductID string
	SellerID  string
	Quantity  int
	Price     Money

	CreatedAt time.Time
}

func (i CartItem) OfferKey() OfferKey {
	return OfferKey{ProductID: i.ProductID, SellerID: i.SellerID}
}
