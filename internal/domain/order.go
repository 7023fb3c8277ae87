package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Order is the aggregate root of a checkout. Items and suborders are owned
// by copy: prices are snapshots taken at purchase time.
type Order struct {
	ID        uuid.UUID
	BuyerID   string
	Items     []OrderItem
	Suborders []Suborder

	ShippingInfo   ShippingInfo
	DeliveryMethod DeliveryMethod
	PaymentMethod  string

	Currency currency.Unit
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal

	Status        OrderStatus
	PaymentStatus PaymentStatus

	CreatedAt       time.Time
	StatusUpdatedAt time.Time
}

type OrderItem struct {
	ProductID string
	SellerID  string
	Quantity  int
	Price     decimal.Decimal
	Promotion *Promotion
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i OrderItem) OfferKey() OfferKey {
	return OfferKey{ProductID: i.ProductID, SellerID: i.SellerID}
}

// Suborder is the part of an order fulfilled by a single seller.
type Suborder struct {
	ID              uuid.UUID
	SellerID        string
	Items           []OrderItem
	Subtotal        decimal.Decimal
	Status          OrderStatus
	StatusUpdatedAt time.Time
}

// Promotion is the snapshot of the promotion applied to an item price.
type Promotion struct {
	ID              string          `json:"id"`
	Name            string          `json:"name,omitempty"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	OriginalPrice   decimal.Decimal `json:"originalPrice"`
}

type ShippingInfo struct {
	FirstName string  `json:"firstName" validate:"required"`
	LastName  string  `json:"lastName" validate:"required"`
	Phone     string  `json:"phone" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	Address   Address `json:"address"`
}

type Address struct {
	Street               string `json:"street" validate:"required"`
	Apartment            string `json:"apartment,omitempty"`
	City                 string `json:"city" validate:"required"`
	PostalCode           string `json:"postalCode,omitempty"`
	Governorate          string `json:"governorate" validate:"required"`
	DeliveryInstructions string `json:"deliveryInstructions,omitempty"`
}

func (o Order) Suborder(suborderID uuid.UUID) (Suborder, bool) {
	for _, s := range o.Suborders {
		if s.ID == suborderID {
			return s, true
		}
	}
	return Suborder{}, false
}

func (o Order) SuborderBySeller(sellerID string) (Suborder, bool) {
	for _, s := range o.Suborders {
		if s.SellerID == sellerID {
			return s, true
		}
	}
	return Suborder{}, false
}

// GroupSuborders splits items into one pending suborder per seller,
// keeping sellers in order of first appearance.
func GroupSuborders(items []OrderItem, now time.Time) []Suborder {
	var suborders []Suborder
	index := make(map[string]int)

	for _, item := range items {
		idx, ok := index[item.SellerID]
		if !ok {
			idx = len(suborders)
			index[item.SellerID] = idx
			suborders = append(suborders, Suborder{
				SellerID:        item.SellerID,
				Subtotal:        decimal.Zero,
				Status:          OrderStatusPending,
				StatusUpdatedAt: now,
			})
		}

		s := &suborders[idx]
		s.Items = append(s.Items, item)
		s.Subtotal = s.Subtotal.Add(item.LineTotal())
	}

	return suborders
}
