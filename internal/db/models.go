package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Buyer struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
}

type Offer struct {
	ProductID     string
	SellerID      string
	PriceAmount   decimal.Decimal
	PriceCurrency string
	Stock         int32
	Active        bool
	UpdatedAt     time.Time
}

type CartItem struct {
	OwnerID       string
	ProductID     string
	SellerID      string
	Quantity      int32
	PriceAmount   decimal.Decimal
	PriceCurrency string
	CreatedAt     time.Time
}

type Order struct {
	ID              uuid.UUID
	BuyerID         string
	ShippingInfo    []byte
	DeliveryMethod  string
	PaymentMethod   string
	Currency        string
	Subtotal        decimal.Decimal
	Shipping        decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
	Status          string
	PaymentStatus   string
	CreatedAt       time.Time
	StatusUpdatedAt time.Time
}

type OrderItem struct {
	OrderID     uuid.UUID
	Position    int32
	ProductID   string
	SellerID    string
	Quantity    int32
	PriceAmount decimal.Decimal
	Promotion   []byte
}

type Suborder struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	Position        int32
	SellerID        string
	Subtotal        decimal.Decimal
	Status          string
	StatusUpdatedAt time.Time
}
