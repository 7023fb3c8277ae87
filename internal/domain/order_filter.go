package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// SellerOrderFilter selects the suborders of one seller. Statuses has OR
// semantics, all other fields AND semantics.
type SellerOrderFilter struct {
	SellerID  string
	Statuses  []OrderStatus
	CreatedAt *TimeRange
	Page      Page
}

func (f SellerOrderFilter) Validate() error {
	if f.SellerID == "" {
		return errors.New("sellerID is empty")
	}

	for _, s := range f.Statuses {
		if _, err := ToOrderStatus(string(s)); err != nil {
			return fmt.Errorf("statuses[%s]: %w", s, err)
		}
	}

	if f.CreatedAt != nil {
		if err := f.CreatedAt.Validate(); err != nil {
			return fmt.Errorf("createdAt: %w", err)
		}
	}

	if err := f.Page.Validate(); err != nil {
		return fmt.Errorf("page: %w", err)
	}

	return nil
}

type TimeRange struct {
	Before *time.Time
	After  *time.Time
}

func (t TimeRange) Validate() error {
	if t.Before == nil && t.After == nil {
		return errors.New("both Before and After are nil")
	}

	if t.Before != nil && t.After != nil {
		if t.Before.Before(*t.After) {
			return fmt.Errorf("before is before After")
		}
	}

	return nil
}

// Page is 1-based.
type Page struct {
	Number int
	Limit  int
}

func (p Page) Validate() error {
	if p.Number < 1 {
		return errors.New("number must be >= 1")
	}
	if p.Limit < 1 || p.Limit > MaxPageLimit {
		return fmt.Errorf("limit must be in [1, %d]", MaxPageLimit)
	}
	return nil
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// SellerOrder is the seller-facing projection of an order: order-level
// fields joined with that seller's single suborder.
type SellerOrder struct {
	OrderID        uuid.UUID
	BuyerID        string
	ShippingInfo   ShippingInfo
	DeliveryMethod DeliveryMethod
	PaymentMethod  string
	PaymentStatus  PaymentStatus
	OrderStatus    OrderStatus
	Currency       currency.Unit
	OrderTotal     decimal.Decimal
	CreatedAt      time.Time

	Suborder Suborder
}

type SellerOrderPage struct {
	Orders []SellerOrder
	Total  int
	Page   Page
}
