package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Checkout is the payload handed over by the cart collaborator.
// Monetary totals arrive precomputed and are only checked for consistency.
// Each (ProductID, SellerID) pair may appear once: lines for the same offer
// must be merged upstream, a repeated pair fails Validate.
type Checkout struct {
	BuyerID        string         `validate:"required"`
	Items          []CheckoutItem `validate:"required,min=1,dive"`
	ShippingInfo   ShippingInfo   `validate:"required"`
	DeliveryMethod DeliveryMethod `validate:"required,oneof=standard express"`
	PaymentMethod  string         `validate:"required"`

	// Currency falls back to the service default when zero.
	Currency currency.Unit

	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal

	IdempotencyKey string
}

type CheckoutItem struct {
	ProductID string `validate:"required"`
	SellerID  string `validate:"required"`
	Quantity  int    `validate:"min=1"`
	Price     decimal.Decimal
	Promotion *Promotion
}

func (i CheckoutItem) OfferKey() OfferKey {
	return OfferKey{ProductID: i.ProductID, SellerID: i.SellerID}
}

func (i CheckoutItem) ToOrderItem() OrderItem {
	var promotion *Promotion
	if i.Promotion != nil {
		p := *i.Promotion
		promotion = &p
	}

	return OrderItem{
		ProductID: i.ProductID,
		SellerID:  i.SellerID,
		Quantity:  i.Quantity,
		Price:     i.Price,
		Promotion: promotion,
	}
}

// Validate checks the request shape and that the monetary totals add up.
// It does not touch any store.
func (c Checkout) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ValidationError{
				Field:  strings.TrimPrefix(fe.Namespace(), "Checkout."),
				Reason: fmt.Sprintf("failed on %q", fe.Tag()),
			}
		}
		return &ValidationError{Reason: err.Error()}
	}

	amounts := map[string]decimal.Decimal{
		"Subtotal": c.Subtotal,
		"Shipping": c.Shipping,
		"Tax":      c.Tax,
		"Total":    c.Total,
	}
	for _, field := range []string{"Subtotal", "Shipping", "Tax", "Total"} {
		if amounts[field].IsNegative() {
			return &ValidationError{Field: field, Reason: "must not be negative"}
		}
	}

	seen := make(map[OfferKey]int, len(c.Items))
	itemsTotal := decimal.Zero

	for idx, item := range c.Items {
		if item.Price.IsNegative() {
			return &ValidationError{Field: fmt.Sprintf("Items[%d].Price", idx), Reason: "must not be negative"}
		}

		if first, ok := seen[item.OfferKey()]; ok {
			return &ValidationError{
				Field:  fmt.Sprintf("Items[%d]", idx),
				Reason: fmt.Sprintf("duplicates Items[%d]", first),
			}
		}
		seen[item.OfferKey()] = idx

		itemsTotal = itemsTotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	if !itemsTotal.Equal(c.Subtotal) {
		return &ValidationError{
			Field:  "Subtotal",
			Reason: fmt.Sprintf("%s does not match items total %s", c.Subtotal, itemsTotal),
		}
	}

	if !c.Subtotal.Add(c.Shipping).Add(c.Tax).Equal(c.Total) {
		return &ValidationError{Field: "Total", Reason: "must equal subtotal + shipping + tax"}
	}

	return nil
}
