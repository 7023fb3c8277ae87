package domain_test

import (
	"testing"

	"github.com/nikolayk812/marketplace-orders/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCheckout() domain.Checkout {
	return domain.Checkout{
		BuyerID: "buyer-1",
		Items: []domain.CheckoutItem{
			{ProductID: "p-1", SellerID: "seller-a", Quantity: 2, Price: decimal.NewFromInt(10)},
			{ProductID: "p-2", SellerID: "seller-b", Quantity: 1, Price: decimal.NewFromInt(20)},
		},
		ShippingInfo: domain.ShippingInfo{
			FirstName: "Mona",
			LastName:  "Adel",
			Phone:     "+201000000000",
			Email:     "mona@example.com",
			Address: domain.Address{
				Street:      "9 Tahrir St",
				City:        "Cairo",
				Governorate: "Cairo",
			},
		},
		DeliveryMethod: domain.DeliveryMethodStandard,
		PaymentMethod:  "cash_on_delivery",
		Subtotal:       decimal.NewFromInt(40),
		Shipping:       decimal.NewFromInt(5),
		Tax:            decimal.RequireFromString("2.5"),
		Total:          decimal.RequireFromString("47.5"),
	}
}

func TestCheckoutValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(c *domain.Checkout)
		wantField string
	}{
		{
			name:   "valid",
			modify: func(*domain.Checkout) {},
		},
		{
			name:      "missing buyer",
			modify:    func(c *domain.Checkout) { c.BuyerID = "" },
			wantField: "BuyerID",
		},
		{
			name:      "no items",
			modify:    func(c *domain.Checkout) { c.Items = nil },
			wantField: "Items",
		},
		{
			name:      "zero quantity",
			modify:    func(c *domain.Checkout) { c.Items[1].Quantity = 0 },
			wantField: "Items[1].Quantity",
		},
		{
			name:      "missing city",
			modify:    func(c *domain.Checkout) { c.ShippingInfo.Address.City = "" },
			wantField: "ShippingInfo.Address.City",
		},
		{
			name:      "malformed email",
			modify:    func(c *domain.Checkout) { c.ShippingInfo.Email = "mona" },
			wantField: "ShippingInfo.Email",
		},
		{
			name:      "unknown delivery method",
			modify:    func(c *domain.Checkout) { c.DeliveryMethod = "drone" },
			wantField: "DeliveryMethod",
		},
		{
			name:      "negative price",
			modify:    func(c *domain.Checkout) { c.Items[0].Price = decimal.NewFromInt(-10) },
			wantField: "Items[0].Price",
		},
		{
			name:      "negative tax",
			modify:    func(c *domain.Checkout) { c.Tax = decimal.NewFromInt(-1) },
			wantField: "Tax",
		},
		{
			name: "duplicate offer",
			modify: func(c *domain.Checkout) {
				c.Items = append(c.Items, c.Items[0])
				c.Subtotal = decimal.NewFromInt(60)
				c.Total = decimal.RequireFromString("67.5")
			},
			wantField: "Items[2]",
		},
		{
			name:      "subtotal off by one cent",
			modify:    func(c *domain.Checkout) { c.Subtotal = decimal.RequireFromString("40.01") },
			wantField: "Subtotal",
		},
		{
			name:      "total mismatch",
			modify:    func(c *domain.Checkout) { c.Total = decimal.NewFromInt(40) },
			wantField: "Total",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCheckout()
			tt.modify(&c)

			err := c.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}

			var validationErr *domain.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.wantField, validationErr.Field)
		})
	}
}

func TestCheckoutItemToOrderItem(t *testing.T) {
	item := domain.CheckoutItem{
		ProductID: "p-1",
		SellerID:  "seller-a",
		Quantity:  1,
		Price:     decimal.NewFromInt(90),
		Promotion: &domain.Promotion{ID: "promo-1", DiscountPercent: decimal.NewFromInt(10), OriginalPrice: decimal.NewFromInt(100)},
	}

	orderItem := item.ToOrderItem()
	item.Promotion.ID = "changed"

	assert.Equal(t, "promo-1", orderItem.Promotion.ID)
	assert.Equal(t, item.OfferKey(), orderItem.OfferKey())
}
