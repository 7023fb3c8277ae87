package httpx

import (
	"fmt"
	"time"

	"github.com/nikolayk812/marketplace-orders/internal/domain"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type CheckoutRequest struct {
	BuyerID        string              `json:"buyerId"`
	Items          []CheckoutItemDTO   `json:"items"`
	ShippingInfo   domain.ShippingInfo `json:"shippingInfo"`
	DeliveryMethod string              `json:"deliveryMethod"`
	PaymentMethod  string              `json:"paymentMethod"`
	Currency       string              `json:"currency,omitempty"`
	Subtotal       decimal.Decimal     `json:"subtotal"`
	Shipping       decimal.Decimal     `json:"shipping"`
	Tax            decimal.Decimal     `json:"tax"`
	Total          decimal.Decimal     `json:"total"`
}

type CheckoutItemDTO struct {
	ProductID string            `json:"productId"`
	SellerID  string            `json:"sellerId"`
	Quantity  int               `json:"quantity"`
	Price     decimal.Decimal   `json:"price"`
	Promotion *domain.Promotion `json:"promotion,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type OrderResponse struct {
	ID              string              `json:"id"`
	BuyerID         string              `json:"buyerId"`
	Items           []OrderItemResponse `json:"items"`
	Suborders       []SuborderResponse  `json:"suborders"`
	ShippingInfo    domain.ShippingInfo `json:"shippingInfo"`
	DeliveryMethod  string              `json:"deliveryMethod"`
	PaymentMethod   string              `json:"paymentMethod"`
	Currency        string              `json:"currency"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	Shipping        decimal.Decimal     `json:"shipping"`
	Tax             decimal.Decimal     `json:"tax"`
	Total           decimal.Decimal     `json:"total"`
	Status          string              `json:"status"`
	PaymentStatus   string              `json:"paymentStatus"`
	CreatedAt       time.Time           `json:"createdAt"`
	StatusUpdatedAt time.Time           `json:"statusUpdatedAt"`
}

type OrderItemResponse struct {
	ProductID string            `json:"productId"`
	SellerID  string            `json:"sellerId"`
	Quantity  int               `json:"quantity"`
	Price     decimal.Decimal   `json:"price"`
	Promotion *domain.Promotion `json:"promotion,omitempty"`
}

type SuborderResponse struct {
	ID              string              `json:"id"`
	SellerID        string              `json:"sellerId"`
	Items           []OrderItemResponse `json:"items"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	Status          string              `json:"status"`
	StatusUpdatedAt time.Time           `json:"statusUpdatedAt"`
}

type SellerOrderResponse struct {
	OrderID        string              `json:"orderId"`
	BuyerID        string              `json:"buyerId"`
	ShippingInfo   domain.ShippingInfo `json:"shippingInfo"`
	DeliveryMethod string              `json:"deliveryMethod"`
	PaymentMethod  string              `json:"paymentMethod"`
	PaymentStatus  string              `json:"paymentStatus"`
	OrderStatus    string              `json:"orderStatus"`
	Currency       string              `json:"currency"`
	OrderTotal     decimal.Decimal     `json:"orderTotal"`
	CreatedAt      time.Time           `json:"createdAt"`
	Suborder       SuborderResponse    `json:"suborder"`
}

type SellerOrdersResponse struct {
	Orders []SellerOrderResponse `json:"orders"`
	Total  int                   `json:"total"`
	Page   int                   `json:"page"`
	Limit  int                   `json:"limit"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func mapCheckoutRequestToDomain(req CheckoutRequest, idempotencyKey string) (domain.Checkout, error) {
	var c domain.Checkout

	var unit currency.Unit
	if req.Currency != "" {
		parsed, err := currency.ParseISO(req.Currency)
		if err != nil {
			return c, &domain.ValidationError{Field: "Currency", Reason: fmt.Sprintf("%q is not an ISO currency", req.Currency)}
		}
		unit = parsed
	}

	return domain.Checkout{
		BuyerID: req.BuyerID,
		Items: lo.Map(req.Items, func(item CheckoutItemDTO, _ int) domain.CheckoutItem {
			return domain.CheckoutItem{
				ProductID: item.ProductID,
				SellerID:  item.SellerID,
				Quantity:  item.Quantity,
				Price:     item.Price,
				Promotion: item.Promotion,
			}
		}),
		ShippingInfo:   req.ShippingInfo,
		DeliveryMethod: domain.DeliveryMethod(req.DeliveryMethod),
		PaymentMethod:  req.PaymentMethod,
		Currency:       unit,
		Subtotal:       req.Subtotal,
		Shipping:       req.Shipping,
		Tax:            req.Tax,
		Total:          req.Total,
		IdempotencyKey: idempotencyKey,
	}, nil
}

func mapOrderToResponse(order domain.Order) OrderResponse {
	return OrderResponse{
		ID:              order.ID.String(),
		BuyerID:         order.BuyerID,
		Items:           mapItems(order.Items),
		Suborders:       lo.Map(order.Suborders, func(s domain.Suborder, _ int) SuborderResponse { return mapSuborder(s) }),
		ShippingInfo:    order.ShippingInfo,
		DeliveryMethod:  string(order.DeliveryMethod),
		PaymentMethod:   order.PaymentMethod,
		Currency:        order.Currency.String(),
		Subtotal:        order.Subtotal,
		Shipping:        order.Shipping,
		Tax:             order.Tax,
		Total:           order.Total,
		Status:          string(order.Status),
		PaymentStatus:   string(order.PaymentStatus),
		CreatedAt:       order.CreatedAt,
		StatusUpdatedAt: order.StatusUpdatedAt,
	}
}

func mapSuborder(s domain.Suborder) SuborderResponse {
	return SuborderResponse{
		ID:              s.ID.String(),
		SellerID:        s.SellerID,
		Items:           mapItems(s.Items),
		Subtotal:        s.Subtotal,
		Status:          string(s.Status),
		StatusUpdatedAt: s.StatusUpdatedAt,
	}
}

func mapItems(items []domain.OrderItem) []OrderItemResponse {
	out := make([]OrderItemResponse, len(items))
	for i, it := range items {
		out[i] = OrderItemResponse{
			ProductID: it.ProductID,
			SellerID:  it.SellerID,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Promotion: it.Promotion,
		}
	}
	return out
}

func mapSellerOrderPageToResponse(page domain.SellerOrderPage) SellerOrdersResponse {
	orders := make([]SellerOrderResponse, 0, len(page.Orders))
	for _, so := range page.Orders {
		orders = append(orders, SellerOrderResponse{
			OrderID:        so.OrderID.String(),
			BuyerID:        so.BuyerID,
			ShippingInfo:   so.ShippingInfo,
			DeliveryMethod: string(so.DeliveryMethod),
			PaymentMethod:  so.PaymentMethod,
			PaymentStatus:  string(so.PaymentStatus),
			OrderStatus:    string(so.OrderStatus),
			Currency:       so.Currency.String(),
			OrderTotal:     so.OrderTotal,
			CreatedAt:      so.CreatedAt,
			Suborder:       mapSuborder(so.Suborder),
		})
	}

	return SellerOrdersResponse{
		Orders: orders,
		Total:  page.Total,
		Page:   page.Page.Number,
		Limit:  page.Page.Limit,
	}
}
