package domain

import "errors"

type OrderStatus string

// remember to add new statuses to the validOrderStatuses map
const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var validOrderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:    {},
	OrderStatusProcessing: {},
	OrderStatusShipped:    {},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

var ErrInvalidOrderStatus = errors.New("invalid order status")

func ToOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := validOrderStatuses[status]; ok {
		return status, nil
	}

	return "", ErrInvalidOrderStatus
}

// IsTerminal reports whether no further fulfillment happens after the status.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

func ToPaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case PaymentStatusPending, PaymentStatusPaid:
		return PaymentStatus(s), nil
	}

	return "", errors.New("invalid payment status")
}

type DeliveryMethod string

const (
	DeliveryMethodStandard DeliveryMethod = "standard"
	DeliveryMethodExpress  DeliveryMethod = "express"
)

func ToDeliveryMethod(s string) (DeliveryMethod, error) {
	switch DeliveryMethod(s) {
	case DeliveryMethodStandard, DeliveryMethodExpress:
		return DeliveryMethod(s), nil
	}

	return "", errors.New("invalid delivery method")
}
