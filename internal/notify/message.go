package notify

import (
	"encoding/json"
	"time"

	"github.com/nikolayk812/marketplace-orders/internal/domain"
)

// orderCreatedMessage is the broker payload of an OrderCreated event.
type orderCreatedMessage struct {
	OrderID    string              `json:"orderId"`
	BuyerID    string              `json:"buyerId"`
	BuyerEmail string              `json:"buyerEmail"`
	BuyerName  string              `json:"buyerName,omitempty"`
	Currency   string              `json:"currency"`
	Total      string              `json:"total"`
	Status     string              `json:"status"`
	Suborders  []suborderMessage   `json:"suborders"`
	Shipping   domain.ShippingInfo `json:"shippingInfo"`
	OccurredAt time.Time           `json:"occurredAt"`
}

type suborderMessage struct {
	SuborderID string        `json:"suborderId"`
	SellerID   string        `json:"sellerId"`
	Subtotal   string        `json:"subtotal"`
	Items      []itemMessage `json:"items"`
}

type itemMessage struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

func newOrderCreatedMessage(event domain.OrderCreated) orderCreatedMessage {
	order := event.Order

	msg := orderCreatedMessage{
		OrderID:    order.ID.String(),
		BuyerID:    order.BuyerID,
		BuyerEmail: event.BuyerEmail,
		Currency:   order.Currency.String(),
		Total:      order.Total.String(),
		Status:     string(order.Status),
		Shipping:   order.ShippingInfo,
		OccurredAt: event.OccurredAt,
		Suborders:  make([]suborderMessage, 0, len(order.Suborders)),
	}

	if event.Buyer.FirstName != "" || event.Buyer.LastName != "" {
		msg.BuyerName = event.Buyer.FirstName + " " + event.Buyer.LastName
	}

	for _, sub := range order.Suborders {
		sm := suborderMessage{
			SuborderID: sub.ID.String(),
			SellerID:   sub.SellerID,
			Subtotal:   sub.Subtotal.String(),
			Items:      make([]itemMessage, 0, len(sub.Items)),
		}
		for _, item := range sub.Items {
			sm.Items = append(sm.Items, itemMessage{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     item.Price.String(),
			})
		}
		msg.Suborders = append(msg.Suborders, sm)
	}

	return msg
}

func marshalOrderCreated(event domain.OrderCreated) ([]byte, error) {
	return json.Marshal(newOrderCreatedMessage(event))
}
