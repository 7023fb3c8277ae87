package domain

import "time"

// OrderCreated is handed to the notification dispatcher after checkout.
type OrderCreated struct {
	BuyerEmail string
	Order      Order
	Buyer      Buyer
	OccurredAt time.Time
}
