package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Rollup derives the parent order status from the statuses of all its
// suborders. The second result reports whether the order counts as paid.
//
// A single suborder is mirrored as is. For several suborders the first
// matching rule wins:
//
//	processing present       -> processing
//	all delivered            -> delivered (paid)
//	all cancelled            -> cancelled
//	shipped or some delivered -> shipped
//	anything else            -> processing
//
// The last rule maps mixes such as pending+cancelled to processing.
func Rollup(statuses []OrderStatus) (OrderStatus, bool) {
	switch len(statuses) {
	case 0:
		return OrderStatusPending, false
	case 1:
		return statuses[0], statuses[0] == OrderStatusDelivered
	}

	allAre := func(want OrderStatus) bool {
		return lo.EveryBy(statuses, func(s OrderStatus) bool { return s == want })
	}

	switch {
	case lo.Contains(statuses, OrderStatusProcessing):
		return OrderStatusProcessing, false
	case allAre(OrderStatusDelivered):
		return OrderStatusDelivered, true
	case allAre(OrderStatusCancelled):
		return OrderStatusCancelled, false
	case lo.Contains(statuses, OrderStatusShipped), lo.Contains(statuses, OrderStatusDelivered):
		return OrderStatusShipped, false
	default:
		return OrderStatusProcessing, false
	}
}

// RecomputeStatus folds the current suborder statuses into the order status.
func (o *Order) RecomputeStatus(now time.Time) {
	statuses := lo.Map(o.Suborders, func(s Suborder, _ int) OrderStatus {
		return s.Status
	})

	status, paid := Rollup(statuses)
	o.Status = status
	if paid {
		o.PaymentStatus = PaymentStatusPaid
	}
	o.StatusUpdatedAt = now
}

// ApplySuborderStatus moves one suborder to status and recomputes the
// order status over all suborders. Re-applying the current status only
// refreshes the timestamps. A terminal suborder cannot move elsewhere.
func (o *Order) ApplySuborderStatus(suborderID uuid.UUID, status OrderStatus, now time.Time) error {
	newTransitionError := func(reason string, err error) error {
		return &StatusTransitionError{
			OrderID:    o.ID.String(),
			SuborderID: suborderID.String(),
			Status:     string(status),
			Reason:     reason,
			Err:        err,
		}
	}

	if _, err := ToOrderStatus(string(status)); err != nil {
		return newTransitionError("unknown status", err)
	}

	idx := lo.IndexOf(lo.Map(o.Suborders, func(s Suborder, _ int) uuid.UUID { return s.ID }), suborderID)
	if idx < 0 {
		return newTransitionError("suborder not in order", &NotFoundError{
			Entity:    "suborder",
			ID:        suborderID.String(),
			ItemIndex: -1,
		})
	}

	sub := &o.Suborders[idx]
	if sub.Status.IsTerminal() && sub.Status != status {
		return newTransitionError("suborder is already "+string(sub.Status), nil)
	}

	sub.Status = status
	sub.StatusUpdatedAt = now
	o.RecomputeStatus(now)

	return nil
}
