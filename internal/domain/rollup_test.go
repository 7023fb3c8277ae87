package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/marketplace-orders/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	pending    = domain.OrderStatusPending
	processing = domain.OrderStatusProcessing
	shipped    = domain.OrderStatusShipped
	delivered  = domain.OrderStatusDelivered
	cancelled  = domain.OrderStatusCancelled
)

func TestRollup(t *testing.T) {
	tests := []struct {
		name     string
		statuses []domain.OrderStatus
		want     domain.OrderStatus
		wantPaid bool
	}{
		{name: "no suborders", statuses: nil, want: pending},
		{name: "single pending mirrored", statuses: []domain.OrderStatus{pending}, want: pending},
		{name: "single cancelled mirrored", statuses: []domain.OrderStatus{cancelled}, want: cancelled},
		{name: "single delivered paid", statuses: []domain.OrderStatus{delivered}, want: delivered, wantPaid: true},
		{name: "all pending", statuses: []domain.OrderStatus{pending, pending}, want: processing},
		{name: "processing wins over delivered", statuses: []domain.OrderStatus{delivered, processing}, want: processing},
		{name: "processing wins over shipped", statuses: []domain.OrderStatus{shipped, processing, cancelled}, want: processing},
		{name: "all delivered", statuses: []domain.OrderStatus{delivered, delivered, delivered}, want: delivered, wantPaid: true},
		{name: "all cancelled", statuses: []domain.OrderStatus{cancelled, cancelled}, want: cancelled},
		{name: "shipped and pending", statuses: []domain.OrderStatus{shipped, pending}, want: shipped},
		{name: "delivered and pending", statuses: []domain.OrderStatus{delivered, pending}, want: shipped},
		{name: "delivered and cancelled", statuses: []domain.OrderStatus{delivered, cancelled}, want: shipped},
		{name: "pending and cancelled", statuses: []domain.OrderStatus{pending, cancelled}, want: processing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, paid := domain.Rollup(tt.statuses)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantPaid, paid)
		})
	}
}

func TestApplySuborderStatus(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	later := created.Add(time.Hour)

	newOrder := func(statuses ...domain.OrderStatus) domain.Order {
		o := domain.Order{ID: uuid.New(), PaymentStatus: domain.PaymentStatusPending}
		for _, s := range statuses {
			o.Suborders = append(o.Suborders, domain.Suborder{
				ID:              uuid.New(),
				SellerID:        "seller-" + string(s),
				Status:          s,
				StatusUpdatedAt: created,
			})
		}
		o.RecomputeStatus(created)
		return o
	}

	t.Run("last delivery marks order paid", func(t *testing.T) {
		o := newOrder(delivered, shipped)
		require.Equal(t, shipped, o.Status)

		require.NoError(t, o.ApplySuborderStatus(o.Suborders[1].ID, delivered, later))

		assert.Equal(t, delivered, o.Status)
		assert.Equal(t, domain.PaymentStatusPaid, o.PaymentStatus)
		assert.Equal(t, later, o.StatusUpdatedAt)
		assert.Equal(t, later, o.Suborders[1].StatusUpdatedAt)
		assert.Equal(t, created, o.Suborders[0].StatusUpdatedAt)
	})

	t.Run("same terminal status accepted", func(t *testing.T) {
		o := newOrder(cancelled, pending)

		require.NoError(t, o.ApplySuborderStatus(o.Suborders[0].ID, cancelled, later))
		assert.Equal(t, cancelled, o.Suborders[0].Status)
		assert.Equal(t, processing, o.Status)
	})

	t.Run("terminal suborder rejected", func(t *testing.T) {
		o := newOrder(delivered, pending)
		before := o

		err := o.ApplySuborderStatus(o.Suborders[0].ID, shipped, later)

		var transitionErr *domain.StatusTransitionError
		require.ErrorAs(t, err, &transitionErr)
		assert.Equal(t, "suborder is already delivered", transitionErr.Reason)
		assert.Equal(t, before.Status, o.Status)
		assert.Equal(t, delivered, o.Suborders[0].Status)
	})

	t.Run("unknown suborder", func(t *testing.T) {
		o := newOrder(pending)

		err := o.ApplySuborderStatus(uuid.New(), shipped, later)

		var notFoundErr *domain.NotFoundError
		require.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, "suborder", notFoundErr.Entity)
	})

	t.Run("unknown status", func(t *testing.T) {
		o := newOrder(pending)

		err := o.ApplySuborderStatus(o.Suborders[0].ID, "returned", later)
		assert.ErrorIs(t, err, domain.ErrInvalidOrderStatus)
		assert.Equal(t, pending, o.Suborders[0].Status)
	})
}
