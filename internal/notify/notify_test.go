package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/nikolayk812/marketplace-orders/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	return nil
}

type notifierFunc func(ctx context.Context, event domain.OrderCreated) error

func (f notifierFunc) OrderCreated(ctx context.Context, event domain.OrderCreated) error {
	return f(ctx, event)
}

func TestKafkaNotifier(t *testing.T) {
	event := randomEvent()

	tests := []struct {
		name      string
		writerErr error
		wantError string
	}{
		{
			name: "publish: ok",
		},
		{
			name:      "broker down: fail",
			writerErr: errors.New("dial tcp: connection refused"),
			wantError: "writer.WriteMessages: dial tcp: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := &fakeWriter{err: tt.writerErr}
			n := &KafkaNotifier{writer: writer}

			err := n.OrderCreated(t.Context(), event)
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			require.Len(t, writer.messages, 1)
			msg := writer.messages[0]
			assert.Equal(t, event.Order.ID.String(), string(msg.Key))

			var payload orderCreatedMessage
			require.NoError(t, json.Unmarshal(msg.Value, &payload))

			assert.Equal(t, event.Order.ID.String(), payload.OrderID)
			assert.Equal(t, event.BuyerEmail, payload.BuyerEmail)
			assert.Equal(t, "EGP", payload.Currency)
			assert.Equal(t, "40", payload.Total)
			require.Len(t, payload.Suborders, 2)
			assert.Equal(t, "seller-a", payload.Suborders[0].SellerID)
			assert.Equal(t, "20", payload.Suborders[0].Subtotal)
			assert.Equal(t, "seller-b", payload.Suborders[1].SellerID)
		})
	}
}

func TestFanout(t *testing.T) {
	var calls int

	ok := notifierFunc(func(context.Context, domain.OrderCreated) error {
		calls++
		return nil
	})
	failing := notifierFunc(func(context.Context, domain.OrderCreated) error {
		calls++
		return errors.New("queue closed")
	})

	err := Fanout(ok, failing, ok).OrderCreated(t.Context(), randomEvent())
	require.EqualError(t, err, "queue closed")
	assert.Equal(t, 3, calls)

	single := Fanout(ok)
	assert.NoError(t, single.OrderCreated(t.Context(), randomEvent()))
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	event := randomEvent()

	require.NoError(t, NewLog(logger).OrderCreated(t.Context(), event))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "order created event", record["msg"])
	assert.Equal(t, event.Order.ID.String(), record["order_id"])
	assert.Equal(t, event.BuyerEmail, record["buyer_email"])
}

func randomEvent() domain.OrderCreated {
	items := []domain.OrderItem{
		{ProductID: gofakeit.UUID(), SellerID: "seller-a", Quantity: 2, Price: decimal.NewFromInt(10)},
		{ProductID: gofakeit.UUID(), SellerID: "seller-b", Quantity: 1, Price: decimal.NewFromInt(20)},
	}

	now := time.Now()

	order := domain.Order{
		ID:        uuid.New(),
		BuyerID:   gofakeit.UUID(),
		Items:     items,
		Suborders: domain.GroupSuborders(items, now),
		Currency:  currency.MustParseISO("EGP"),
		Subtotal:  decimal.NewFromInt(40),
		Total:     decimal.NewFromInt(40),
		Status:    domain.OrderStatusProcessing,
	}
	for i := range order.Suborders {
		order.Suborders[i].ID = uuid.New()
	}

	return domain.OrderCreated{
		BuyerEmail: gofakeit.Email(),
		Order:      order,
		Buyer:      domain.Buyer{ID: order.BuyerID, FirstName: gofakeit.FirstName()},
		OccurredAt: now,
	}
}
