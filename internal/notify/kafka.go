package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/nikolayk812/marketplace-orders/internal/domain"
	"github.com/nikolayk812/marketplace-orders/internal/port"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaNotifier struct {
	writer messageWriter
}

// NewKafka publishes order events to topic, keyed by order id so that
// all events of one order land on the same partition.
func NewKafka(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

var _ port.Notifier = (*KafkaNotifier)(nil)

func (n *KafkaNotifier) OrderCreated(ctx context.Context, event domain.OrderCreated) error {
	data, err := marshalOrderCreated(event)
	if err != nil {
		return fmt.Errorf("marshalOrderCreated: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Order.ID.String()),
		Value: data,
		Time:  time.Now().UTC(),
	}

	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writer.WriteMessages: %w", err)
	}

	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
