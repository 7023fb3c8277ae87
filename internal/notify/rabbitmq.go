package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/nikolayk812/marketplace-orders/internal/domain"
	"github.com/nikolayk812/marketplace-orders/internal/port"
	amqp "github.com/rabbitmq/amqp091-go"
)

const OrderCreatedQueue = "order.created"

type RabbitMQNotifier struct {
	conn  *amqp.Connection
	queue string

	// amqp channels are not safe for concurrent publishing
	mu      sync.Mutex
	channel *amqp.Channel
}

// NewRabbitMQ dials url and declares the durable queue.
func NewRabbitMQ(url, queue string) (*RabbitMQNotifier, error) {
	if queue == "" {
		queue = OrderCreatedQueue
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp.Dial: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("conn.Channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		queue, // queue name
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("channel.QueueDeclare: %w", err)
	}

	return &RabbitMQNotifier{
		conn:    conn,
		channel: channel,
		queue:   queue,
	}, nil
}

var _ port.Notifier = (*RabbitMQNotifier)(nil)

func (n *RabbitMQNotifier) OrderCreated(ctx context.Context, event domain.OrderCreated) error {
	data, err := marshalOrderCreated(event)
	if err != nil {
		return fmt.Errorf("marshalOrderCreated: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	err = n.channel.PublishWithContext(ctx,
		"",      // exchange
		n.queue, // routing key (queue name)
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.Order.ID.String(),
			Timestamp:    event.OccurredAt,
			Body:         data,
		},
	)
	if err != nil {
		return fmt.Errorf("channel.PublishWithContext: %w", err)
	}

	return nil
}

func (n *RabbitMQNotifier) Close() error {
	if n.channel != nil {
		n.channel.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
