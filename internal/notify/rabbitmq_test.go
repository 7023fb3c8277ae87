package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRabbitMQNotifier(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}

	ctx := t.Context()

	container, url, err := startRabbitMQ(ctx)
	t.Cleanup(func() {
		if container != nil {
			assert.NoError(t, testcontainers.TerminateContainer(container))
		}
	})
	require.NoError(t, err)

	notifier, err := NewRabbitMQ(url, "")
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, notifier.Close())
	})

	event := randomEvent()
	require.NoError(t, notifier.OrderCreated(ctx, event))

	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	defer conn.Close()

	channel, err := conn.Channel()
	require.NoError(t, err)
	defer channel.Close()

	var delivery amqp.Delivery
	require.Eventually(t, func() bool {
		d, ok, err := channel.Get(OrderCreatedQueue, true)
		if err != nil || !ok {
			return false
		}
		delivery = d
		return true
	}, 10*time.Second, 100*time.Millisecond)

	assert.Equal(t, "application/json", delivery.ContentType)
	assert.Equal(t, event.Order.ID.String(), delivery.MessageId)
	assert.Equal(t, uint8(amqp.Persistent), delivery.DeliveryMode)

	var msg orderCreatedMessage
	require.NoError(t, json.Unmarshal(delivery.Body, &msg))
	assert.Equal(t, event.Order.ID.String(), msg.OrderID)
	assert.Equal(t, event.BuyerEmail, msg.BuyerEmail)
	assert.Len(t, msg.Suborders, len(event.Order.Suborders))
}

func startRabbitMQ(ctx context.Context) (testcontainers.Container, string, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3-alpine",
			ExposedPorts: []string{"5672/tcp"},
			WaitingFor: wait.ForAll(
				wait.ForLog("Server startup complete"),
				wait.ForListeningPort("5672/tcp"),
			),
		},
		Started: true,
	})
	if err != nil {
		return container, "", fmt.Errorf("testcontainers.GenericContainer: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return container, "", fmt.Errorf("container.Host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5672/tcp")
	if err != nil {
		return container, "", fmt.Errorf("container.MappedPort: %w", err)
	}

	return container, fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port()), nil
}
