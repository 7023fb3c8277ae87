package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nikolayk812/marketplace-orders/internal/domain"
	"github.com/nikolayk812/marketplace-orders/internal/port"
)

// LogNotifier only logs the event. It is used when no broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) OrderCreated(ctx context.Context, event domain.OrderCreated) error {
	n.logger.InfoContext(ctx, "order created event",
		"order_id", event.Order.ID,
		"buyer_email", event.BuyerEmail,
		"suborders", len(event.Order.Suborders),
		"total", event.Order.Total.String(),
	)
	return nil
}

type fanout []port.Notifier

// Fanout delivers every event to all notifiers and joins their errors.
func Fanout(notifiers ...port.Notifier) port.Notifier {
	if len(notifiers) == 1 {
		return notifiers[0]
	}
	return fanout(notifiers)
}

func (f fanout) OrderCreated(ctx context.Context, event domain.OrderCreated) error {
	var errs []error
	for _, n := range f {
		if err := n.OrderCreated(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
