package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/marketplace-orders/internal/domain"
	"github.com/nikolayk812/marketplace-orders/internal/port"
	"github.com/nikolayk812/marketplace-orders/internal/repository"
	"github.com/nikolayk812/marketplace-orders/internal/telemetry"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/currency"
)

var tracer = otel.Tracer("github.com/nikolayk812/marketplace-orders/internal/order")

type Config struct {
	DefaultCurrency currency.Unit
	IdempotencyTTL  time.Duration
}

// Service runs checkout and fulfillment on top of the stores.
type Service struct {
	txManager port.TxManager
	repos     port.Repositories
	notifier  port.Notifier
	cache     port.IdempotencyCache
	metrics   *telemetry.Metrics
	logger    *slog.Logger
	cfg       Config

	now func() time.Time

	// in-flight notifications
	wg sync.WaitGroup
}

// NewService wires the service. notifier, cache and metrics may be nil.
func NewService(
	txManager port.TxManager,
	notifier port.Notifier,
	cache port.IdempotencyCache,
	metrics *telemetry.Metrics,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultCurrency == (currency.Unit{}) {
		cfg.DefaultCurrency = currency.MustParseISO("EGP")
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 24 * time.Hour
	}

	return &Service{
		txManager: txManager,
		repos:     txManager.Repositories(),
		notifier:  notifier,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       now,
	}
}

// timestamps are stored with microsecond precision
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Checkout validates the checkout, reserves stock and persists the order in
// one transaction. A checkout carrying a known idempotency key returns the
// order created by the first attempt.
func (s *Service) Checkout(ctx context.Context, checkout domain.Checkout) (_ domain.Order, err error) {
	ctx, span := tracer.Start(ctx, "order.Checkout", trace.WithAttributes(
		attribute.String("buyer.id", checkout.BuyerID),
		attribute.Int("items", len(checkout.Items)),
	))
	defer func() {
		endSpan(span, err)
	}()

	key := checkout.IdempotencyKey

	if key != "" {
		existing, found, err := s.replay(ctx, key)
		if err != nil {
			return domain.Order{}, fmt.Errorf("s.replay: %w", err)
		}
		if found {
			s.metrics.CheckoutOutcome("replayed")
			return existing, nil
		}
	}

	var (
		created domain.Order
		buyer   domain.Buyer
		at      = s.now()
	)

	err = s.txManager.WithinTx(ctx, func(repos port.Repositories) error {
		a := assembler{buyers: repos.Buyers, offers: repos.Offers, defaultCurrency: s.cfg.DefaultCurrency}

		order, b, err := a.assemble(ctx, checkout, at)
		if err != nil {
			return err
		}

		if err := NewReservation(repos.Offers).Reserve(ctx, order.Items); err != nil {
			return err
		}

		saved, err := repos.Orders.InsertOrder(ctx, order)
		if err != nil {
			return fmt.Errorf("orders.InsertOrder: %w", err)
		}

		if key != "" {
			if err := repos.Orders.SaveIdempotencyKey(ctx, key, saved.ID); err != nil {
				return fmt.Errorf("orders.SaveIdempotencyKey: %w", err)
			}
		}

		created, buyer = saved, b
		return nil
	})
	if err != nil {
		if key != "" && errors.Is(err, repository.ErrDuplicateIdempotencyKey) {
			// a concurrent attempt with the same key committed first
			existing, found, replayErr := s.replay(ctx, key)
			if replayErr == nil && found {
				s.metrics.CheckoutOutcome("replayed")
				return existing, nil
			}
		}

		s.metrics.CheckoutOutcome(checkoutOutcome(err))
		return domain.Order{}, fmt.Errorf("txManager.WithinTx: %w", err)
	}

	span.SetAttributes(attribute.String("order.id", created.ID.String()))
	s.logger.InfoContext(ctx, "order created",
		"order_id", created.ID,
		"buyer_id", created.BuyerID,
		"suborders", len(created.Suborders),
		"total", created.Total.String(),
	)

	if key != "" {
		s.cacheOrderID(ctx, key, created.ID)
	}

	s.cleanupCart(ctx, created)
	s.notify(ctx, created, buyer)

	s.metrics.CheckoutOutcome("created")

	return created, nil
}

// replay resolves an idempotency key to the order it created, cache first.
func (s *Service) replay(ctx context.Context, key string) (domain.Order, bool, error) {
	if s.cache != nil {
		orderID, ok, err := s.cache.GetOrderID(ctx, key)
		if err != nil {
			s.logger.WarnContext(ctx, "idempotency cache lookup failed", "error", err)
		}
		if ok {
			order, err := s.repos.Orders.GetOrder(ctx, orderID)
			if err == nil {
				return order, true, nil
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return domain.Order{}, false, fmt.Errorf("orders.GetOrder: %w", err)
			}
		}
	}

	orderID, err := s.repos.Orders.GetOrderIDByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrIdempotencyKeyNotFound) {
			return domain.Order{}, false, nil
		}
		return domain.Order{}, false, fmt.Errorf("orders.GetOrderIDByIdempotencyKey: %w", err)
	}

	order, err := s.repos.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, false, fmt.Errorf("orders.GetOrder: %w", err)
	}

	s.cacheOrderID(ctx, key, orderID)

	return order, true, nil
}

func (s *Service) cacheOrderID(ctx context.Context, key string, orderID uuid.UUID) {
	if s.cache == nil {
		return
	}

	if err := s.cache.SetOrderID(ctx, key, orderID, s.cfg.IdempotencyTTL); err != nil {
		s.logger.WarnContext(ctx, "idempotency cache store failed", "order_id", orderID, "error", err)
	}
}

// cleanupCart removes the purchased offers from the buyer's cart.
// Failures are logged and never fail the checkout.
func (s *Service) cleanupCart(ctx context.Context, order domain.Order) {
	purchased := lo.Map(order.Items, func(item domain.OrderItem, _ int) domain.OfferKey {
		return item.OfferKey()
	})

	if err := s.repos.Carts.RemoveOffers(ctx, order.BuyerID, purchased); err != nil {
		s.logger.WarnContext(ctx, "cart cleanup failed", "order_id", order.ID, "error", err)
	}
}

// notify hands the created order to the notifier without waiting for it.
func (s *Service) notify(ctx context.Context, order domain.Order, buyer domain.Buyer) {
	if s.notifier == nil {
		return
	}

	email := buyer.Email
	if email == "" {
		email = order.ShippingInfo.Email
	}

	event := domain.OrderCreated{
		BuyerEmail: email,
		Order:      order,
		Buyer:      buyer,
		OccurredAt: s.now(),
	}

	// detach from the request so the dispatch survives the response
	notifyCtx := context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if err := s.notifier.OrderCreated(notifyCtx, event); err != nil {
			s.logger.ErrorContext(notifyCtx, "order notification failed", "order_id", order.ID, "error", err)
		}
	}()
}

// Wait blocks until all in-flight notifications have returned.
func (s *Service) Wait() {
	s.wg.Wait()
}

func checkoutOutcome(err error) string {
	var (
		validationErr *domain.ValidationError
		notFoundErr   *domain.NotFoundError
		stockErr      *domain.InsufficientStockError
		inventoryErr  *domain.InventoryUpdateError
	)

	switch {
	case errors.As(err, &validationErr):
		return "invalid"
	case errors.As(err, &notFoundErr):
		return "not_found"
	case errors.As(err, &stockErr):
		return "insufficient_stock"
	case errors.As(err, &inventoryErr):
		return "inventory_conflict"
	default:
		return "error"
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
