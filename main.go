package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/marketplace-orders/internal/cache"
	"github.com/nikolayk812/marketplace-orders/internal/config"
	"github.com/nikolayk812/marketplace-orders/internal/httpx"
	"github.com/nikolayk812/marketplace-orders/internal/notify"
	"github.com/nikolayk812/marketplace-orders/internal/order"
	"github.com/nikolayk812/marketplace-orders/internal/port"
	"github.com/nikolayk812/marketplace-orders/internal/repository"
	"github.com/nikolayk812/marketplace-orders/internal/telemetry"
	"github.com/redis/go-redis/v9"
)

const serviceName = "marketplace-orders"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	logger := telemetry.NewLogger(os.Stdout, telemetry.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.SetupTracer(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry.SetupTracer: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("tracer shutdown failed", "error", err)
		}
	}()

	pool, err := newPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("repository.Migrate: %w", err)
	}

	var idempotencyCache port.IdempotencyCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis.Ping: %w", err)
		}
		idempotencyCache = cache.NewRedisCache(client, serviceName)
	}

	notifier, closers, err := newNotifier(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				logger.Error("notifier close failed", "error", err)
			}
		}
	}()

	metrics := telemetry.NewMetrics()

	svc := order.NewService(repository.NewTxManager(pool), notifier, idempotencyCache, metrics, logger, order.Config{
		DefaultCurrency: cfg.DefaultCurrency,
		IdempotencyTTL:  cfg.IdempotencyTTL,
	})

	handler := httpx.NewHandler(svc, pool, logger)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpx.NewRouter(handler, metrics, cfg.RequestTimeout),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server.ListenAndServe: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
	}

	// let detached order notifications finish before the brokers close
	svc.Wait()

	return nil
}

func newPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.ParseConfig: %w", err)
	}
	poolCfg.MaxConns = cfg.DBMaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pool.Ping: %w", err)
	}

	return pool, nil
}

// newNotifier fans out to every configured broker and falls back to the log.
func newNotifier(cfg *config.Config, logger *slog.Logger) (port.Notifier, []io.Closer, error) {
	var (
		notifiers []port.Notifier
		closers   []io.Closer
	)

	if len(cfg.KafkaBrokers) > 0 {
		k := notify.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		notifiers = append(notifiers, k)
		closers = append(closers, k)
	}

	if cfg.RabbitMQURL != "" {
		r, err := notify.NewRabbitMQ(cfg.RabbitMQURL, cfg.RabbitMQQueue)
		if err != nil {
			for _, c := range closers {
				_ = c.Close()
			}
			return nil, nil, fmt.Errorf("notify.NewRabbitMQ: %w", err)
		}
		notifiers = append(notifiers, r)
		closers = append(closers, r)
	}

	if len(notifiers) == 0 {
		return notify.NewLog(logger), nil, nil
	}

	return notify.Fanout(notifiers...), closers, nil
}
