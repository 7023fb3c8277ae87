// Package pgtest starts throwaway PostgreSQL containers for integration tests.
package pgtest

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/marketplace-orders/internal/repository"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const image = "postgres:17-alpine"

// StartPostgres runs a container, opens a pool against it and applies the schema.
func StartPostgres(ctx context.Context) (testcontainers.Container, *pgxpool.Pool, error) {
	container, err := postgres.Run(ctx, image,
		postgres.WithDatabase("orders"),
		postgres.WithUsername("orders"),
		postgres.WithPassword("orders"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres.Run: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return container, nil, fmt.Errorf("container.ConnectionString: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return container, nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := repository.Migrate(ctx, pool); err != nil {
		pool.Close()
		return container, nil, fmt.Errorf("repository.Migrate: %w", err)
	}

	return container, pool, nil
}
