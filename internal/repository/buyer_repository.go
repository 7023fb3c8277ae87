package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/marketplace-orders/internal/db"
	"github.com/nikolayk812/marketplace-orders/internal/domain"
	"github.com/nikolayk812/marketplace-orders/internal/port"
)

type buyerRepository struct {
	q *db.Queries
}

func NewBuyer(pool *pgxpool.Pool) port.BuyerRepository {
	return &buyerRepository{
		q: db.New(pool),
	}
}

func NewBuyerWithTx(tx pgx.Tx) port.BuyerRepository {
	return &buyerRepository{
		q: db.New(tx),
	}
}

func (r *buyerRepository) GetBuyer(ctx context.Context, buyerID string) (domain.Buyer, error) {
	dbBuyer, err := r.q.GetBuyer(ctx, buyerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Buyer{}, fmt.Errorf("q.GetBuyer: %w", ErrBuyerNotFound)
		}
		return domain.Buyer{}, fmt.Errorf("q.GetBuyer: %w", err)
	}

	return domain.Buyer{
		ID:        dbBuyer.ID,
		Email:     dbBuyer.Email,
		FirstName: dbBuyer.FirstName,
		LastName:  dbBuyer.LastName,
	}, nil
}

func (r *buyerRepository) UpsertBuyer(ctx context.Context, buyer domain.Buyer) error {
	if buyer.ID == "" {
		return fmt.Errorf("buyerID is empty")
	}

	if err := r.q.UpsertBuyer(ctx, db.UpsertBuyerParams{
		ID:        buyer.ID,
		Email:     buyer.Email,
		FirstName: buyer.FirstName,
		LastName:  buyer.LastName,
	}); err != nil {
		return fmt.Errorf("q.UpsertBuyer: %w", err)
	}

	return nil
}
