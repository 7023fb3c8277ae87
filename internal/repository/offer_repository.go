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
	"golang.org/x/text/currency"
)

type offerRepository struct {
	q *db.Queries
}

func NewOffer(pool *pgxpool.Pool) port.OfferRepository {
	return &offerRepository{
		q: db.New(pool),
	}
}

func NewOfferWithTx(tx pgx.Tx) port.OfferRepository {
	return &offerRepository{
		q: db.New(tx),
	}
}

func (r *offerRepository) GetOffer(ctx context.Context, key domain.OfferKey) (domain.Offer, error) {
	var o domain.Offer

	dbOffer, err := r.q.GetOffer(ctx, db.GetOfferParams{
		ProductID: key.ProductID,
		SellerID:  key.SellerID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return o, fmt.Errorf("q.GetOffer: %w", ErrOfferNotFound)
		}
		return o, fmt.Errorf("q.GetOffer: %w", err)
	}

	offer, err := mapDBOfferToDomain(dbOffer)
	if err != nil {
		return o, fmt.Errorf("mapDBOfferToDomain: %w", err)
	}

	return offer, nil
}

func (r *offerRepository) ProductExists(ctx context.Context, productID string) (bool, error) {
	exists, err := r.q.ProductExists(ctx, productID)
	if err != nil {
		return false, fmt.Errorf("q.ProductExists: %w", err)
	}

	return exists, nil
}

func (r *offerRepository) DecrementStock(ctx context.Context, key domain.OfferKey, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be positive: %d", quantity)
	}

	cmdTag, err := r.q.DecrementStock(ctx, db.ChangeStockParams{
		ProductID: key.ProductID,
		SellerID:  key.SellerID,
		Quantity:  int32(quantity),
	})
	if err != nil {
		return fmt.Errorf("q.DecrementStock: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("q.DecrementStock: %w", ErrOfferUnavailable)
	}

	return nil
}

func (r *offerRepository) IncrementStock(ctx context.Context, key domain.OfferKey, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be positive: %d", quantity)
	}

	cmdTag, err := r.q.IncrementStock(ctx, db.ChangeStockParams{
		ProductID: key.ProductID,
		SellerID:  key.SellerID,
		Quantity:  int32(quantity),
	})
	if err != nil {
		return fmt.Errorf("q.IncrementStock: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("q.IncrementStock: %w", ErrOfferNotFound)
	}

	return nil
}

func (r *offerRepository) UpsertProduct(ctx context.Context, product domain.Product) error {
	if product.ID == "" {
		return fmt.Errorf("productID is empty")
	}

	if err := r.q.UpsertProduct(ctx, product.ID, product.Name); err != nil {
		return fmt.Errorf("q.UpsertProduct: %w", err)
	}

	return nil
}

func (r *offerRepository) UpsertOffer(ctx context.Context, offer domain.Offer) error {
	if offer.Stock < 0 {
		return fmt.Errorf("stock must not be negative: %d", offer.Stock)
	}

	arg := db.UpsertOfferParams{
		ProductID:     offer.ProductID,
		SellerID:      offer.SellerID,
		PriceAmount:   offer.Price.Amount,
		PriceCurrency: offer.Price.Currency.String(),
		Stock:         int32(offer.Stock),
		Active:        offer.Active,
	}

	if err := r.q.UpsertOffer(ctx, arg); err != nil {
		return fmt.Errorf("q.UpsertOffer: %w", err)
	}

	return nil
}

func mapDBOfferToDomain(row db.Offer) (domain.Offer, error) {
	parsedCurrency, err := currency.ParseISO(row.PriceCurrency)
	if err != nil {
		return domain.Offer{}, fmt.Errorf("currency[%s] is not valid: %w", row.PriceCurrency, err)
	}

	return domain.Offer{
		ProductID: row.ProductID,
		SellerID:  row.SellerID,
		Price:     domain.Money{Amount: row.PriceAmount, Currency: parsedCurrency},
		Stock:     int(row.Stock),
		Active:    row.Active,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
