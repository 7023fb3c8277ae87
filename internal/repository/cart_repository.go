package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/marketplace-orders/internal/db"
	"github.com/nikolayk812/marketplace-orders/internal/domain"
	"github.com/nikolayk812/marketplace-orders/internal/port"
	"github.com/samber/lo"
	"golang.org/x/text/currency"
)

type cartRepository struct {
	q    *db.Queries
	dbtx db.DBTX
}

func NewCart(pool *pgxpool.Pool) port.CartRepository {
	return &cartRepository{
		q:    db.New(pool),
		dbtx: pool,
	}
}

func NewCartWithTx(tx pgx.Tx) port.CartRepository {
	return &cartRepository{
		q:    db.New(tx),
		dbtx: tx,
	}
}

func (r *cartRepository) GetCart(ctx context.Context, ownerID string) (domain.Cart, error) {
	var c domain.Cart

	exists, err := r.q.CartExists(ctx, ownerID)
	if err != nil {
		return c, fmt.Errorf("q.CartExists: %w", err)
	}
	if !exists {
		return c, fmt.Errorf("q.CartExists: %w", ErrCartNotFound)
	}

	dbCartItems, err := r.q.GetCart(ctx, ownerID)
	if err != nil {
		return c, fmt.Errorf("q.GetCart: %w", err)
	}

	items, err := mapGetCartRowsToDomain(dbCartItems)
	if err != nil {
		return c, fmt.Errorf("mapGetCartRowsToDomain: %w", err)
	}

	return domain.Cart{
		OwnerID: ownerID,
		Items:   items,
	}, nil
}

func (r *cartRepository) SaveCart(ctx context.Context, cart domain.Cart) error {
	if cart.OwnerID == "" {
		return fmt.Errorf("ownerID is empty")
	}

	_, err := withTx(ctx, r.dbtx, func(q *db.Queries) (struct{}, error) {
		if err := q.UpsertCart(ctx, cart.OwnerID); err != nil {
			return struct{}{}, fmt.Errorf("q.UpsertCart: %w", err)
		}

		if err := q.DeleteCartItems(ctx, cart.OwnerID); err != nil {
			return struct{}{}, fmt.Errorf("q.DeleteCartItems: %w", err)
		}

		for _, item := range cart.Items {
			if err := q.AddItem(ctx, mapCartItemToParams(cart.OwnerID, item)); err != nil {
				return struct{}{}, fmt.Errorf("q.AddItem: %w", err)
			}
		}

		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("withTx: %w", err)
	}

	return nil
}

func (r *cartRepository) DeleteCart(ctx context.Context, ownerID string) error {
	cmdTag, err := r.q.DeleteCart(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("q.DeleteCart: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("q.DeleteCart: %w", ErrCartNotFound)
	}

	return nil
}

func (r *cartRepository) RemoveOffers(ctx context.Context, ownerID string, keys []domain.OfferKey) error {
	if ownerID == "" {
		return fmt.Errorf("ownerID is empty")
	}
	if len(keys) == 0 {
		return nil
	}

	productIDs := lo.Map(keys, func(k domain.OfferKey, _ int) string { return k.ProductID })
	sellerIDs := lo.Map(keys, func(k domain.OfferKey, _ int) string { return k.SellerID })

	_, err := withTx(ctx, r.dbtx, func(q *db.Queries) (struct{}, error) {
		if _, err := q.DeleteCartOffers(ctx, ownerID, productIDs, sellerIDs); err != nil {
			return struct{}{}, fmt.Errorf("q.DeleteCartOffers: %w", err)
		}

		if _, err := q.DeleteCartIfEmpty(ctx, ownerID); err != nil {
			return struct{}{}, fmt.Errorf("q.DeleteCartIfEmpty: %w", err)
		}

		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("withTx: %w", err)
	}

	return nil
}

func (r *cartRepository) AddItem(ctx context.Context, ownerID string, item domain.CartItem) error {
	if ownerID == "" {
		return fmt.Errorf("ownerID is empty")
	}
	if item.Quantity < 1 {
		return fmt.Errorf("quantity must be positive: %d", item.Quantity)
	}

	_, err := withTx(ctx, r.dbtx, func(q *db.Queries) (struct{}, error) {
		if err := q.UpsertCart(ctx, ownerID); err != nil {
			return struct{}{}, fmt.Errorf("q.UpsertCart: %w", err)
		}

		if err := q.AddItem(ctx, mapCartItemToParams(ownerID, item)); err != nil {
			return struct{}{}, fmt.Errorf("q.AddItem: %w", err)
		}

		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("withTx: %w", err)
	}

	return nil
}

func mapCartItemToParams(ownerID string, item domain.CartItem) db.AddItemParams {
	arg := db.AddItemParams{
		OwnerID:       ownerID,
		ProductID:     item.ProductID,
		SellerID:      item.SellerID,
		Quantity:      int32(item.Quantity),
		PriceAmount:   item.Price.Amount,
		PriceCurrency: item.Price.Currency.String(),
	}

	if !item.CreatedAt.IsZero() {
		createdAt := item.CreatedAt
		arg.CreatedAt = &createdAt
	}

	return arg
}

func mapGetCartRowToDomain(row db.CartItem) (domain.CartItem, error) {
	parsedCurrency, err := currency.ParseISO(row.PriceCurrency)
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("currency[%s] is not valid: %w", row.PriceCurrency, err)
	}

	return domain.CartItem{
		ProductID: row.ProductID,
		SellerID:  row.SellerID,
		Quantity:  int(row.Quantity),
		Price:     domain.Money{Amount: row.PriceAmount, Currency: parsedCurrency},
		CreatedAt: row.CreatedAt,
	}, nil
}

func mapGetCartRowsToDomain(rows []db.CartItem) ([]domain.CartItem, error) {
	var items []domain.CartItem

	for _, row := range rows {
		item, err := mapGetCartRowToDomain(row)
		if err != nil {
			return nil, fmt.Errorf("mapGetCartRowToDomain: %w", err)
		}

		items = append(items, item)
	}

	return items, nil
}
