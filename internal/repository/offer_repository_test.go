package repository_test

import (
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/marketplace-orders/internal/domain"
	"github.com/nikolayk812/marketplace-orders/internal/pgtest"
	"github.com/nikolayk812/marketplace-orders/internal/port"
	"github.com/nikolayk812/marketplace-orders/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
)

type offerRepositorySuite struct {
	suite.Suite

	pool      *pgxpool.Pool
	offers    port.OfferRepository
	buyers    port.BuyerRepository
	txManager port.TxManager
	container testcontainers.Container
}

func TestOfferRepositorySuite(t *testing.T) {
	suite.Run(t, new(offerRepositorySuite))
}

func (suite *offerRepositorySuite) SetupSuite() {
	ctx := suite.T().Context()

	var err error

	suite.container, suite.pool, err = pgtest.StartPostgres(ctx)
	suite.Require().NoError(err)

	suite.offers = repository.NewOffer(suite.pool)
	suite.buyers = repository.NewBuyer(suite.pool)
	suite.txManager = repository.NewTxManager(suite.pool)
}

func (suite *offerRepositorySuite) TearDownSuite() {
	if suite.pool != nil {
		suite.pool.Close()
	}
	if suite.container != nil {
		suite.NoError(testcontainers.TerminateContainer(suite.container))
	}
}

func (suite *offerRepositorySuite) TestGetOffer() {
	offer := suite.insertOffer(5)

	tests := []struct {
		name      string
		key       domain.OfferKey
		wantError error
	}{
		{
			name: "existing offer: ok",
			key:  offer.Key(),
		},
		{
			name:      "other seller of same product: not found",
			key:       domain.OfferKey{ProductID: offer.ProductID, SellerID: randomSellerID()},
			wantError: repository.ErrOfferNotFound,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()

			actual, err := suite.offers.GetOffer(t.Context(), tt.key)
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, offer.ProductID, actual.ProductID)
			assert.Equal(t, offer.SellerID, actual.SellerID)
			assert.Equal(t, offer.Stock, actual.Stock)
			assert.True(t, offer.Price.Amount.Equal(actual.Price.Amount))
			assert.Equal(t, offer.Price.Currency.String(), actual.Price.Currency.String())
			assert.True(t, actual.Active)
			assert.False(t, actual.UpdatedAt.IsZero())
		})
	}
}

func (suite *offerRepositorySuite) TestProductExists() {
	offer := suite.insertOffer(1)

	t := suite.T()

	exists, err := suite.offers.ProductExists(t.Context(), offer.ProductID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = suite.offers.ProductExists(t.Context(), gofakeit.UUID())
	require.NoError(t, err)
	assert.False(t, exists)
}

func (suite *offerRepositorySuite) TestDecrementStock() {
	offer := suite.insertOffer(3)

	tests := []struct {
		name      string
		quantity  int
		wantStock int
		wantError error
	}{
		{
			name:      "decrement within stock: ok",
			quantity:  2,
			wantStock: 1,
		},
		{
			name:      "decrement beyond stock: unavailable",
			quantity:  2,
			wantStock: 1,
			wantError: repository.ErrOfferUnavailable,
		},
		{
			name:      "decrement remaining stock: ok",
			quantity:  1,
			wantStock: 0,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			err := suite.offers.DecrementStock(ctx, offer.Key(), tt.quantity)
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
			} else {
				require.NoError(t, err)
			}

			actual, err := suite.offers.GetOffer(ctx, offer.Key())
			require.NoError(t, err)
			assert.Equal(t, tt.wantStock, actual.Stock)
		})
	}
}

func (suite *offerRepositorySuite) TestDecrementStockInactive() {
	offer := suite.insertOffer(10)
	offer.Active = false

	t := suite.T()
	ctx := t.Context()

	require.NoError(t, suite.offers.UpsertOffer(ctx, offer))

	err := suite.offers.DecrementStock(ctx, offer.Key(), 1)
	assert.ErrorIs(t, err, repository.ErrOfferUnavailable)
}

func (suite *offerRepositorySuite) TestDecrementStockConcurrently() {
	const (
		stock   = 5
		workers = 20
	)

	offer := suite.insertOffer(stock)

	t := suite.T()
	ctx := t.Context()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := suite.offers.DecrementStock(ctx, offer.Key(), 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, stock, succeeded)

	actual, err := suite.offers.GetOffer(ctx, offer.Key())
	require.NoError(t, err)
	assert.Zero(t, actual.Stock)
}

func (suite *offerRepositorySuite) TestWithinTxRollback() {
	offer := suite.insertOffer(4)

	t := suite.T()
	ctx := t.Context()

	err := suite.txManager.WithinTx(ctx, func(repos port.Repositories) error {
		if err := repos.Offers.DecrementStock(ctx, offer.Key(), 3); err != nil {
			return err
		}
		return repos.Offers.DecrementStock(ctx, offer.Key(), 3)
	})
	require.ErrorIs(t, err, repository.ErrOfferUnavailable)

	actual, err := suite.offers.GetOffer(ctx, offer.Key())
	require.NoError(t, err)
	assert.Equal(t, 4, actual.Stock)
}

func (suite *offerRepositorySuite) TestIncrementStock() {
	offer := suite.insertOffer(1)

	t := suite.T()
	ctx := t.Context()

	require.NoError(t, suite.offers.IncrementStock(ctx, offer.Key(), 2))

	actual, err := suite.offers.GetOffer(ctx, offer.Key())
	require.NoError(t, err)
	assert.Equal(t, 3, actual.Stock)

	err = suite.offers.IncrementStock(ctx, domain.OfferKey{ProductID: offer.ProductID, SellerID: randomSellerID()}, 1)
	assert.ErrorIs(t, err, repository.ErrOfferNotFound)
}

func (suite *offerRepositorySuite) TestBuyer() {
	t := suite.T()
	ctx := t.Context()

	buyer := domain.Buyer{
		ID:        gofakeit.UUID(),
		Email:     gofakeit.Email(),
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
	}

	_, err := suite.buyers.GetBuyer(ctx, buyer.ID)
	assert.ErrorIs(t, err, repository.ErrBuyerNotFound)

	require.NoError(t, suite.buyers.UpsertBuyer(ctx, buyer))

	actual, err := suite.buyers.GetBuyer(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, buyer, actual)
}

func (suite *offerRepositorySuite) insertOffer(stock int) domain.Offer {
	ctx := suite.T().Context()

	product := domain.Product{ID: gofakeit.UUID(), Name: gofakeit.ProductName()}
	suite.Require().NoError(suite.offers.UpsertProduct(ctx, product))

	offer := domain.Offer{
		ProductID: product.ID,
		SellerID:  randomSellerID(),
		Price: domain.Money{
			Amount:   decimal.NewFromFloat(gofakeit.Price(1, 100)),
			Currency: randomCurrency(),
		},
		Stock:  stock,
		Active: true,
	}
	suite.Require().NoError(suite.offers.UpsertOffer(ctx, offer))

	return offer
}
