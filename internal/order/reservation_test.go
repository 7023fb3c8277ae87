package order

import (
	"context"
	"errors"
	"testing"

	"github.com/nikolayk812/marketplace-orders/internal/domain"
	"github.com/nikolayk812/marketplace-orders/internal/port"
	"github.com/nikolayk812/marketplace-orders/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOffers keeps stock in memory and records stock calls in call order.
type fakeOffers struct {
	port.OfferRepository

	stock       map[domain.OfferKey]int
	decremented []domain.OfferKey
	incremented []domain.OfferKey
	incErr      error
	getErr      error
}

func (f *fakeOffers) GetOffer(_ context.Context, key domain.OfferKey) (domain.Offer, error) {
	if f.getErr != nil {
		return domain.Offer{}, f.getErr
	}
	stock, ok := f.stock[key]
	if !ok {
		return domain.Offer{}, repository.ErrOfferNotFound
	}
	return domain.Offer{ProductID: key.ProductID, SellerID: key.SellerID, Stock: stock, Active: true}, nil
}

func (f *fakeOffers) DecrementStock(_ context.Context, key domain.OfferKey, quantity int) error {
	f.decremented = append(f.decremented, key)

	available, ok := f.stock[key]
	if !ok {
		return repository.ErrOfferNotFound
	}
	if available < quantity {
		return repository.ErrOfferUnavailable
	}
	f.stock[key] = available - quantity
	return nil
}

func (f *fakeOffers) IncrementStock(_ context.Context, key domain.OfferKey, quantity int) error {
	if f.incErr != nil {
		return f.incErr
	}
	f.stock[key] += quantity
	f.incremented = append(f.incremented, key)
	return nil
}

var (
	keyA = domain.OfferKey{ProductID: "p-a", SellerID: "seller-1"}
	keyB = domain.OfferKey{ProductID: "p-b", SellerID: "seller-1"}
	keyC = domain.OfferKey{ProductID: "p-c", SellerID: "seller-2"}
)

func items(quantities map[domain.OfferKey]int, keys ...domain.OfferKey) []domain.OrderItem {
	out := make([]domain.OrderItem, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.OrderItem{ProductID: k.ProductID, SellerID: k.SellerID, Quantity: quantities[k]})
	}
	return out
}

func TestReservation_Reserve(t *testing.T) {
	quantities := map[domain.OfferKey]int{keyA: 2, keyB: 1, keyC: 3}

	tests := []struct {
		name         string
		stock        map[domain.OfferKey]int
		wantStock    map[domain.OfferKey]int
		wantReserved []domain.OfferKey
		wantReleased []domain.OfferKey
		wantShort    *domain.InsufficientStockError
		wantErr      error
	}{
		{
			name:         "all reserved",
			stock:        map[domain.OfferKey]int{keyA: 2, keyB: 5, keyC: 3},
			wantStock:    map[domain.OfferKey]int{keyA: 0, keyB: 4, keyC: 0},
			wantReserved: []domain.OfferKey{keyA, keyB, keyC},
		},
		{
			name:         "last offer short: earlier released newest first",
			stock:        map[domain.OfferKey]int{keyA: 2, keyB: 5, keyC: 2},
			wantStock:    map[domain.OfferKey]int{keyA: 2, keyB: 5, keyC: 2},
			wantReserved: []domain.OfferKey{},
			wantReleased: []domain.OfferKey{keyB, keyA},
			wantShort: &domain.InsufficientStockError{
				ItemIndex: 2, ProductID: keyC.ProductID, SellerID: keyC.SellerID, Requested: 3, Available: 2,
			},
		},
		{
			name:         "stock gone: nothing left",
			stock:        map[domain.OfferKey]int{keyA: 0, keyB: 5, keyC: 3},
			wantStock:    map[domain.OfferKey]int{keyA: 0, keyB: 5, keyC: 3},
			wantReserved: []domain.OfferKey{},
			wantShort: &domain.InsufficientStockError{
				ItemIndex: 0, ProductID: keyA.ProductID, SellerID: keyA.SellerID, Requested: 2, Available: 0,
			},
		},
		{
			name:         "missing offer: not released",
			stock:        map[domain.OfferKey]int{keyA: 2, keyB: 5},
			wantStock:    map[domain.OfferKey]int{keyA: 0, keyB: 4},
			wantReserved: []domain.OfferKey{keyA, keyB},
			wantErr:      repository.ErrOfferNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offers := &fakeOffers{stock: tt.stock}
			r := NewReservation(offers)

			err := r.Reserve(t.Context(), items(quantities, keyA, keyB, keyC))

			switch {
			case tt.wantShort != nil:
				var stockErr *domain.InsufficientStockError
				require.ErrorAs(t, err, &stockErr)
				assert.Equal(t, tt.wantShort, stockErr)
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			default:
				require.NoError(t, err)
			}

			assert.Equal(t, tt.wantStock, offers.stock)
			assert.Equal(t, tt.wantReserved, r.Reserved())
			assert.Equal(t, tt.wantReleased, offers.incremented)
		})
	}
}

func TestReservation_ReserveSortsOffers(t *testing.T) {
	quantities := map[domain.OfferKey]int{keyA: 1, keyB: 1, keyC: 1}
	keyA2 := domain.OfferKey{ProductID: keyA.ProductID, SellerID: "seller-0"}
	quantities[keyA2] = 1

	offers := &fakeOffers{stock: map[domain.OfferKey]int{keyA: 1, keyA2: 1, keyB: 1, keyC: 1}}
	r := NewReservation(offers)

	require.NoError(t, r.Reserve(t.Context(), items(quantities, keyC, keyA, keyB, keyA2)))

	want := []domain.OfferKey{keyA2, keyA, keyB, keyC}
	assert.Equal(t, want, offers.decremented)
	assert.Equal(t, want, r.Reserved())
}

func TestReservation_ReserveShortIndexFollowsInput(t *testing.T) {
	quantities := map[domain.OfferKey]int{keyA: 1, keyC: 4}
	offers := &fakeOffers{stock: map[domain.OfferKey]int{keyA: 1, keyC: 1}}

	err := NewReservation(offers).Reserve(t.Context(), items(quantities, keyC, keyA))

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 0, stockErr.ItemIndex)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, []domain.OfferKey{keyA}, offers.incremented)
}

func TestReservation_ReserveOfferUnreadable(t *testing.T) {
	offers := &fakeOffers{
		stock:  map[domain.OfferKey]int{keyA: 0},
		getErr: errors.New("connection reset"),
	}

	err := NewReservation(offers).Reserve(t.Context(), items(map[domain.OfferKey]int{keyA: 1}, keyA))

	var inventoryErr *domain.InventoryUpdateError
	require.ErrorAs(t, err, &inventoryErr)
	assert.ErrorIs(t, err, repository.ErrOfferUnavailable)
	assert.ErrorContains(t, err, "connection reset")
}

func TestReservation_Release(t *testing.T) {
	offers := &fakeOffers{stock: map[domain.OfferKey]int{keyA: 2, keyB: 5}}
	r := NewReservation(offers)

	require.NoError(t, r.Reserve(t.Context(), items(map[domain.OfferKey]int{keyA: 1, keyB: 1}, keyA, keyB)))

	offers.incErr = errors.New("connection reset")

	err := r.Release(t.Context())
	require.Error(t, err)
	assert.ErrorContains(t, err, "offers.IncrementStock[p-b/seller-1]")
	assert.ErrorContains(t, err, "offers.IncrementStock[p-a/seller-1]")
	assert.Empty(t, r.Reserved())

	// nothing left to release
	require.NoError(t, r.Release(t.Context()))
}
