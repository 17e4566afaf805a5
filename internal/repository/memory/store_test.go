package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/orderengine/internal/domain"
	"github.com/storefront-labs/orderengine/internal/repository"
	apperrors "github.com/storefront-labs/orderengine/pkg/errors"
)

func seedProduct(t *testing.T, s *Store, id string, stock int) {
	t.Helper()
	require.NoError(t, s.Products().Create(context.Background(), &domain.Product{
		ID: id, Name: id, Stock: stock, Version: 1,
	}))
}

func TestStore_OrderRoundTripIsolatesCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedProduct(t, s, "p-1", 5)

	o := &domain.Order{
		ID:      "o-1",
		UserID:  "u-1",
		Status:  domain.OrderStatusProcessing,
		Items:   []domain.OrderItem{{ID: "i-1", OrderID: "o-1", ProductID: "p-1", Price: 100, Quantity: 1}},
		Version: 1,
	}
	require.NoError(t, s.Orders().Create(ctx, o))
	o.Items[0].Quantity = 99

	got, err := s.Orders().GetByID(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Items[0].Quantity)

	got.Items[0].Quantity = 42
	again, err := s.Orders().GetByID(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Items[0].Quantity)
}

func TestStore_OrderCreateRejectsUnknownProduct(t *testing.T) {
	s := NewStore()
	err := s.Orders().Create(context.Background(), &domain.Order{
		ID:    "o-1",
		Items: []domain.OrderItem{{ProductID: "ghost", Quantity: 1}},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestStore_UpdateStatusChecksVersion(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Orders().Create(ctx, &domain.Order{ID: "o-1", Status: domain.OrderStatusProcessing, Version: 1}))

	first, err := s.Orders().GetByID(ctx, "o-1")
	require.NoError(t, err)
	stale, err := s.Orders().GetByID(ctx, "o-1")
	require.NoError(t, err)

	first.MarkShipped(time.Now())
	require.NoError(t, s.Orders().UpdateStatus(ctx, first))
	assert.Equal(t, 2, first.Version)

	stale.MarkShipped(time.Now())
	assert.ErrorIs(t, s.Orders().UpdateStatus(ctx, stale), apperrors.ErrConflict)
}

func TestStore_ListAndSummarizeFilters(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	orders := []domain.Order{
		{ID: "a", UserID: "u-1", Status: domain.OrderStatusProcessing, TotalPrice: 1000, CreatedAt: base},
		{ID: "b", UserID: "u-1", Status: domain.OrderStatusProcessing, TotalPrice: 2000, CreatedAt: base.Add(time.Hour)},
		{ID: "c", UserID: "u-2", Status: domain.OrderStatusShipped, TotalPrice: 500, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "d", UserID: "u-2", Status: domain.OrderStatusDelivered, TotalPrice: 700, CreatedAt: base.Add(3 * time.Hour)},
	}
	for i := range orders {
		require.NoError(t, s.Orders().Create(ctx, &orders[i]))
	}

	mine, err := s.Orders().List(ctx, repository.OrderFilter{UserID: ptr("u-1")})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "b", mine[0].ID)

	all, err := s.Orders().Summarize(ctx, repository.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderSummary{TotalAmount: 4200, TotalOrders: 4, PendingOrders: 3, DeliveredOrders: 1}, all)

	to := base.Add(2 * time.Hour)
	early, err := s.Orders().Summarize(ctx, repository.OrderFilter{To: &to})
	require.NoError(t, err)
	assert.Equal(t, 2, early.TotalOrders)

	shipped, err := s.Orders().Summarize(ctx, repository.OrderFilter{Status: ptr(domain.OrderStatusShipped)})
	require.NoError(t, err)
	assert.Equal(t, int64(500), shipped.TotalAmount)
}

func TestStore_DecrementStock(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedProduct(t, s, "p-1", 2)

	_, err := s.Products().DecrementStock(ctx, "p-1", 3, false)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)

	stock, err := s.Products().DecrementStock(ctx, "p-1", 3, true)
	require.NoError(t, err)
	assert.Equal(t, -1, stock)

	_, err = s.Products().DecrementStock(ctx, "ghost", 1, true)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStore_ConcurrentDecrementsNeverLoseUpdates(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedProduct(t, s, "p-1", 100)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Products().DecrementStock(ctx, "p-1", 1, false)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err := s.Products().GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 50, p.Stock)
}

func TestStore_SaveReviewsCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedProduct(t, s, "p-1", 1)

	p, err := s.Products().GetByID(ctx, "p-1")
	require.NoError(t, err)
	p.SetReview(domain.Review{ID: "r-1", UserID: "u-1", Rating: 5}, time.Now())

	require.NoError(t, s.Products().SaveReviews(ctx, p, 1))
	assert.Equal(t, 2, p.Version)
	assert.ErrorIs(t, s.Products().SaveReviews(ctx, p, 1), apperrors.ErrConflict)

	stored, err := s.Products().GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.NumOfReviews)
	assert.Equal(t, 5.0, stored.Ratings)
}

func TestStore_WithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedProduct(t, s, "p-1", 10)
	seedProduct(t, s, "p-2", 1)

	err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.Products().DecrementStock(ctx, "p-1", 3, false); err != nil {
			return err
		}
		_, err := tx.Products().DecrementStock(ctx, "p-2", 5, false)
		return err
	})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)

	p, err := s.Products().GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)
}

func TestStore_WithinTxCommitsAndNests(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedProduct(t, s, "p-1", 10)

	err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return tx.WithinTx(ctx, func(ctx context.Context, inner repository.Store) error {
			_, err := inner.Products().DecrementStock(ctx, "p-1", 3, false)
			return err
		})
	})
	require.NoError(t, err)

	p, err := s.Products().GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 7, p.Stock)
}

func TestStore_WithinTxPropagatesCallbackError(t *testing.T) {
	s := NewStore()
	boom := errors.New("boom")
	err := s.WithinTx(context.Background(), func(context.Context, repository.Store) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestStore_Rentals(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Products().Create(ctx, &domain.Product{
		ID: "p-1", IsRentable: true, RentalStatus: domain.RentalStatusAvailable,
	}))
	require.NoError(t, s.Products().Create(ctx, &domain.Product{ID: "p-2"}))

	rentable, err := s.Products().ListRentable(ctx)
	require.NoError(t, err)
	require.Len(t, rentable, 1)

	p, err := s.Products().UpdateRentalStatus(ctx, "p-1", domain.RentalStatusRented)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusRented, p.RentalStatus)

	require.NoError(t, s.Rentals().Create(ctx, &domain.RentalOrder{ID: "r-1", ProductID: "p-1"}))
	assert.ErrorIs(t, s.Rentals().Create(ctx, &domain.RentalOrder{ID: "r-2", ProductID: "ghost"}), apperrors.ErrInvalidInput)

	rentals, err := s.Rentals().List(ctx)
	require.NoError(t, err)
	assert.Len(t, rentals, 1)
}

func ptr[T any](v T) *T { return &v }
