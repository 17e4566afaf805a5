package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/orderengine/internal/domain"
	"github.com/storefront-labs/orderengine/internal/repository/memory"
)

// --- Mock Publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockPublisher) PublishOrderStatusChanged(ctx context.Context, orderID, oldStatus, newStatus string) error {
	args := m.Called(ctx, orderID, oldStatus, newStatus)
	return args.Error(0)
}

func (m *mockPublisher) PublishOrderShipped(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockPublisher) PublishOrderDeleted(ctx context.Context, orderID string) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *mockPublisher) PublishReviewChanged(ctx context.Context, product *domain.Product, review *domain.Review, action string) error {
	args := m.Called(ctx, product, review, action)
	return args.Error(0)
}

func (m *mockPublisher) PublishStockDecremented(ctx context.Context, productID, orderID string, quantity, stock int) error {
	args := m.Called(ctx, productID, orderID, quantity, stock)
	return args.Error(0)
}

// newMockPublisher accepts every event. Tests assert on the recorded calls.
func newMockPublisher() *mockPublisher {
	m := new(mockPublisher)
	m.On("PublishOrderCreated", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("PublishOrderStatusChanged", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("PublishOrderShipped", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("PublishOrderDeleted", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("PublishReviewChanged", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("PublishStockDecremented", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return m
}

// --- Test Helpers ---

var (
	alice = domain.Principal{ID: "user-alice", Name: "Alice", Role: domain.RoleCustomer}
	bob   = domain.Principal{ID: "user-bob", Name: "Bob", Role: domain.RoleCustomer}
	admin = domain.Principal{ID: "user-admin", Name: "Admin", Role: domain.RoleAdmin}
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func seedProduct(t *testing.T, store *memory.Store, id string, price int64, stock int) *domain.Product {
	t.Helper()
	now := time.Now().UTC()
	p := &domain.Product{
		ID:        id,
		UserID:    admin.ID,
		Name:      "Product " + id,
		Price:     price,
		Stock:     stock,
		IsForSale: true,
		Reviews:   []domain.Review{},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.Products().Create(context.Background(), p))
	return p
}

func stockOf(t *testing.T, store *memory.Store, id string) int {
	t.Helper()
	p, err := store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}
