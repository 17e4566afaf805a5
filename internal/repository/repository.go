package repository

import (
	"context"
	"time"

	"github.com/storefront-labs/orderengine/internal/domain"
)

// OrderFilter defines filter criteria for listing and summarizing orders.
// Nil fields do not filter. From is inclusive, To exclusive.
type OrderFilter struct {
	UserID *string
	Status *string
	From   *time.Time
	To     *time.Time
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// Create inserts a new order and its items.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by its unique identifier, including items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// GetForUpdate is GetByID that also locks the order until the enclosing
	// transaction ends. Outside a transaction it behaves like GetByID.
	GetForUpdate(ctx context.Context, id string) (*domain.Order, error)

	// List returns orders matching the filter, newest first.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, error)

	// UpdateStatus persists the lifecycle fields of order: status, the
	// shipped-stock guard and the shipped/delivered timestamps. It bumps
	// order.Version.
	UpdateStatus(ctx context.Context, order *domain.Order) error

	// Delete removes an order and its items.
	Delete(ctx context.Context, id string) error

	// Summarize aggregates the orders matching the filter.
	Summarize(ctx context.Context, filter OrderFilter) (domain.OrderSummary, error)
}

// ProductRepository defines the interface for catalog persistence.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// DecrementStock subtracts quantity from the product's stock in a single
	// atomic statement and returns the new stock. Unless allowNegative is
	// set, a decrement below zero fails with ErrInsufficientStock and leaves
	// the stock unchanged.
	DecrementStock(ctx context.Context, id string, quantity int, allowNegative bool) (int, error)

	// SaveReviews writes reviews, ratings and num_of_reviews if the stored
	// version still equals expectedVersion, failing with ErrConflict
	// otherwise. On success product.Version holds the new version.
	SaveReviews(ctx context.Context, product *domain.Product, expectedVersion int) error

	// UpdateRentalStatus sets the rental status and returns the product.
	UpdateRentalStatus(ctx context.Context, id, status string) (*domain.Product, error)

	// ListRentable returns every rentable product, newest first.
	ListRentable(ctx context.Context) ([]domain.Product, error)
}

// RentalRepository persists rental orders.
type RentalRepository interface {
	Create(ctx context.Context, order *domain.RentalOrder) error
	List(ctx context.Context) ([]domain.RentalOrder, error)
}

// Store groups the repositories over one backing store. Repositories handed
// to fn by WithinTx share a transaction that commits when fn returns nil
// and rolls back otherwise.
type Store interface {
	Orders() OrderRepository
	Products() ProductRepository
	Rentals() RentalRepository
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
