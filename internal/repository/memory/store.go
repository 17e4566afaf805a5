// Package memory implements the repository interfaces in process memory.
// It backs STORE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/storefront-labs/orderengine/internal/domain"
	"github.com/storefront-labs/orderengine/internal/repository"
	apperrors "github.com/storefront-labs/orderengine/pkg/errors"
)

type state struct {
	orders   map[string]domain.Order
	products map[string]domain.Product
	rentals  map[string]domain.RentalOrder
}

func newState() *state {
	return &state{
		orders:   make(map[string]domain.Order),
		products: make(map[string]domain.Product),
		rentals:  make(map[string]domain.RentalOrder),
	}
}

func (st *state) clone() *state {
	c := newState()
	for id, o := range st.orders {
		c.orders[id] = cloneOrder(o)
	}
	for id, p := range st.products {
		c.products[id] = cloneProduct(p)
	}
	for id, r := range st.rentals {
		c.rentals[id] = r
	}
	return c
}

// Store is an in-memory repository.Store. A single mutex serializes every
// operation; WithinTx holds it for the whole callback and restores a
// snapshot when the callback fails.
type Store struct {
	mu    *sync.Mutex
	state *state
	inTx  bool
	now   func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		mu:    &sync.Mutex{},
		state: newState(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Orders() repository.OrderRepository     { return &OrderRepository{s: s} }
func (s *Store) Products() repository.ProductRepository { return &ProductRepository{s: s} }
func (s *Store) Rentals() repository.RentalRepository   { return &RentalRepository{s: s} }

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	tx := &Store{mu: s.mu, state: s.state, inTx: true, now: s.now}
	if err := fn(ctx, tx); err != nil {
		*s.state = *snapshot
		return err
	}
	return nil
}

// lock acquires the store mutex unless the caller already runs inside
// WithinTx, and returns the matching unlock.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

var _ repository.Store = (*Store)(nil)

// OrderRepository is the in-memory repository.OrderRepository.
type OrderRepository struct {
	s *Store
}

func (r *OrderRepository) Create(_ context.Context, o *domain.Order) error {
	defer r.s.lock()()

	if _, ok := r.s.state.orders[o.ID]; ok {
		return apperrors.Conflict("record already exists")
	}
	for _, item := range o.Items {
		if _, ok := r.s.state.products[item.ProductID]; !ok {
			return apperrors.InvalidInput("referenced record does not exist")
		}
	}
	r.s.state.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (r *OrderRepository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	defer r.s.lock()()

	o, ok := r.s.state.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order", id)
	}
	c := cloneOrder(o)
	return &c, nil
}

// GetForUpdate is GetByID; the store mutex already serializes transactions.
func (r *OrderRepository) GetForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *OrderRepository) List(_ context.Context, filter repository.OrderFilter) ([]domain.Order, error) {
	defer r.s.lock()()

	orders := []domain.Order{}
	for _, o := range r.s.state.orders {
		if matches(&o, filter) {
			orders = append(orders, cloneOrder(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID < orders[j].ID
	})
	return orders, nil
}

func (r *OrderRepository) UpdateStatus(_ context.Context, o *domain.Order) error {
	defer r.s.lock()()

	stored, ok := r.s.state.orders[o.ID]
	if !ok || stored.Version != o.Version {
		return apperrors.Conflict("order " + o.ID + " was modified concurrently")
	}

	stored.Status = o.Status
	stored.ShippedStockApplied = o.ShippedStockApplied
	stored.ShippedAt = cloneTime(o.ShippedAt)
	stored.DeliveredAt = cloneTime(o.DeliveredAt)
	stored.UpdatedAt = o.UpdatedAt
	stored.Version++
	r.s.state.orders[o.ID] = stored

	o.Version = stored.Version
	return nil
}

func (r *OrderRepository) Delete(_ context.Context, id string) error {
	defer r.s.lock()()

	if _, ok := r.s.state.orders[id]; !ok {
		return apperrors.NotFound("order", id)
	}
	delete(r.s.state.orders, id)
	return nil
}

func (r *OrderRepository) Summarize(_ context.Context, filter repository.OrderFilter) (domain.OrderSummary, error) {
	defer r.s.lock()()

	var s domain.OrderSummary
	for _, o := range r.s.state.orders {
		if matches(&o, filter) {
			s.Add(&o)
		}
	}
	return s, nil
}

func matches(o *domain.Order, f repository.OrderFilter) bool {
	if f.UserID != nil && o.UserID != *f.UserID {
		return false
	}
	if f.Status != nil && o.Status != *f.Status {
		return false
	}
	return domain.AnalyticsFilter{From: f.From, To: f.To}.Matches(o)
}

// ProductRepository is the in-memory repository.ProductRepository.
type ProductRepository struct {
	s *Store
}

func (r *ProductRepository) Create(_ context.Context, p *domain.Product) error {
	defer r.s.lock()()

	if _, ok := r.s.state.products[p.ID]; ok {
		return apperrors.Conflict("record already exists")
	}
	c := cloneProduct(*p)
	if c.Reviews == nil {
		c.Reviews = []domain.Review{}
	}
	r.s.state.products[p.ID] = c
	return nil
}

func (r *ProductRepository) GetByID(_ context.Context, id string) (*domain.Product, error) {
	defer r.s.lock()()

	p, ok := r.s.state.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	c := cloneProduct(p)
	return &c, nil
}

func (r *ProductRepository) DecrementStock(_ context.Context, id string, quantity int, allowNegative bool) (int, error) {
	defer r.s.lock()()

	p, ok := r.s.state.products[id]
	if !ok {
		return 0, apperrors.NotFound("product", id)
	}
	if !allowNegative && p.Stock < quantity {
		return 0, apperrors.InsufficientStock(id, p.Stock, quantity)
	}

	p.Stock -= quantity
	p.Version++
	p.UpdatedAt = r.s.now()
	r.s.state.products[id] = p
	return p.Stock, nil
}

func (r *ProductRepository) SaveReviews(_ context.Context, p *domain.Product, expectedVersion int) error {
	defer r.s.lock()()

	stored, ok := r.s.state.products[p.ID]
	if !ok || stored.Version != expectedVersion {
		return apperrors.Conflict("product " + p.ID + " was modified concurrently")
	}

	stored.Reviews = cloneReviews(p.Reviews)
	stored.Ratings = p.Ratings
	stored.NumOfReviews = p.NumOfReviews
	stored.UpdatedAt = p.UpdatedAt
	stored.Version++
	r.s.state.products[p.ID] = stored

	p.Version = stored.Version
	return nil
}

func (r *ProductRepository) UpdateRentalStatus(_ context.Context, id, status string) (*domain.Product, error) {
	defer r.s.lock()()

	p, ok := r.s.state.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	p.RentalStatus = status
	p.Version++
	p.UpdatedAt = r.s.now()
	r.s.state.products[id] = p

	c := cloneProduct(p)
	return &c, nil
}

func (r *ProductRepository) ListRentable(_ context.Context) ([]domain.Product, error) {
	defer r.s.lock()()

	products := []domain.Product{}
	for _, p := range r.s.state.products {
		if p.IsRentable {
			products = append(products, cloneProduct(p))
		}
	}
	sort.Slice(products, func(i, j int) bool {
		if !products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].CreatedAt.After(products[j].CreatedAt)
		}
		return products[i].ID < products[j].ID
	})
	return products, nil
}

// RentalRepository is the in-memory repository.RentalRepository.
type RentalRepository struct {
	s *Store
}

func (r *RentalRepository) Create(_ context.Context, o *domain.RentalOrder) error {
	defer r.s.lock()()

	if _, ok := r.s.state.products[o.ProductID]; !ok {
		return apperrors.InvalidInput("referenced record does not exist")
	}
	r.s.state.rentals[o.ID] = *o
	return nil
}

func (r *RentalRepository) List(_ context.Context) ([]domain.RentalOrder, error) {
	defer r.s.lock()()

	orders := make([]domain.RentalOrder, 0, len(r.s.state.rentals))
	for _, o := range r.s.state.rentals {
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID < orders[j].ID
	})
	return orders, nil
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem{}, o.Items...)
	o.PaidAt = cloneTime(o.PaidAt)
	o.ShippedAt = cloneTime(o.ShippedAt)
	o.DeliveredAt = cloneTime(o.DeliveredAt)
	return o
}

func cloneProduct(p domain.Product) domain.Product {
	p.Reviews = cloneReviews(p.Reviews)
	return p
}

func cloneReviews(reviews []domain.Review) []domain.Review {
	return append([]domain.Review{}, reviews...)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
