package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/storefront-labs/orderengine/internal/domain"
	"github.com/storefront-labs/orderengine/internal/repository"
	apperrors "github.com/storefront-labs/orderengine/pkg/errors"
)

// ProductService manages catalog entries, including rentable products and
// rental orders.
type ProductService struct {
	store  repository.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewProductService creates a new product service.
func NewProductService(store repository.Store, logger *slog.Logger) *ProductService {
	return &ProductService{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name         string
	Description  string
	Category     string
	Price        int64
	Stock        int
	IsForSale    bool
	IsRentable   bool
	RentalPrice  int64
	RentalPeriod string
}

// CreateProduct adds a product owned by principal. Rentable products start
// out available.
func (s *ProductService) CreateProduct(ctx context.Context, principal domain.Principal, input CreateProductInput) (*domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	now := s.now()
	p := &domain.Product{
		ID:           uuid.New().String(),
		UserID:       principal.ID,
		Name:         input.Name,
		Description:  input.Description,
		Category:     input.Category,
		Price:        input.Price,
		Stock:        input.Stock,
		IsForSale:    input.IsForSale,
		IsRentable:   input.IsRentable,
		RentalPrice:  input.RentalPrice,
		RentalPeriod: input.RentalPeriod,
		Reviews:      []domain.Review{},
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if p.IsRentable {
		p.RentalStatus = domain.RentalStatusAvailable
	}

	if err := s.store.Products().Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", p.ID),
		slog.String("user_id", p.UserID),
		slog.Bool("rentable", p.IsRentable),
	)
	return p, nil
}

// CreateRentalProduct adds a product offered for rent only.
func (s *ProductService) CreateRentalProduct(ctx context.Context, principal domain.Principal, input CreateProductInput) (*domain.Product, error) {
	input.IsRentable = true
	input.IsForSale = false
	if input.RentalPeriod == "" {
		input.RentalPeriod = domain.RentalPeriodDaily
	}
	return s.CreateProduct(ctx, principal, input)
}

// GetProduct retrieves a product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.store.Products().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return p, nil
}

// UpdateRentalStatus sets a rentable product's availability.
func (s *ProductService) UpdateRentalStatus(ctx context.Context, id, status string) (*domain.Product, error) {
	if !domain.IsValidRentalStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown rental status %q", status))
	}

	p, err := s.store.Products().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	if !p.IsRentable {
		return nil, apperrors.InvalidInput("product is not rentable")
	}

	p, err = s.store.Products().UpdateRentalStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("update rental status: %w", err)
	}

	s.logger.InfoContext(ctx, "rental status updated",
		slog.String("product_id", id),
		slog.String("rental_status", status),
	)
	return p, nil
}

// ListRentalProducts returns every rentable product.
func (s *ProductService) ListRentalProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.store.Products().ListRentable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rental products: %w", err)
	}
	return products, nil
}

// CreateRentalOrder places a pending rental of the product at its current
// rental price.
func (s *ProductService) CreateRentalOrder(ctx context.Context, principal domain.Principal, productID string) (*domain.RentalOrder, error) {
	p, err := s.store.Products().GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	if !p.AvailableForRent() {
		return nil, apperrors.InvalidInput("product is not available for rent")
	}

	o := &domain.RentalOrder{
		ID:        uuid.New().String(),
		ProductID: p.ID,
		UserID:    principal.ID,
		Price:     p.RentalPrice,
		Status:    domain.RentalOrderStatusPending,
		CreatedAt: s.now(),
	}
	if err := s.store.Rentals().Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create rental order: %w", err)
	}

	s.logger.InfoContext(ctx, "rental order created",
		slog.String("rental_order_id", o.ID),
		slog.String("product_id", o.ProductID),
		slog.String("user_id", o.UserID),
	)
	return o, nil
}

// ListRentalOrders returns every rental order.
func (s *ProductService) ListRentalOrders(ctx context.Context) ([]domain.RentalOrder, error) {
	orders, err := s.store.Rentals().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rental orders: %w", err)
	}
	return orders, nil
}

func validateProductInput(input CreateProductInput) error {
	switch {
	case input.Name == "":
		return apperrors.InvalidInput("product name is required")
	case input.Price < 0 || input.Price > domain.MaxPrice:
		return apperrors.InvalidInput(fmt.Sprintf("price must be between 0 and %d", domain.MaxPrice))
	case input.RentalPrice < 0 || input.RentalPrice > domain.MaxPrice:
		return apperrors.InvalidInput(fmt.Sprintf("rental price must be between 0 and %d", domain.MaxPrice))
	case input.Stock < 0 || input.Stock > domain.MaxStock:
		return apperrors.InvalidInput(fmt.Sprintf("stock must be between 0 and %d", domain.MaxStock))
	case input.IsRentable && !domain.IsValidRentalPeriod(input.RentalPeriod):
		return apperrors.InvalidInput(fmt.Sprintf("unknown rental period %q", input.RentalPeriod))
	}
	return nil
}
