package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/storefront-labs/orderengine/internal/repository"
	apperrors "github.com/storefront-labs/orderengine/pkg/errors"
)

// InventoryService reconciles product stock with shipped orders.
type InventoryService struct {
	store         repository.Store
	events        EventPublisher
	allowNegative bool
	logger        *slog.Logger
}

// NewInventoryService creates a new inventory service. When allowNegative
// is false a decrement below zero fails with InsufficientStock.
func NewInventoryService(store repository.Store, events EventPublisher, allowNegative bool, logger *slog.Logger) *InventoryService {
	return &InventoryService{
		store:         store,
		events:        events,
		allowNegative: allowNegative,
		logger:        logger,
	}
}

// StockChange records one applied decrement.
type StockChange struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Stock     int    `json:"stock"`
}

// DecrementStock subtracts quantity from a product's stock outside of any
// order, as a manual adjustment.
func (s *InventoryService) DecrementStock(ctx context.Context, productID string, quantity int) (*StockChange, error) {
	change, err := s.apply(ctx, s.store.Products(), productID, "", quantity)
	if err != nil {
		return nil, fmt.Errorf("decrement stock: %w", err)
	}

	if err := s.events.PublishStockDecremented(ctx, productID, "", quantity, change.Stock); err != nil {
		logPublishFailure(ctx, s.logger, "inventory.stock_decremented", err, slog.String("product_id", productID))
	}
	return change, nil
}

// apply performs one decrement through products, which may be bound to a
// running transaction. orderID is only used for logging.
func (s *InventoryService) apply(ctx context.Context, products repository.ProductRepository, productID, orderID string, quantity int) (*StockChange, error) {
	if quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be greater than 0")
	}

	stock, err := products.DecrementStock(ctx, productID, quantity, s.allowNegative)
	if err != nil {
		return nil, err
	}
	stockDecrementsTotal.Inc()

	if stock < 0 {
		negativeStockTotal.Inc()
		s.logger.WarnContext(ctx, "product stock went negative",
			slog.String("product_id", productID),
			slog.String("order_id", orderID),
			slog.Int("quantity", quantity),
			slog.Int("stock", stock),
		)
	}

	return &StockChange{ProductID: productID, Quantity: quantity, Stock: stock}, nil
}
