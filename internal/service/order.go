package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/storefront-labs/orderengine/internal/auth"
	"github.com/storefront-labs/orderengine/internal/domain"
	"github.com/storefront-labs/orderengine/internal/repository"
	apperrors "github.com/storefront-labs/orderengine/pkg/errors"
)

// OrderService implements the order lifecycle.
type OrderService struct {
	store     repository.Store
	inventory *InventoryService
	events    EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(store repository.Store, inventory *InventoryService, events EventPublisher, logger *slog.Logger) *OrderService {
	return &OrderService{
		store:     store,
		inventory: inventory,
		events:    events,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrderItemInput is one requested order line.
type CreateOrderItemInput struct {
	ProductID string
	Quantity  int
}

// CreateOrderInput holds the parameters for creating an order.
type CreateOrderInput struct {
	Items         []CreateOrderItemInput
	ShippingInfo  domain.ShippingInfo
	PaymentInfo   domain.PaymentInfo
	TaxPrice      int64
	ShippingPrice int64
}

// CreateOrder places an order for principal. Line names and prices are
// copied from the catalog; the total is items + tax + shipping.
func (s *OrderService) CreateOrder(ctx context.Context, principal domain.Principal, input CreateOrderInput) (*domain.Order, error) {
	if len(input.Items) == 0 {
		return nil, apperrors.InvalidInput("order must contain at least one item")
	}
	if input.TaxPrice < 0 || input.ShippingPrice < 0 {
		return nil, apperrors.InvalidInput("tax and shipping prices must not be negative")
	}

	now := s.now()
	orderID := uuid.New().String()

	items := make([]domain.OrderItem, len(input.Items))
	for i, line := range input.Items {
		if line.Quantity <= 0 {
			return nil, apperrors.InvalidInput("quantity must be greater than 0")
		}
		product, err := s.store.Products().GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("load product %s: %w", line.ProductID, err)
		}
		items[i] = domain.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  line.Quantity,
		}
	}

	order := &domain.Order{
		ID:            orderID,
		UserID:        principal.ID,
		Items:         items,
		Status:        domain.OrderStatusProcessing,
		ShippingInfo:  input.ShippingInfo,
		PaymentInfo:   input.PaymentInfo,
		TaxPrice:      input.TaxPrice,
		ShippingPrice: input.ShippingPrice,
		PaidAt:        &now,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	order.ItemsPrice = order.ItemsTotal()
	order.TotalPrice = order.ItemsPrice + order.TaxPrice + order.ShippingPrice

	if err := s.store.Orders().Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.events.PublishOrderCreated(ctx, order); err != nil {
		logPublishFailure(ctx, s.logger, "order.created", err, slog.String("order_id", order.ID))
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("user_id", order.UserID),
		slog.Int64("total_price", order.TotalPrice),
	)

	return order, nil
}

// GetOrder returns an order its owner or an admin may see.
func (s *OrderService) GetOrder(ctx context.Context, principal domain.Principal, id string) (*domain.Order, error) {
	order, err := s.store.Orders().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order by id: %w", err)
	}
	if !auth.CanModify(principal, order.UserID) {
		return nil, apperrors.Unauthorized("you are not allowed to view this order")
	}
	return order, nil
}

// MyOrders lists the principal's own orders, newest first.
func (s *OrderService) MyOrders(ctx context.Context, principal domain.Principal) ([]domain.Order, error) {
	orders, err := s.store.Orders().List(ctx, repository.OrderFilter{UserID: &principal.ID})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// ListOrders returns every order and the sum of their totals.
func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, int64, error) {
	orders, err := s.store.Orders().List(ctx, repository.OrderFilter{})
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, domain.Summarize(orders).TotalAmount, nil
}

// UpdateStatus moves an order through Processing -> Shipped -> Delivered.
//
// Requesting the order's current status returns it unchanged. Shipping
// decrements stock for every line in the same transaction as the status
// write, guarded by ShippedStockApplied so a line is never reconciled
// twice. Events are published after commit.
func (s *OrderService) UpdateStatus(ctx context.Context, principal domain.Principal, id, requested string) (*domain.Order, error) {
	if !domain.IsValidStatus(requested) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown order status %q", requested))
	}

	var (
		order    *domain.Order
		previous string
		changes  []StockChange
		changed  bool
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		changes = nil

		o, err := tx.Orders().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !auth.CanModify(principal, o.UserID) {
			return apperrors.Unauthorized("you are not allowed to update this order")
		}
		if o.IsTerminal() {
			return apperrors.InvalidTransition("you have already delivered this order")
		}
		if o.Status == requested {
			order = o
			return nil
		}
		if !o.CanTransitionTo(requested) {
			return apperrors.InvalidTransition(fmt.Sprintf("cannot move order from %s to %s", o.Status, requested))
		}

		previous = o.Status
		now := s.now()

		switch requested {
		case domain.OrderStatusShipped:
			if o.NeedsStockReconciliation(requested) {
				for _, item := range o.Items {
					change, err := s.inventory.apply(ctx, tx.Products(), item.ProductID, o.ID, item.Quantity)
					if err != nil {
						return fmt.Errorf("reconcile stock for product %s: %w", item.ProductID, err)
					}
					changes = append(changes, *change)
				}
			}
			o.MarkShipped(now)
		case domain.OrderStatusDelivered:
			o.MarkDelivered(now)
		}

		if err := tx.Orders().UpdateStatus(ctx, o); err != nil {
			return err
		}
		order, changed = o, true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if !changed {
		return order, nil
	}

	orderTransitionsTotal.WithLabelValues(previous, order.Status).Inc()
	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", order.ID),
		slog.String("from", previous),
		slog.String("to", order.Status),
		slog.Int("stock_changes", len(changes)),
	)

	s.publishTransition(ctx, order, previous, changes)
	return order, nil
}

func (s *OrderService) publishTransition(ctx context.Context, order *domain.Order, previous string, changes []StockChange) {
	if err := s.events.PublishOrderStatusChanged(ctx, order.ID, previous, order.Status); err != nil {
		logPublishFailure(ctx, s.logger, "order.status_changed", err, slog.String("order_id", order.ID))
	}

	if len(changes) == 0 {
		return
	}
	if err := s.events.PublishOrderShipped(ctx, order); err != nil {
		logPublishFailure(ctx, s.logger, "order.shipped", err, slog.String("order_id", order.ID))
	}
	for _, c := range changes {
		if err := s.events.PublishStockDecremented(ctx, c.ProductID, order.ID, c.Quantity, c.Stock); err != nil {
			logPublishFailure(ctx, s.logger, "inventory.stock_decremented", err,
				slog.String("order_id", order.ID),
				slog.String("product_id", c.ProductID),
			)
		}
	}
}

// DeleteOrder removes an order. Stock already reconciled is not restored.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	if err := s.store.Orders().Delete(ctx, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	if err := s.events.PublishOrderDeleted(ctx, id); err != nil {
		logPublishFailure(ctx, s.logger, "order.deleted", err, slog.String("order_id", id))
	}

	s.logger.InfoContext(ctx, "order deleted", slog.String("order_id", id))
	return nil
}
