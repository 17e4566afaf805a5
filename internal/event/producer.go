package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/storefront-labs/orderengine/internal/domain"
	pkgkafka "github.com/storefront-labs/orderengine/pkg/kafka"
	"github.com/storefront-labs/orderengine/pkg/logger"
)

// Topics for storefront domain events.
var (
	TopicOrderCreated         = pkgkafka.Topic("order", "created")
	TopicOrderStatusChanged   = pkgkafka.Topic("order", "status_changed")
	TopicOrderShipped         = pkgkafka.Topic("order", "shipped")
	TopicOrderDeleted         = pkgkafka.Topic("order", "deleted")
	TopicReviewChanged        = pkgkafka.Topic("product", "review_changed")
	TopicInventoryDecremented = pkgkafka.Topic("inventory", "stock_decremented")
)

// Aggregate types.
const (
	AggregateTypeOrder   = "order"
	AggregateTypeProduct = "product"
)

// SourceOrderEngine identifies events originating from this service.
const SourceOrderEngine = "orderengine"

// Review change actions.
const (
	ReviewActionCreated = "created"
	ReviewActionUpdated = "updated"
	ReviewActionDeleted = "deleted"
)

// Bus delivers an event envelope to a topic. *pkgkafka.Producer satisfies it.
type Bus interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// OrderCreatedData is the payload for an order.created event.
type OrderCreatedData struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Status     string          `json:"status"`
	Items      []OrderLineData `json:"items"`
	TotalPrice int64           `json:"total_price"`
}

// OrderLineData is one order line in an event payload.
type OrderLineData struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Price     int64  `json:"price,omitempty"`
	Quantity  int    `json:"quantity"`
}

// OrderStatusChangedData is the payload for an order.status_changed event.
type OrderStatusChangedData struct {
	OrderID   string `json:"order_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// OrderShippedData lists the lines whose stock was reconciled.
type OrderShippedData struct {
	OrderID string          `json:"order_id"`
	Lines   []OrderLineData `json:"lines"`
}

// OrderDeletedData is the payload for an order.deleted event.
type OrderDeletedData struct {
	OrderID string `json:"order_id"`
}

// ReviewChangedData is the payload for a product.review_changed event.
type ReviewChangedData struct {
	ProductID    string  `json:"product_id"`
	ReviewID     string  `json:"review_id"`
	UserID       string  `json:"user_id"`
	Action       string  `json:"action"`
	Ratings      float64 `json:"ratings"`
	NumOfReviews int     `json:"num_of_reviews"`
}

// StockDecrementedData is the payload for an inventory.stock_decremented event.
type StockDecrementedData struct {
	ProductID string `json:"product_id"`
	OrderID   string `json:"order_id,omitempty"`
	Quantity  int    `json:"quantity"`
	Stock     int    `json:"stock"`
}

// Producer publishes storefront domain events.
type Producer struct {
	bus    Bus
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(bus Bus, logger *slog.Logger) *Producer {
	return &Producer{
		bus:    bus,
		logger: logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceOrderEngine, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.bus.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// PublishOrderCreated publishes an order.created event with the order lines.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, TopicOrderCreated, order.ID, AggregateTypeOrder, OrderCreatedData{
		ID:         order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		Items:      linesOf(order),
		TotalPrice: order.TotalPrice,
	})
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, orderID, oldStatus, newStatus string) error {
	return p.publish(ctx, TopicOrderStatusChanged, orderID, AggregateTypeOrder, OrderStatusChangedData{
		OrderID:   orderID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	})
}

// PublishOrderShipped publishes an order.shipped event carrying the lines
// whose stock was decremented.
func (p *Producer) PublishOrderShipped(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, TopicOrderShipped, order.ID, AggregateTypeOrder, OrderShippedData{
		OrderID: order.ID,
		Lines:   linesOf(order),
	})
}

// PublishOrderDeleted publishes an order.deleted event.
func (p *Producer) PublishOrderDeleted(ctx context.Context, orderID string) error {
	return p.publish(ctx, TopicOrderDeleted, orderID, AggregateTypeOrder, OrderDeletedData{OrderID: orderID})
}

// PublishReviewChanged publishes a product.review_changed event with the
// product's recomputed rating.
func (p *Producer) PublishReviewChanged(ctx context.Context, product *domain.Product, review *domain.Review, action string) error {
	return p.publish(ctx, TopicReviewChanged, product.ID, AggregateTypeProduct, ReviewChangedData{
		ProductID:    product.ID,
		ReviewID:     review.ID,
		UserID:       review.UserID,
		Action:       action,
		Ratings:      product.Ratings,
		NumOfReviews: product.NumOfReviews,
	})
}

// PublishStockDecremented publishes an inventory.stock_decremented event.
// orderID is empty for manual adjustments.
func (p *Producer) PublishStockDecremented(ctx context.Context, productID, orderID string, quantity, stock int) error {
	return p.publish(ctx, TopicInventoryDecremented, productID, AggregateTypeProduct, StockDecrementedData{
		ProductID: productID,
		OrderID:   orderID,
		Quantity:  quantity,
		Stock:     stock,
	})
}

func linesOf(order *domain.Order) []OrderLineData {
	lines := make([]OrderLineData, len(order.Items))
	for i, item := range order.Items {
		lines[i] = OrderLineData{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		}
	}
	return lines
}
