package service

import (
	"context"
	"log/slog"

	"github.com/storefront-labs/orderengine/internal/domain"
)

// EventPublisher publishes domain events once the write they describe has
// committed. *event.Producer satisfies it.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *domain.Order) error
	PublishOrderStatusChanged(ctx context.Context, orderID, oldStatus, newStatus string) error
	PublishOrderShipped(ctx context.Context, order *domain.Order) error
	PublishOrderDeleted(ctx context.Context, orderID string) error
	PublishReviewChanged(ctx context.Context, product *domain.Product, review *domain.Review, action string) error
	PublishStockDecremented(ctx context.Context, productID, orderID string, quantity, stock int) error
}

// logPublishFailure records a failed publish. Events never fail the request
// that produced them.
func logPublishFailure(ctx context.Context, logger *slog.Logger, eventName string, err error, attrs ...any) {
	attrs = append(attrs, slog.String("error", err.Error()))
	logger.ErrorContext(ctx, "failed to publish "+eventName+" event", attrs...)
}
