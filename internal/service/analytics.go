package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/storefront-labs/orderengine/internal/domain"
	"github.com/storefront-labs/orderengine/internal/repository"
	apperrors "github.com/storefront-labs/orderengine/pkg/errors"
)

// AnalyticsService aggregates orders for the admin dashboard.
type AnalyticsService struct {
	store  repository.Store
	logger *slog.Logger
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(store repository.Store, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{store: store, logger: logger}
}

// Summarize totals the orders matching filter. The zero filter covers every
// order.
func (s *AnalyticsService) Summarize(ctx context.Context, filter domain.AnalyticsFilter) (domain.OrderSummary, error) {
	if filter.Status != "" && !domain.IsValidStatus(filter.Status) {
		return domain.OrderSummary{}, apperrors.InvalidInput(fmt.Sprintf("unknown order status %q", filter.Status))
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return domain.OrderSummary{}, apperrors.InvalidInput("from must be before to")
	}

	of := repository.OrderFilter{From: filter.From, To: filter.To}
	if filter.Status != "" {
		of.Status = &filter.Status
	}

	summary, err := s.store.Orders().Summarize(ctx, of)
	if err != nil {
		return domain.OrderSummary{}, fmt.Errorf("summarize orders: %w", err)
	}

	s.logger.DebugContext(ctx, "orders summarized",
		slog.Int("total_orders", summary.TotalOrders),
		slog.Int64("total_amount", summary.TotalAmount),
	)
	return summary, nil
}
