package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/storefront-labs/orderengine/internal/payment"
	apperrors "github.com/storefront-labs/orderengine/pkg/errors"
)

// PaymentService creates payment intents for the checkout page.
type PaymentService struct {
	provider       payment.Provider
	currency       string
	company        string
	publishableKey string
	logger         *slog.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(provider payment.Provider, currency, company, publishableKey string, logger *slog.Logger) *PaymentService {
	return &PaymentService{
		provider:       provider,
		currency:       currency,
		company:        company,
		publishableKey: publishableKey,
		logger:         logger,
	}
}

// ProcessPayment creates an intent for amount minor units and returns its
// client secret.
func (s *PaymentService) ProcessPayment(ctx context.Context, amount int64) (string, error) {
	if amount <= 0 {
		return "", apperrors.InvalidInput("amount must be greater than 0")
	}

	intent, err := s.provider.CreateIntent(ctx, &payment.IntentInput{
		Amount:   amount,
		Currency: s.currency,
		Metadata: map[string]string{"company": s.company},
	})
	if err != nil {
		return "", fmt.Errorf("process payment: %w", err)
	}

	s.logger.InfoContext(ctx, "payment intent created",
		slog.String("provider", s.provider.Name()),
		slog.String("intent_id", intent.ID),
		slog.Int64("amount", amount),
	)
	return intent.ClientSecret, nil
}

// PublishableKey returns the key the browser uses with the processor.
func (s *PaymentService) PublishableKey() string {
	return s.publishableKey
}
