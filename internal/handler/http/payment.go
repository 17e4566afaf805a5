package http

import (
	"log/slog"
	"net/http"

	"github.com/storefront-labs/orderengine/internal/service"
	"github.com/storefront-labs/orderengine/pkg/httputil"
)

// PaymentHandler handles HTTP requests for payment endpoints.
type PaymentHandler struct {
	service *service.PaymentService
	logger  *slog.Logger
}

// NewPaymentHandler creates a new payment HTTP handler.
func NewPaymentHandler(svc *service.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: svc,
		logger:  logger,
	}
}

// ProcessPaymentRequest is the JSON request body for creating a payment intent.
type ProcessPaymentRequest struct {
	Amount int64 `json:"amount" validate:"required,gte=1"`
}

// ProcessPayment handles POST /api/v1/payment/process
func (h *PaymentHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req ProcessPaymentRequest
	if !httputil.DecodeAndValidate(w, r, &req) {
		return
	}

	secret, err := h.service.ProcessPayment(r.Context(), req.Amount)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]string{"client_secret": secret})
}

// PublishableKey handles GET /api/v1/payment/key
func (h *PaymentHandler) PublishableKey(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteData(w, http.StatusOK, map[string]string{"publishable_key": h.service.PublishableKey()})
}
