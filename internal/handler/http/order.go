package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/storefront-labs/orderengine/internal/domain"
	"github.com/storefront-labs/orderengine/internal/service"
	"github.com/storefront-labs/orderengine/pkg/httputil"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	orders    *service.OrderService
	analytics *service.AnalyticsService
	logger    *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(orders *service.OrderService, analytics *service.AnalyticsService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orders:    orders,
		analytics: analytics,
		logger:    logger,
	}
}

// --- Request DTOs ---

// CreateOrderItemRequest is the JSON request body for an order line item.
type CreateOrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1,lte=9999"`
}

// ShippingInfoRequest is the delivery address captured at checkout.
type ShippingInfoRequest struct {
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Country string `json:"country" validate:"required"`
	PinCode string `json:"pin_code" validate:"required"`
	PhoneNo string `json:"phone_no" validate:"required"`
}

// PaymentInfoRequest references the processor's payment record.
type PaymentInfoRequest struct {
	ID     string `json:"id" validate:"required"`
	Status string `json:"status" validate:"required"`
}

// CreateOrderRequest is the JSON request body for creating an order.
type CreateOrderRequest struct {
	Items         []CreateOrderItemRequest `json:"order_items" validate:"required,min=1,dive"`
	ShippingInfo  ShippingInfoRequest      `json:"shipping_info"`
	PaymentInfo   PaymentInfoRequest       `json:"payment_info"`
	TaxPrice      int64                    `json:"tax_price" validate:"gte=0"`
	ShippingPrice int64                    `json:"shipping_price" validate:"gte=0"`
}

// UpdateStatusRequest is the JSON request body for updating order status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Processing Shipped Delivered"`
}

// --- Response DTOs ---

// OrderListResponse wraps a list of orders.
type OrderListResponse struct {
	Orders []domain.Order `json:"orders"`
	Count  int            `json:"count"`
}

// AdminOrderListResponse adds the sum of all order totals.
type AdminOrderListResponse struct {
	Orders      []domain.Order `json:"orders"`
	Count       int            `json:"count"`
	TotalAmount int64          `json:"total_amount"`
}

// --- Handlers ---

// CreateOrder handles POST /api/v1/order/new
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if !httputil.DecodeAndValidate(w, r, &req) {
		return
	}

	items := make([]service.CreateOrderItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.CreateOrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}

	order, err := h.orders.CreateOrder(r.Context(), p, service.CreateOrderInput{
		Items:         items,
		ShippingInfo:  domain.ShippingInfo(req.ShippingInfo),
		PaymentInfo:   domain.PaymentInfo(req.PaymentInfo),
		TaxPrice:      req.TaxPrice,
		ShippingPrice: req.ShippingPrice,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, order)
}

// GetOrder handles GET /api/v1/order/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(r.Context(), p, id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, order)
}

// MyOrders handles GET /api/v1/orders/me
func (h *OrderHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.MyOrders(r.Context(), p)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, OrderListResponse{Orders: orders, Count: len(orders)})
}

// ListOrders handles GET /api/v1/admin/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, total, err := h.orders.ListOrders(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, AdminOrderListResponse{
		Orders:      orders,
		Count:       len(orders),
		TotalAmount: total,
	})
}

// UpdateOrderStatus handles PUT /api/v1/order/{id} and PUT /api/v1/admin/order/{id}
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !httputil.DecodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), p, id.String(), req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, order)
}

// DeleteOrder handles DELETE /api/v1/admin/order/{id}
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.orders.DeleteOrder(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]string{"id": id.String()})
}

// Analytics handles GET /api/v1/admin/orders/analytics
//
// Optional query parameters: status, from and to (RFC 3339).
func (h *OrderHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.AnalyticsFilter{Status: q.Get("status")}

	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.WriteErrorCode(w, http.StatusBadRequest, "INVALID_PARAMETER", name+" must be an RFC 3339 timestamp")
			return
		}
		*dst = &ts
	}

	summary, err := h.analytics.Summarize(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, summary)
}
