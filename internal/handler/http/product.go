package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storefront-labs/orderengine/internal/domain"
	"github.com/storefront-labs/orderengine/internal/service"
	"github.com/storefront-labs/orderengine/pkg/httputil"
)

// ProductHandler handles HTTP requests for catalog, stock and rental endpoints.
type ProductHandler struct {
	products  *service.ProductService
	inventory *service.InventoryService
	logger    *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(products *service.ProductService, inventory *service.InventoryService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		products:  products,
		inventory: inventory,
		logger:    logger,
	}
}

// --- Request DTOs ---

// CreateProductRequest is the JSON request body for creating a product.
type CreateProductRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	Description  string `json:"description" validate:"max=5000"`
	Category     string `json:"category" validate:"max=100"`
	Price        int64  `json:"price" validate:"gte=0,lte=99999999"`
	Stock        int    `json:"stock" validate:"gte=0,lte=9999"`
	IsForSale    bool   `json:"is_for_sale"`
	IsRentable   bool   `json:"is_rentable"`
	RentalPrice  int64  `json:"rental_price" validate:"gte=0,lte=99999999"`
	RentalPeriod string `json:"rental_period" validate:"omitempty,oneof=daily weekly monthly"`
}

// DecrementStockRequest is the JSON request body for a manual stock decrement.
type DecrementStockRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// UpdateRentalStatusRequest is the JSON request body for changing rental availability.
type UpdateRentalStatusRequest struct {
	Status string `json:"rental_status" validate:"required,oneof=available rented unavailable"`
}

// CreateRentalOrderRequest is the JSON request body for renting a product.
type CreateRentalOrderRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

// --- Response DTOs ---

// ProductListResponse wraps a list of products.
type ProductListResponse struct {
	Products []domain.Product `json:"products"`
	Count    int              `json:"count"`
}

// RentalOrderListResponse wraps a list of rental orders.
type RentalOrderListResponse struct {
	Orders []domain.RentalOrder `json:"orders"`
	Count  int                  `json:"count"`
}

func (req CreateProductRequest) input() service.CreateProductInput {
	return service.CreateProductInput{
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Price:        req.Price,
		Stock:        req.Stock,
		IsForSale:    req.IsForSale,
		IsRentable:   req.IsRentable,
		RentalPrice:  req.RentalPrice,
		RentalPeriod: req.RentalPeriod,
	}
}

// --- Handlers ---

// CreateProduct handles POST /api/v1/admin/product/new
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req CreateProductRequest
	if !httputil.DecodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.products.CreateProduct(r.Context(), p, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, product)
}

// GetProduct handles GET /api/v1/product/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, err := h.products.GetProduct(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// DecrementStock handles PUT /api/v1/admin/product/{id}/stock
func (h *ProductHandler) DecrementStock(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req DecrementStockRequest
	if !httputil.DecodeAndValidate(w, r, &req) {
		return
	}

	change, err := h.inventory.DecrementStock(r.Context(), id.String(), req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, change)
}

// CreateRentalProduct handles POST /api/v1/admin/rental/new
func (h *ProductHandler) CreateRentalProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req CreateProductRequest
	if !httputil.DecodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.products.CreateRentalProduct(r.Context(), p, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, product)
}

// UpdateRentalStatus handles PUT /api/v1/admin/rental/{id}
func (h *ProductHandler) UpdateRentalStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateRentalStatusRequest
	if !httputil.DecodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.products.UpdateRentalStatus(r.Context(), id.String(), req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// ListRentalProducts handles GET /api/v1/rentals
func (h *ProductHandler) ListRentalProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListRentalProducts(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, ProductListResponse{Products: products, Count: len(products)})
}

// CreateRentalOrder handles POST /api/v1/rental/order/new
func (h *ProductHandler) CreateRentalOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req CreateRentalOrderRequest
	if !httputil.DecodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.products.CreateRentalOrder(r.Context(), p, req.ProductID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, order)
}

// ListRentalOrders handles GET /api/v1/rental/orders
func (h *ProductHandler) ListRentalOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.products.ListRentalOrders(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, RentalOrderListResponse{Orders: orders, Count: len(orders)})
}
