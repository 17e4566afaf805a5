package http

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/orderengine/internal/domain"
	"github.com/storefront-labs/orderengine/internal/service"
)

// ============================================================================
// Products
// ============================================================================

func TestCreateAndGetProduct(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/admin/product/new", sellerToken, CreateProductRequest{
		Name:      "Desk Lamp",
		Price:     2999,
		Stock:     5,
		IsForSale: true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created domain.Product
	decodeResponse(t, rec, &created)
	assert.Equal(t, "user-seller", created.UserID)

	rec = env.do(t, http.MethodGet, "/api/v1/product/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Product
	decodeResponse(t, rec, &got)
	assert.Equal(t, "Desk Lamp", got.Name)
	assert.Equal(t, 5, got.Stock)

	rec = env.do(t, http.MethodPost, "/api/v1/admin/product/new", aliceToken, CreateProductRequest{Name: "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/admin/product/new", adminToken, CreateProductRequest{Name: "x", Price: 100_000_000})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeResponse(t, rec, nil).Error.Code)
}

func TestDecrementStock(t *testing.T) {
	env := newTestEnv(t)
	productID := env.seedProduct(t, 1000, 10)
	path := "/api/v1/admin/product/" + productID + "/stock"

	rec := env.do(t, http.MethodPut, path, adminToken, DecrementStockRequest{Quantity: 4})
	require.Equal(t, http.StatusOK, rec.Code)
	var change service.StockChange
	decodeResponse(t, rec, &change)
	assert.Equal(t, 6, change.Stock)
	assert.Equal(t, 6, env.stock(t, productID))

	rec = env.do(t, http.MethodPut, path, adminToken, DecrementStockRequest{Quantity: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, path, sellerToken, DecrementStockRequest{Quantity: 1})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/admin/product/"+uuid.New().String()+"/stock", adminToken, DecrementStockRequest{Quantity: 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ============================================================================
// Reviews
// ============================================================================

func TestReviewEndpoints(t *testing.T) {
	env := newTestEnv(t)
	productID := env.seedProduct(t, 1000, 10)
	base := "/api/v1/product/" + productID

	rec := env.do(t, http.MethodPost, base+"/review", aliceToken, UpsertReviewRequest{Rating: 4, Comment: "solid"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, base+"/review", bobToken, UpsertReviewRequest{Rating: 2})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPut, base+"/review", aliceToken, UpsertReviewRequest{Rating: 5, Comment: "even better"})
	require.Equal(t, http.StatusOK, rec.Code)
	var product domain.Product
	decodeResponse(t, rec, &product)
	assert.Equal(t, 2, product.NumOfReviews)
	assert.InDelta(t, 3.5, product.Ratings, 1e-9)

	rec = env.do(t, http.MethodGet, base+"/reviews", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list ReviewListResponse
	decodeResponse(t, rec, &list)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "user-alice", list.Reviews[0].UserID)
	assert.Equal(t, "even better", list.Reviews[0].Comment)

	// Bob cannot delete Alice's review.
	aliceReview := list.Reviews[0].ID
	rec = env.do(t, http.MethodDelete, base+"/reviews?id="+aliceReview, bobToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodDelete, base+"/reviews?id="+aliceReview, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &product)
	assert.Equal(t, 1, product.NumOfReviews)
	assert.InDelta(t, 2.0, product.Ratings, 1e-9)

	// An unknown review id is accepted and leaves the aggregate intact.
	rec = env.do(t, http.MethodDelete, base+"/reviews?id="+uuid.New().String(), aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &product)
	assert.Equal(t, 1, product.NumOfReviews)

	rec = env.do(t, http.MethodDelete, base+"/reviews", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReviewEndpoints_Errors(t *testing.T) {
	env := newTestEnv(t)
	productID := env.seedProduct(t, 1000, 10)
	base := "/api/v1/product/" + productID

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   UpsertReviewRequest
		status int
	}{
		{"rating too high", http.MethodPost, base + "/review", aliceToken, UpsertReviewRequest{Rating: 6}, http.StatusBadRequest},
		{"rating missing", http.MethodPost, base + "/review", aliceToken, UpsertReviewRequest{}, http.StatusBadRequest},
		{"seller cannot review", http.MethodPost, base + "/review", sellerToken, UpsertReviewRequest{Rating: 3}, http.StatusForbidden},
		{"anonymous", http.MethodPost, base + "/review", "", UpsertReviewRequest{Rating: 3}, http.StatusUnauthorized},
		{"write for someone else", http.MethodPut, base + "/review", bobToken, UpsertReviewRequest{UserID: "user-alice", Rating: 3}, http.StatusUnauthorized},
		{"unknown product", http.MethodPost, "/api/v1/product/" + uuid.New().String() + "/review", aliceToken, UpsertReviewRequest{Rating: 3}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	rec := env.do(t, http.MethodPut, base+"/review", adminToken, UpsertReviewRequest{UserID: "user-alice", Name: "Alice", Rating: 3})
	require.Equal(t, http.StatusOK, rec.Code)
	var product domain.Product
	decodeResponse(t, rec, &product)
	require.Len(t, product.Reviews, 1)
	assert.Equal(t, "user-alice", product.Reviews[0].UserID)
}

// ============================================================================
// Rentals
// ============================================================================

func TestRentalEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/admin/rental/new", sellerToken, CreateProductRequest{
		Name:         "Projector",
		RentalPrice:  1200,
		RentalPeriod: domain.RentalPeriodWeekly,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var rental domain.Product
	decodeResponse(t, rec, &rental)
	assert.True(t, rental.IsRentable)
	assert.Equal(t, domain.RentalStatusAvailable, rental.RentalStatus)

	rec = env.do(t, http.MethodGet, "/api/v1/rentals", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var products ProductListResponse
	decodeResponse(t, rec, &products)
	assert.Equal(t, 1, products.Count)

	rec = env.do(t, http.MethodPost, "/api/v1/rental/order/new", aliceToken, CreateRentalOrderRequest{ProductID: rental.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	var order domain.RentalOrder
	decodeResponse(t, rec, &order)
	assert.Equal(t, int64(1200), order.Price)
	assert.Equal(t, domain.RentalOrderStatusPending, order.Status)

	rec = env.do(t, http.MethodGet, "/api/v1/rental/orders", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var orders RentalOrderListResponse
	decodeResponse(t, rec, &orders)
	assert.Equal(t, 1, orders.Count)

	rec = env.do(t, http.MethodGet, "/api/v1/rental/orders", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/admin/rental/"+rental.ID, sellerToken, UpdateRentalStatusRequest{Status: domain.RentalStatusUnavailable})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/rental/order/new", bobToken, CreateRentalOrderRequest{ProductID: rental.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "product is not available for rent", decodeResponse(t, rec, nil).Error.Message)

	rec = env.do(t, http.MethodPut, "/api/v1/admin/rental/"+rental.ID, sellerToken, UpdateRentalStatusRequest{Status: "lost"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================================================
// Payment
// ============================================================================

func TestPaymentEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/payment/process", aliceToken, ProcessPaymentRequest{Amount: 4150})
	require.Equal(t, http.StatusOK, rec.Code)
	var intent map[string]string
	decodeResponse(t, rec, &intent)
	assert.Contains(t, intent["client_secret"], "mock_pi_")

	rec = env.do(t, http.MethodPost, "/api/v1/payment/process", aliceToken, ProcessPaymentRequest{Amount: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/payment/key", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var key map[string]string
	decodeResponse(t, rec, &key)
	assert.Equal(t, "pk_test_123", key["publishable_key"])

	rec = env.do(t, http.MethodGet, "/api/v1/payment/key", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
