package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storefront-labs/orderengine/internal/domain"
	"github.com/storefront-labs/orderengine/internal/service"
	"github.com/storefront-labs/orderengine/pkg/httputil"
)

// ReviewHandler handles HTTP requests for product review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// UpsertReviewRequest is the JSON request body for writing a review.
// UserID and Name default to the caller; only admins may set another user.
type UpsertReviewRequest struct {
	UserID  string `json:"user_id" validate:"omitempty,max=64"`
	Name    string `json:"name" validate:"omitempty,max=100"`
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// ReviewListResponse wraps a product's reviews.
type ReviewListResponse struct {
	Reviews []domain.Review `json:"reviews"`
	Count   int             `json:"count"`
}

// UpsertReview handles POST and PUT /api/v1/product/{id}/review
func (h *ReviewHandler) UpsertReview(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpsertReviewRequest
	if !httputil.DecodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.service.UpsertReview(r.Context(), p, service.UpsertReviewInput{
		ProductID: productID.String(),
		UserID:    req.UserID,
		Name:      req.Name,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// ListReviews handles GET /api/v1/product/{id}/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	reviews, err := h.service.ListReviews(r.Context(), productID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, ReviewListResponse{Reviews: reviews, Count: len(reviews)})
}

// DeleteReview handles DELETE /api/v1/product/{id}/reviews?id={reviewID}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	reviewID := r.URL.Query().Get("id")
	if reviewID == "" {
		httputil.WriteErrorCode(w, http.StatusBadRequest, "INVALID_PARAMETER", "review id query parameter is required")
		return
	}

	product, err := h.service.DeleteReview(r.Context(), p, productID.String(), reviewID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}
